package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiveboroughs/twilio2telegram/pkg/notify"
	"github.com/fiveboroughs/twilio2telegram/pkg/twilio"
)

const authToken = "test-auth-token"

type dispatched struct {
	eventID string
	message string
}

type fakeNotifier struct {
	mu     sync.Mutex
	calls  []dispatched
	failed int
}

func (f *fakeNotifier) Dispatch(_ context.Context, eventID, message string) notify.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatched{eventID: eventID, message: message})
	return notify.Report{ID: "test", Attempted: 1, Failed: f.failed}
}

func newTestServer(n Notifier) http.Handler {
	return NewServer(ServerConfig{AuthToken: authToken}, n).Handler()
}

func signedRequest(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://example.com"+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(twilio.SignatureHeader, twilio.ComputeSignature("http://example.com"+path, form, authToken))
	return req
}

func TestMessageWebhook(t *testing.T) {
	n := &fakeNotifier{}
	form := url.Values{
		"MessageSid":  {"SM123"},
		"From":        {"15551234567"},
		"FromCountry": {"US"},
		"FromState":   {"NY"},
		"Body":        {"hello"},
	}

	rec := httptest.NewRecorder()
	newTestServer(n).ServeHTTP(rec, signedRequest(t, "/message", form))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<response></response>", rec.Body.String())
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	require.Len(t, n.calls, 1)
	assert.Equal(t, "SM123", n.calls[0].eventID)
	assert.Equal(t, "Text from `+15551234567` (US, NY) :```   hello```", n.calls[0].message)
}

func TestCallWebhook_MissingStateAndReject(t *testing.T) {
	n := &fakeNotifier{}
	form := url.Values{
		"CallSid":     {"CA999"},
		"From":        {"15551234567"},
		"FromCountry": {"US"},
		"CallStatus":  {"ringing"},
	}

	rec := httptest.NewRecorder()
	newTestServer(n).ServeHTTP(rec, signedRequest(t, "/call", form))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<Response><Reject/></Response>", rec.Body.String())
	require.Len(t, n.calls, 1)
	assert.Equal(t, "CA999", n.calls[0].eventID)
	assert.Equal(t, "Call from `+15551234567` (US, unknown) :```   ringing```", n.calls[0].message)
}

func TestWebhook_AckIndependentOfDelivery(t *testing.T) {
	n := &fakeNotifier{failed: 3}
	rec := httptest.NewRecorder()
	newTestServer(n).ServeHTTP(rec, signedRequest(t, "/message", url.Values{"Body": {"x"}}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, twilio.MessageAck, rec.Body.String())
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	form := url.Values{"MessageSid": {"SM1"}, "Body": {"hello"}}

	tests := []struct {
		name   string
		path   string
		mutate func(*http.Request)
	}{
		{"missing header", "/message", func(r *http.Request) { r.Header.Del(twilio.SignatureHeader) }},
		{"empty header", "/call", func(r *http.Request) { r.Header.Set(twilio.SignatureHeader, "") }},
		{"tampered header", "/message", func(r *http.Request) {
			sig := []byte(r.Header.Get(twilio.SignatureHeader))
			if sig[0] == 'x' {
				sig[0] = 'y'
			} else {
				sig[0] = 'x'
			}
			r.Header.Set(twilio.SignatureHeader, string(sig))
		}},
		{"signed for other path", "/call", func(r *http.Request) {
			r.Header.Set(twilio.SignatureHeader, twilio.ComputeSignature("http://example.com/message", form, authToken))
		}},
		{"signed with other token", "/message", func(r *http.Request) {
			r.Header.Set(twilio.SignatureHeader, twilio.ComputeSignature("http://example.com/message", form, "nope"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			req := signedRequest(t, tt.path, form)
			tt.mutate(req)

			rec := httptest.NewRecorder()
			newTestServer(n).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Empty(t, n.calls)
		})
	}
}

func TestWebhook_BodyTamperedAfterSigning(t *testing.T) {
	n := &fakeNotifier{}
	signed := url.Values{"Body": {"hello"}}
	req := signedRequest(t, "/message", signed)

	tampered := url.Values{"Body": {"hell0"}}
	req.Body = io.NopCloser(strings.NewReader(tampered.Encode()))

	rec := httptest.NewRecorder()
	newTestServer(n).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, n.calls)
}

func TestWebhook_PublicURL(t *testing.T) {
	n := &fakeNotifier{}
	srv := NewServer(ServerConfig{AuthToken: authToken, PublicURL: "https://hooks.example.org"}, n).Handler()

	form := url.Values{"CallSid": {"CA1"}}
	req := httptest.NewRequest(http.MethodPost, "http://10.0.0.5:8080/call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(twilio.SignatureHeader, twilio.ComputeSignature("https://hooks.example.org/call", form, authToken))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, n.calls, 1)
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(&fakeNotifier{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Twilio2Telegram")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestWebhook_GetNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeNotifier{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/message", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
