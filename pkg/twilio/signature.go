package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
)

// SignatureHeader carries the request signature Twilio computes for every webhook.
const SignatureHeader = "X-Twilio-Signature"

// Verify reports whether signature matches the one Twilio would compute for
// requestURL and form using authToken. It never panics and returns false for
// an empty signature or token.
func Verify(requestURL string, form map[string]string, signature, authToken string) bool {
	values := make(url.Values, len(form))
	for k, v := range form {
		values.Set(k, v)
	}
	return ValidateValues(requestURL, values, signature, authToken)
}

// ValidateValues is Verify for forms that may repeat a key.
func ValidateValues(requestURL string, values url.Values, signature, authToken string) bool {
	if signature == "" || authToken == "" {
		return false
	}
	for _, candidate := range urlVariants(requestURL) {
		expected := ComputeSignature(candidate, values, authToken)
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return true
		}
	}
	return false
}

// ComputeSignature returns the base64 HMAC-SHA1 of the URL followed by every
// form key and value. Keys and the distinct values of each key are sorted
// ascending.
func ComputeSignature(requestURL string, values url.Values, authToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(requestURL)
	for _, key := range keys {
		for _, value := range sortedDistinct(values[key]) {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func sortedDistinct(vs []string) []string {
	out := make([]string, len(vs))
	copy(out, vs)
	sort.Strings(out)
	return slices.Compact(out)
}

// urlVariants yields the URL as given, then without and with its scheme's
// default port. Twilio may sign either form depending on how the webhook
// URL was configured.
func urlVariants(raw string) []string {
	variants := []string{raw}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return variants
	}

	defaultPort := ""
	switch u.Scheme {
	case "https":
		defaultPort = "443"
	case "http":
		defaultPort = "80"
	default:
		return variants
	}

	withPort := *u
	withoutPort := *u
	switch u.Port() {
	case "":
		withPort.Host = u.Hostname() + ":" + defaultPort
		variants = append(variants, withPort.String())
	case defaultPort:
		withoutPort.Host = u.Hostname()
		variants = append(variants, withoutPort.String())
	}
	return variants
}

// RequestURL rebuilds the URL Twilio signed for r. When publicBaseURL is set
// it replaces the scheme and host seen by this process.
func RequestURL(r *http.Request, publicBaseURL string) string {
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/") + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
