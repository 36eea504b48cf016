package webhook

import (
	"net/http"

	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
	"github.com/fiveboroughs/twilio2telegram/pkg/twilio"
)

// RequireSignature rejects any request whose X-Twilio-Signature does not
// match the URL and form it arrived with. Rejected requests get a bare 403
// and never reach next.
func RequireSignature(authToken, publicURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				logger.WarnCF("webhook", "Unreadable webhook form", map[string]interface{}{
					"path":  r.URL.Path,
					"error": err.Error(),
				})
				w.WriteHeader(http.StatusForbidden)
				return
			}

			signedURL := twilio.RequestURL(r, publicURL)
			signature := r.Header.Get(twilio.SignatureHeader)
			if !twilio.ValidateValues(signedURL, r.PostForm, signature, authToken) {
				logger.WarnCF("webhook", "Invalid Twilio signature", map[string]interface{}{
					"path":          r.URL.Path,
					"url":           signedURL,
					"has_signature": signature != "",
					"remote":        r.RemoteAddr,
				})
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
