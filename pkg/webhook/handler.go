package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
	"github.com/fiveboroughs/twilio2telegram/pkg/notify"
	"github.com/fiveboroughs/twilio2telegram/pkg/twilio"
)

// Kind describes one Twilio webhook: where its ID lives, how it is rendered
// and what TwiML acknowledges it.
type Kind struct {
	Name    string
	IDField string
	Format  func(twilio.InboundEvent) string
	Ack     string
}

var (
	MessageKind = Kind{
		Name:    "message",
		IDField: twilio.FieldMessageSid,
		Format:  twilio.FormatSMS,
		Ack:     twilio.MessageAck,
	}
	CallKind = Kind{
		Name:    "call",
		IDField: twilio.FieldCallSid,
		Format:  twilio.FormatCall,
		Ack:     twilio.CallAck,
	}
)

// Notifier is the part of notify.Dispatcher the handlers need.
type Notifier interface {
	Dispatch(ctx context.Context, eventID, message string) notify.Report
}

// Handler normalizes a verified webhook, fans it out and acknowledges it.
// The acknowledgement does not depend on delivery succeeding. It must sit
// behind RequireSignature.
func Handler(kind Kind, notifier Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		event := twilio.EventFromForm(r.Form)
		eventID := event.Field(kind.IDField)
		message := kind.Format(event)

		logger.InfoCF("webhook", "Twilio event received", map[string]interface{}{
			"kind":     kind.Name,
			"event_id": eventID,
		})

		// Delivery outlives the provider's request.
		report := notifier.Dispatch(context.WithoutCancel(r.Context()), eventID, message)
		if report.Failed > 0 {
			logger.WarnCF("webhook", "Some recipients were not notified", map[string]interface{}{
				"kind":        kind.Name,
				"event_id":    eventID,
				"dispatch_id": report.ID,
				"failed":      report.Failed,
			})
		}

		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, kind.Ack)
	}
}
