package twilio

import (
	"fmt"
	"net/url"
)

// Unknown replaces any field missing from an inbound event.
const Unknown = "unknown"

// Field names Twilio posts with SMS and voice webhooks.
const (
	FieldFrom        = "From"
	FieldFromCountry = "FromCountry"
	FieldFromState   = "FromState"
	FieldBody        = "Body"
	FieldCallStatus  = "CallStatus"
	FieldMessageSid  = "MessageSid"
	FieldCallSid     = "CallSid"
)

// InboundEvent is the decoded form of a single webhook request.
type InboundEvent map[string]string

// EventFromForm keeps the first value of every form key.
func EventFromForm(form url.Values) InboundEvent {
	ev := make(InboundEvent, len(form))
	for k, v := range form {
		if len(v) > 0 {
			ev[k] = v[0]
		}
	}
	return ev
}

// Field returns the named value, or Unknown when it is absent.
func (e InboundEvent) Field(name string) string {
	if v, ok := e[name]; ok {
		return v
	}
	return Unknown
}

// FormatSMS renders a received text message. The backticks are Markdown for
// the chat client and must not change.
func FormatSMS(e InboundEvent) string {
	return fmt.Sprintf("Text from `+%s` (%s, %s) :```   %s```",
		e.Field(FieldFrom),
		e.Field(FieldFromCountry),
		e.Field(FieldFromState),
		e.Field(FieldBody))
}

// FormatCall renders an incoming voice call.
func FormatCall(e InboundEvent) string {
	return fmt.Sprintf("Call from `+%s` (%s, %s) :```   %s```",
		e.Field(FieldFrom),
		e.Field(FieldFromCountry),
		e.Field(FieldFromState),
		e.Field(FieldCallStatus))
}

// FormatOwner prefixes message with the Twilio resource ID shown only to the owner.
func FormatOwner(eventID, message string) string {
	return fmt.Sprintf("Twilio ID : `%s`\n", eventID) + message
}

// TwiML acknowledgements. The call reply rejects the call so it is never
// connected or billed.
const (
	MessageAck = "<response></response>"
	CallAck    = "<Response><Reject/></Response>"
)
