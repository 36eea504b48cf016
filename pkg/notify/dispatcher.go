package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
	"github.com/fiveboroughs/twilio2telegram/pkg/recipients"
	"github.com/fiveboroughs/twilio2telegram/pkg/twilio"
)

const DefaultSendTimeout = 5 * time.Second

// Sender delivers one text to one chat recipient. Implementations must be
// safe for concurrent use.
type Sender interface {
	SendMessage(ctx context.Context, recipient, text string) error
}

type Options struct {
	SendTimeout time.Duration
}

// Report summarizes one dispatch cycle.
type Report struct {
	ID        string
	Attempted int
	Failed    int
	Err       error
}

// Dispatcher fans a notification out to the owner and every subscriber.
type Dispatcher struct {
	sender      Sender
	directory   *recipients.Directory
	sendTimeout time.Duration
}

func NewDispatcher(sender Sender, directory *recipients.Directory, opts Options) *Dispatcher {
	timeout := opts.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		sender:      sender,
		directory:   directory,
		sendTimeout: timeout,
	}
}

// Dispatch sends to the owner, then to each subscriber in order. Failures are
// logged and counted; they never stop the remaining sends.
func (d *Dispatcher) Dispatch(ctx context.Context, eventID, message string) Report {
	report := Report{ID: uuid.NewString()}

	ownerErr := d.dispatchOwner(ctx, report.ID, eventID, message)
	report.Attempted++
	if ownerErr != nil {
		report.Failed++
	}

	subs := d.directory.Subscribers()
	subErrs := d.dispatchSubscribers(ctx, report.ID, subs, message)
	report.Attempted += len(subs)
	report.Failed += len(subErrs)

	report.Err = errors.Join(append([]error{ownerErr}, subErrs...)...)

	logger.InfoCF("notify", "Dispatch complete", map[string]interface{}{
		"dispatch_id": report.ID,
		"event_id":    eventID,
		"attempted":   report.Attempted,
		"failed":      report.Failed,
	})
	return report
}

// DispatchOwner sends the message, prefixed with the Twilio event ID, to the owner.
func (d *Dispatcher) DispatchOwner(ctx context.Context, eventID, message string) error {
	return d.dispatchOwner(ctx, uuid.NewString(), eventID, message)
}

// DispatchSubscribers sends the bare message to every subscriber. The returned
// error joins every failed send.
func (d *Dispatcher) DispatchSubscribers(ctx context.Context, message string) error {
	return errors.Join(d.dispatchSubscribers(ctx, uuid.NewString(), d.directory.Subscribers(), message)...)
}

func (d *Dispatcher) dispatchOwner(ctx context.Context, dispatchID, eventID, message string) error {
	return d.send(ctx, dispatchID, "owner", d.directory.Owner(), twilio.FormatOwner(eventID, message))
}

func (d *Dispatcher) dispatchSubscribers(ctx context.Context, dispatchID string, subs []string, message string) []error {
	var errs []error
	for _, sub := range subs {
		if err := d.send(ctx, dispatchID, "subscriber", sub, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (d *Dispatcher) send(ctx context.Context, dispatchID, role, recipient, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.SendMessage(sendCtx, recipient, text); err != nil {
		logger.ErrorCF("notify", "Delivery failed", map[string]interface{}{
			"dispatch_id": dispatchID,
			"role":        role,
			"recipient":   recipient,
			"error":       err.Error(),
		})
		return fmt.Errorf("send to %s %s: %w", role, recipient, err)
	}

	logger.DebugCF("notify", "Delivered", map[string]interface{}{
		"dispatch_id": dispatchID,
		"role":        role,
		"recipient":   recipient,
	})
	return nil
}
