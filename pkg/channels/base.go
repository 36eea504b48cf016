package channels

import (
	"context"
	"sync/atomic"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
)

// Channel is a chat platform the bridge can deliver notifications to.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	SendMessage(ctx context.Context, recipient, text string) error
	IsRunning() bool
}

type BaseChannel struct {
	name    string
	bus     bus.Publisher
	running atomic.Bool
}

func NewBaseChannel(name string, b bus.Publisher) *BaseChannel {
	return &BaseChannel{
		name: name,
		bus:  b,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}

// HandleMessage forwards a received chat message to the command gateway.
func (c *BaseChannel) HandleMessage(senderID, chatID, content string, metadata map[string]string) {
	if c.bus == nil {
		return
	}
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:  c.name,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Metadata: metadata,
	})
}
