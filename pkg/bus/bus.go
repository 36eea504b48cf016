package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

const defaultBufferSize = 100

// MessageBus carries bot commands in and replies out. Publishing never
// blocks; a message that finds its buffer full is dropped.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	dropped  atomic.Int64
	closed   bool
	mu       sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return NewMessageBusSize(defaultBufferSize)
}

func NewMessageBusSize(size int) *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, size),
		outbound: make(chan OutboundMessage, size),
	}
}

func (mb *MessageBus) PublishInbound(msg InboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	select {
	case mb.inbound <- msg:
	default:
		mb.drop("inbound", msg.Channel, msg.ChatID)
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-mb.inbound:
		if !ok {
			return InboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	select {
	case mb.outbound <- msg:
	default:
		mb.drop("outbound", msg.Channel, msg.ChatID)
	}
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg, ok := <-mb.outbound:
		if !ok {
			return OutboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

// Dropped reports how many messages were discarded on a full buffer.
func (mb *MessageBus) Dropped() int64 {
	return mb.dropped.Load()
}

func (mb *MessageBus) drop(direction, channel, chatID string) {
	mb.dropped.Add(1)
	logger.WarnCF("bus", "Buffer full, message dropped", map[string]interface{}{
		"direction": direction,
		"channel":   channel,
		"chat_id":   chatID,
	})
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
	close(mb.outbound)
}
