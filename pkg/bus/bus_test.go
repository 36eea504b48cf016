package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishConsume(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	mb.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", Content: "/help"})
	msg, ok := mb.ConsumeInbound(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "/help", msg.Content)

	mb.PublishOutbound(OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"})
	out, ok := mb.SubscribeOutbound(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "hi", out.Content)
}

func TestConsumeCancelled(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok := mb.ConsumeInbound(ctx)
	assert.False(t, ok)
}

func TestCloseIsIdempotentAndDropsPublishes(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()
	mb.Close()

	mb.PublishInbound(InboundMessage{Content: "dropped"})
	mb.PublishOutbound(OutboundMessage{Content: "dropped"})

	_, ok := mb.ConsumeInbound(context.Background())
	assert.False(t, ok)
	_, ok = mb.SubscribeOutbound(context.Background())
	assert.False(t, ok)
}

func TestPublishOnFullBufferDropsInsteadOfBlocking(t *testing.T) {
	mb := NewMessageBusSize(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		mb.PublishInbound(InboundMessage{Content: "/help"})
		mb.PublishInbound(InboundMessage{Content: "/help"})
		mb.PublishOutbound(OutboundMessage{Content: "a"})
		mb.PublishOutbound(OutboundMessage{Content: "b"})
		mb.Close()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish or close blocked on a full buffer")
	}
	assert.Equal(t, int64(2), mb.Dropped())

	msg, ok := mb.ConsumeInbound(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "/help", msg.Content)
	out, ok := mb.SubscribeOutbound(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "a", out.Content)
}
