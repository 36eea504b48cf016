package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/config"
)

type recordingChannel struct {
	*BaseChannel
	mu   sync.Mutex
	sent []bus.OutboundMessage
}

func newRecordingChannel(name string) *recordingChannel {
	return &recordingChannel{BaseChannel: NewBaseChannel(name, nil)}
}

func (c *recordingChannel) Start(context.Context) error { c.setRunning(true); return nil }
func (c *recordingChannel) Stop(context.Context) error  { c.setRunning(false); return nil }

func (c *recordingChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *recordingChannel) SendMessage(ctx context.Context, recipient, text string) error {
	return c.Send(ctx, bus.OutboundMessage{Channel: c.Name(), ChatID: recipient, Content: text})
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestManagerRoutesOutbound(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()

	ch := newRecordingChannel("telegram")
	m := NewManager(mb)
	m.Register(ch)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.StartAll(ctx))
	assert.True(t, ch.IsRunning())
	assert.Equal(t, []string{"telegram"}, m.GetEnabledChannels())

	mb.PublishOutbound(bus.OutboundMessage{Channel: "unknown", ChatID: "1", Content: "lost"})
	mb.PublishOutbound(bus.OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"})

	assert.Eventually(t, func() bool { return ch.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	m.StopAll(context.Background())
	assert.False(t, ch.IsRunning())
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(config.ChatConfig{Provider: "pager"}, nil)
	assert.Error(t, err)

	ch, err := NewFromConfig(config.ChatConfig{
		Provider: config.ProviderSlack,
		Slack:    config.SlackConfig{BotToken: "xoxb-test"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderSlack, ch.Name())
	assert.Error(t, ch.SendMessage(context.Background(), "C123", "not started"))

	ch, err = NewFromConfig(config.ChatConfig{
		Provider: config.ProviderDiscord,
		Discord:  config.DiscordConfig{Token: "token"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderDiscord, ch.Name())
	assert.Error(t, ch.SendMessage(context.Background(), "123", "not started"))
}
