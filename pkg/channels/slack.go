package channels

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/config"
	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

// SlackChannel posts notifications to Slack channel IDs. It does not
// receive commands.
type SlackChannel struct {
	*BaseChannel
	api *slack.Client
}

func NewSlackChannel(cfg config.SlackConfig) (*SlackChannel, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack bot_token is required")
	}
	return &SlackChannel{
		BaseChannel: NewBaseChannel(config.ProviderSlack, nil),
		api:         slack.New(cfg.BotToken),
	}, nil
}

func (c *SlackChannel) Start(ctx context.Context) error {
	logger.InfoC("slack", "Starting Slack channel (send only)")

	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}

	c.setRunning(true)
	logger.InfoCF("slack", "Slack bot connected", map[string]interface{}{
		"bot_user_id": auth.UserID,
		"team":        auth.Team,
	})
	return nil
}

func (c *SlackChannel) Stop(ctx context.Context) error {
	logger.InfoC("slack", "Stopping Slack channel")
	c.setRunning(false)
	return nil
}

func (c *SlackChannel) SendMessage(ctx context.Context, recipient, text string) error {
	return c.Send(ctx, bus.OutboundMessage{
		Channel: c.Name(),
		ChatID:  recipient,
		Content: text,
	})
}

func (c *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("slack channel not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("%w: empty slack channel ID", ErrInvalidChatID)
	}

	_, _, err := c.api.PostMessageContext(ctx, msg.ChatID, slack.MsgOptionText(msg.Content, false))
	if err != nil {
		return fmt.Errorf("slack send to %s: %w", msg.ChatID, err)
	}
	return nil
}
