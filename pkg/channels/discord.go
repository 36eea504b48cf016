package channels

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/config"
	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

// DiscordChannel posts notifications to Discord channel IDs over the REST
// API. It does not open a gateway session.
type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
}

func NewDiscordChannel(cfg config.DiscordConfig) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordChannel{
		BaseChannel: NewBaseChannel(config.ProviderDiscord, nil),
		session:     session,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord channel (send only)")

	user, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord get bot user: %w", err)
	}

	c.setRunning(true)
	logger.InfoCF("discord", "Discord bot connected", map[string]interface{}{
		"username": user.Username,
		"user_id":  user.ID,
	})
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord channel")
	c.setRunning(false)
	return nil
}

func (c *DiscordChannel) SendMessage(ctx context.Context, recipient, text string) error {
	return c.Send(ctx, bus.OutboundMessage{
		Channel: c.Name(),
		ChatID:  recipient,
		Content: text,
	})
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord channel not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("%w: empty discord channel ID", ErrInvalidChatID)
	}

	if _, err := c.session.ChannelMessageSend(msg.ChatID, msg.Content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send to %s: %w", msg.ChatID, err)
	}
	return nil
}
