package channels

import (
	"fmt"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/config"
)

// NewFromConfig builds the channel named by CHAT_PROVIDER.
func NewFromConfig(cfg config.ChatConfig, b bus.Publisher) (Channel, error) {
	var (
		ch  Channel
		err error
	)
	switch cfg.Provider {
	case config.ProviderTelegram, "":
		ch, err = NewTelegramChannel(cfg.Telegram, b)
	case config.ProviderSlack:
		ch, err = NewSlackChannel(cfg.Slack)
	case config.ProviderDiscord:
		ch, err = NewDiscordChannel(cfg.Discord)
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}
