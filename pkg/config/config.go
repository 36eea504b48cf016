// Twilio2Telegram - Twilio SMS and call alerts relayed to chat
// License: MIT
//
// Copyright (c) 2026 Twilio2Telegram contributors

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const DefaultHelpURL = "https://github.com/FiveBoroughs/Twilio2Telegram"

const (
	ProviderTelegram = "telegram"
	ProviderSlack    = "slack"
	ProviderDiscord  = "discord"
)

type Config struct {
	Twilio     TwilioConfig
	Chat       ChatConfig
	Recipients RecipientsConfig
	Server     ServerConfig
	Dispatch   DispatchConfig
	Bot        BotConfig
	Log        LogConfig
}

type TwilioConfig struct {
	AuthToken string `env:"TWILIO_AUTH_TOKEN,required,notEmpty"`
	// PublicURL overrides the scheme and host used to rebuild the signed URL,
	// for deployments behind a proxy that rewrites them.
	PublicURL string `env:"PUBLIC_URL"`
}

type ChatConfig struct {
	Provider string         `env:"CHAT_PROVIDER" envDefault:"telegram"`
	Telegram TelegramConfig
	Slack    SlackConfig
	Discord  DiscordConfig
}

type TelegramConfig struct {
	Token string `env:"TELEGRAM_BOT_TOKEN"`
	Proxy string `env:"TELEGRAM_PROXY"`
}

type SlackConfig struct {
	BotToken string `env:"SLACK_BOT_TOKEN"`
}

type DiscordConfig struct {
	Token string `env:"DISCORD_BOT_TOKEN"`
}

type RecipientsConfig struct {
	Owner       string `env:"TELEGRAM_OWNER,required,notEmpty"`
	Subscribers string `env:"TELEGRAM_SUBSCRIBERS"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DispatchConfig struct {
	SendTimeout time.Duration `env:"SEND_TIMEOUT" envDefault:"5s"`
}

type BotConfig struct {
	HelpURL string `env:"HELP_URL" envDefault:"https://github.com/FiveBoroughs/Twilio2Telegram"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (*Config, error) {
	return parse(env.Options{})
}

// LoadConfigFrom reads the configuration from the given variables instead of
// the process environment.
func LoadConfigFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field requirements the env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	c.Chat.Provider = strings.ToLower(strings.TrimSpace(c.Chat.Provider))
	switch c.Chat.Provider {
	case ProviderTelegram:
		if c.Chat.Telegram.Token == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required for the telegram provider"))
		}
	case ProviderSlack:
		if c.Chat.Slack.BotToken == "" {
			errs = append(errs, errors.New("SLACK_BOT_TOKEN is required for the slack provider"))
		}
	case ProviderDiscord:
		if c.Chat.Discord.Token == "" {
			errs = append(errs, errors.New("DISCORD_BOT_TOKEN is required for the discord provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CHAT_PROVIDER %q", c.Chat.Provider))
	}

	if strings.TrimSpace(c.Recipients.Owner) == "" {
		errs = append(errs, errors.New("TELEGRAM_OWNER must not be blank"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Server.Port))
	}
	if c.Dispatch.SendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SEND_TIMEOUT must be positive, got %s", c.Dispatch.SendTimeout))
	}
	if c.Twilio.PublicURL != "" {
		c.Twilio.PublicURL = strings.TrimRight(c.Twilio.PublicURL, "/")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
