package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/config"
	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

var ErrInvalidChatID = errors.New("invalid chat ID")

// messageSender is the slice of *telego.Bot used for delivery.
type messageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

type TelegramChannel struct {
	*BaseChannel
	bot    *telego.Bot
	sender messageSender
	cancel context.CancelFunc
}

func NewTelegramChannel(cfg config.TelegramConfig, b bus.Publisher) (*TelegramChannel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	} else if os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" {
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel(config.ProviderTelegram, b),
		bot:         bot,
		sender:      bot,
	}, nil
}

// Start begins long polling and forwards bot commands to the bus.
func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	ctx, c.cancel = context.WithCancel(ctx)

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		c.cancel()
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	bh, err := th.NewBotHandler(c.bot, updates)
	if err != nil {
		c.cancel()
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	bh.HandleMessage(func(_ *th.Context, message telego.Message) error {
		if err := c.handleMessage(&message); err != nil {
			logger.WarnCF("telegram", "Update caused error", map[string]interface{}{
				"message_id": message.MessageID,
				"error":      err.Error(),
			})
		}
		return nil
	}, th.AnyCommand())

	c.setRunning(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.bot.Username(),
	})

	go bh.Start()

	go func() {
		<-ctx.Done()
		bh.Stop()
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot...")
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *TelegramChannel) SendMessage(ctx context.Context, recipient, text string) error {
	return c.Send(ctx, bus.OutboundMessage{
		Channel: c.Name(),
		ChatID:  recipient,
		Content: text,
	})
}

// Send delivers msg with Markdown formatting, falling back to plain text when
// Telegram refuses to parse it.
func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}

	chatID, threadID, err := telegramChatID(msg.ChatID)
	if err != nil {
		return err
	}

	params := &telego.SendMessageParams{
		ChatID:    chatID,
		Text:      msg.Content,
		ParseMode: telego.ModeMarkdown,
	}
	if threadID != 0 {
		params.MessageThreadID = threadID
	}

	if _, err = c.sender.SendMessage(ctx, params); err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	logger.WarnCF("telegram", "Markdown send failed, falling back to plain text", map[string]interface{}{
		"chat_id": msg.ChatID,
		"error":   err.Error(),
	})
	params.ParseMode = ""
	if _, err = c.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram send to %s: %w", msg.ChatID, err)
	}
	return nil
}

func (c *TelegramChannel) handleMessage(message *telego.Message) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}
	if message.From == nil {
		return fmt.Errorf("message sender (user) is nil")
	}

	chatIDStr := strconv.FormatInt(message.Chat.ID, 10)
	if message.MessageThreadID != 0 {
		chatIDStr = fmt.Sprintf("%d:%d", message.Chat.ID, message.MessageThreadID)
	}

	logger.DebugCF("telegram", "Received command", map[string]interface{}{
		"sender_id": message.From.ID,
		"chat_id":   chatIDStr,
		"text":      message.Text,
	})

	c.HandleMessage(strconv.FormatInt(message.From.ID, 10), chatIDStr, message.Text, map[string]string{
		"message_id": strconv.Itoa(message.MessageID),
		"username":   message.From.Username,
	})
	return nil
}

// telegramChatID accepts "<id>", "<id>:<thread>" or "@channelname".
func telegramChatID(recipient string) (telego.ChatID, int, error) {
	recipient = strings.TrimSpace(recipient)
	if strings.HasPrefix(recipient, "@") && len(recipient) > 1 {
		return tu.Username(recipient), 0, nil
	}
	chatID, threadID, err := parseCompositeChatID(recipient)
	if err != nil {
		return telego.ChatID{}, 0, fmt.Errorf("%w %q: %v", ErrInvalidChatID, recipient, err)
	}
	return tu.ID(chatID), threadID, nil
}

func parseCompositeChatID(chatIDStr string) (int64, int, error) {
	parts := strings.SplitN(chatIDStr, ":", 2)
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid chat ID format: %w", err)
	}

	var threadID int
	if len(parts) > 1 {
		threadID, err = strconv.Atoi(parts[1])
		if err != nil {
			return chatID, 0, fmt.Errorf("invalid thread ID format: %w", err)
		}
	}

	return chatID, threadID, nil
}
