package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

// CommandGateway answers the bot's chat commands.
type CommandGateway struct {
	bus     bus.Broker
	helpURL string
}

func NewCommandGateway(b bus.Broker, helpURL string) *CommandGateway {
	return &CommandGateway{
		bus:     b,
		helpURL: helpURL,
	}
}

// Run consumes inbound messages until ctx is cancelled or the bus closes.
func (g *CommandGateway) Run(ctx context.Context) error {
	for {
		msg, ok := g.bus.ConsumeInbound(ctx)
		if !ok {
			return nil
		}

		response, handled := g.handleCommand(msg)
		if !handled {
			logger.DebugCF("gateway", "Ignoring message", map[string]interface{}{
				"channel": msg.Channel,
				"chat_id": msg.ChatID,
			})
			continue
		}
		g.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: response,
		})
	}
}

func (g *CommandGateway) handleCommand(msg bus.InboundMessage) (string, bool) {
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, "/") {
		return "", false
	}

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return "", false
	}

	// Group chats address commands as /help@BotName.
	cmd, _, _ := strings.Cut(parts[0], "@")

	switch cmd {
	case "/help":
		return fmt.Sprintf("Find out more on [Github](%s)", g.helpURL), true
	case "/start":
		return "Twilio notifications are relayed here. Send /help for details.", true
	}

	return "", false
}
