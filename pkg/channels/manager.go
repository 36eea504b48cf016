package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

// Manager owns the running channels and routes bot replies back to them.
type Manager struct {
	bus      bus.Subscriber
	channels map[string]Channel
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

func NewManager(b bus.Subscriber) *Manager {
	return &Manager{
		bus:      b,
		channels: make(map[string]Channel),
	}
}

func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

func (m *Manager) GetChannel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

func (m *Manager) GetEnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}

// StartAll starts every channel and the outbound dispatch loop. A channel
// that fails to start aborts startup.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("start %s channel: %w", name, err)
		}
	}

	if m.bus != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.dispatchOutbound(ctx)
		}()
	}
	return nil
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to stop channel", map[string]interface{}{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
	m.wg.Wait()
}

func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}

		ch, exists := m.GetChannel(msg.Channel)
		if !exists {
			logger.WarnCF("channels", "Unknown channel for outbound message", map[string]interface{}{
				"channel": msg.Channel,
			})
			continue
		}

		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Failed to send reply", map[string]interface{}{
				"channel": msg.Channel,
				"chat_id": msg.ChatID,
				"error":   err.Error(),
			})
		}
	}
}
