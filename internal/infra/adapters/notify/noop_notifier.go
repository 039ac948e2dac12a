package notify

import (
	"context"
	"sync"

	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier records intents in memory; used in tests and dev mode.
type NoopNotifier struct {
	mu   sync.Mutex
	Sent []model.NotificationIntent

	SendFunc func(ctx context.Context, intent model.NotificationIntent) error
}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Name() string { return "noop" }

func (n *NoopNotifier) Send(ctx context.Context, intent model.NotificationIntent) error {
	if n.SendFunc != nil {
		return n.SendFunc(ctx, intent)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, intent)
	return nil
}
