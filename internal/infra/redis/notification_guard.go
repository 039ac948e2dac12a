package redis

import (
	"context"
	"time"

	"flidesk-checkout/internal/domain/ports/repository"
)

var _ repository.NotificationGuard = (*NotificationGuard)(nil)

// NotificationGuard suppresses duplicate confirmation sends with a SETNX key
// per session. The TTL outlives the session window, after which a duplicate
// send is harmless because the notifier dedups by session id anyway.
type NotificationGuard struct {
	cli RedisClient
	ttl time.Duration
}

func NewNotificationGuard(cli RedisClient, ttl time.Duration) *NotificationGuard {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &NotificationGuard{cli: cli, ttl: ttl}
}

func (g *NotificationGuard) key(sessionID string) string {
	return "notify:session:" + sessionID
}

// FirstAttempt returns true iff no send was attempted for this session yet.
func (g *NotificationGuard) FirstAttempt(ctx context.Context, sessionID string) (bool, error) {
	return g.cli.SetNX(ctx, g.key(sessionID), time.Now().Unix(), g.ttl)
}
