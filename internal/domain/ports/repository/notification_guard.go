package repository

import "context"

// NotificationGuard records that a confirmation send was attempted for a
// session. FirstAttempt returns true exactly once per session id; later calls
// return false. Backed by redis SETNX in production.
type NotificationGuard interface {
	FirstAttempt(ctx context.Context, sessionID string) (bool, error)
}
