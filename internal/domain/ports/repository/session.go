package repository

import (
	"context"
	"time"

	"flidesk-checkout/internal/domain/model"
)

// SessionRepository is the durable Session Store contract. The conditional
// transition methods are the whole point: they update only when the current
// status is still pending, so concurrent duplicate callbacks resolve to a
// single winner without a lock held across the operation.
type SessionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.CheckoutSession) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CheckoutSession, error)

	// CompleteIfPending transitions pending -> completed and records the
	// flidesk id and completion time. Returns false when the session was no
	// longer pending (someone else won, or it expired/failed first).
	CompleteIfPending(ctx context.Context, tx Tx, id, flideskID string, completedAt time.Time) (bool, error)
	// MarkExpiredIfPending transitions pending -> expired. No-op (false) on
	// any other status.
	MarkExpiredIfPending(ctx context.Context, tx Tx, id string) (bool, error)
	// MarkFailedIfPending transitions pending -> failed. No-op (false) on any
	// other status.
	MarkFailedIfPending(ctx context.Context, tx Tx, id string) (bool, error)

	// ListPendingExpiredBefore returns pending sessions whose expiry passed
	// before cutoff, oldest first.
	ListPendingExpiredBefore(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.CheckoutSession, error)
	// ListPendingOlderThan returns pending sessions created before cutoff,
	// used for stale-session recovery.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.CheckoutSession, error)

	CountByStatus(ctx context.Context, tx Tx) (map[model.SessionStatus]int, error)
}
