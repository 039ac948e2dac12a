package repository

import (
	"context"

	"flidesk-checkout/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Subscription, error)
	// ExistsByFlideskID backs the bounded collision-retry loop of flidesk id
	// generation. The DB unique constraint remains the final arbiter.
	ExistsByFlideskID(ctx context.Context, tx Tx, flideskID string) (bool, error)
	Count(ctx context.Context, tx Tx) (int, error)
}
