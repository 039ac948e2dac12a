package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, flidesk_id, session_id, plan_id, email, business_name, amount, currency, created_at`

// Save is a plain INSERT: subscriptions are derived once and never rewritten.
// Unique constraints on flidesk_id and session_id are the final duplicate
// guard; violations surface as ErrConflict so the caller's transaction rolls
// back cleanly.
func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, flidesk_id, session_id, plan_id, email, business_name, amount, currency, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
);`

	_, err := execSQL(ctx, r.pool, tx, q, sub.ID, sub.FlideskID, sub.SessionID, sub.PlanID, sub.Email, sub.BusinessName, sub.Amount, sub.Currency, sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrStoreUnavailable
	}
	return nil
}

func (r *subscriptionRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE session_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}

	sub := &model.Subscription{}
	if err := row.Scan(&sub.ID, &sub.FlideskID, &sub.SessionID, &sub.PlanID, &sub.Email, &sub.BusinessName, &sub.Amount, &sub.Currency, &sub.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return sub, nil
}

func (r *subscriptionRepo) ExistsByFlideskID(ctx context.Context, tx repository.Tx, flideskID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE flidesk_id=$1);`
	row, err := pickRow(ctx, r.pool, tx, q, flideskID)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *subscriptionRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `SELECT COUNT(*) FROM subscriptions;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
