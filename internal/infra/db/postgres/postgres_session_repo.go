package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*sessionRepo)(nil)

type sessionRepo struct{ pool *pgxpool.Pool }

func NewSessionRepo(pool *pgxpool.Pool) *sessionRepo {
	return &sessionRepo{pool: pool}
}

const sessionColumns = `id, email, business_name, phone, plan_id, amount, currency, payload, status, created_at, expires_at, completed_at, flidesk_id`

func (r *sessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.CheckoutSession) error {
	const q = `
INSERT INTO checkout_sessions (
  id, email, business_name, phone, plan_id, amount, currency, payload, status, created_at, expires_at, completed_at, flidesk_id
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
) ON CONFLICT (id) DO UPDATE SET
  email=$2, business_name=$3, phone=$4, payload=$8, status=$9, completed_at=$12, flidesk_id=$13;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Email, s.BusinessName, s.Phone, s.PlanID, s.Amount, s.Currency, s.Payload, s.Status, s.CreatedAt, s.ExpiresAt, s.CompletedAt, s.FlideskID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrStoreUnavailable
	}
	return nil
}

func (r *sessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CheckoutSession, error) {
	// No row lock here: the conditional update in CompleteIfPending is the
	// serialization point.
	q := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSession(row)
}

func (r *sessionRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id, flideskID string, completedAt time.Time) (bool, error) {
	const q = `
UPDATE checkout_sessions
   SET status = 'completed',
       flidesk_id = $2,
       completed_at = $3
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, flideskID, completedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrStoreUnavailable
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *sessionRepo) MarkExpiredIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	return r.transitionIfPending(ctx, tx, id, model.SessionStatusExpired)
}

func (r *sessionRepo) MarkFailedIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	return r.transitionIfPending(ctx, tx, id, model.SessionStatusFailed)
}

func (r *sessionRepo) transitionIfPending(ctx context.Context, tx repository.Tx, id string, to model.SessionStatus) (bool, error) {
	const q = `UPDATE checkout_sessions SET status=$2 WHERE id=$1 AND status='pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, to)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrStoreUnavailable
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *sessionRepo) ListPendingExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.CheckoutSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE status='pending' AND expires_at < $1 ORDER BY expires_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *sessionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.CheckoutSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *sessionRepo) list(ctx context.Context, tx repository.Tx, q string, cutoff time.Time, limit int) ([]*model.CheckoutSession, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrStoreUnavailable
		}
	}
	defer rows.Close()

	var out []*model.CheckoutSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	return out, nil
}

func (r *sessionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SessionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM checkout_sessions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	defer rows.Close()

	out := make(map[model.SessionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.SessionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	return out, nil
}

func scanSession(row pgx.Row) (*model.CheckoutSession, error) {
	s := &model.CheckoutSession{}
	err := row.Scan(&s.ID, &s.Email, &s.BusinessName, &s.Phone, &s.PlanID, &s.Amount, &s.Currency, &s.Payload, &s.Status, &s.CreatedAt, &s.ExpiresAt, &s.CompletedAt, &s.FlideskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
