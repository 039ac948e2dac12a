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

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	const q = `
INSERT INTO plans (id, name, price, currency, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET name=$2, price=$3, currency=$4;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Price, p.Currency, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrStoreUnavailable
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	const q = `SELECT id, name, price, currency, created_at FROM plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	p := &model.Plan{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *planRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `SELECT id, name, price, currency, created_at FROM plans ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p := &model.Plan{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	return out, nil
}
