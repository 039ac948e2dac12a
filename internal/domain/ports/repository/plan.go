package repository

import (
	"context"

	"flidesk-checkout/internal/domain/model"
)

type PlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	List(ctx context.Context, tx Tx) ([]*model.Plan, error)
}
