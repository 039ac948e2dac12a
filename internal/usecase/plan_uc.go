package usecase

import (
	"context"

	"github.com/google/uuid"

	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	Create(ctx context.Context, name string, price int64, currency string) (*model.Plan, error)
	Get(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) Create(ctx context.Context, name string, price int64, currency string) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), name, price, currency)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (u *planUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	return u.plans.FindByID(ctx, repository.NoTX, id)
}

func (u *planUC) List(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.List(ctx, repository.NoTX)
}
