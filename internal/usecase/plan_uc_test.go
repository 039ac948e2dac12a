//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/usecase"
)

func TestPlanUC(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create and fetch a plan", func(t *testing.T) {
		repo := NewMockPlanRepo()
		uc := usecase.NewPlanUseCase(repo)

		plan, err := uc.Create(ctx, "Growth", 4900, "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if plan.Currency != "USD" {
			t.Errorf("expected default currency USD, got %s", plan.Currency)
		}
		got, err := uc.Get(ctx, plan.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Name != "Growth" || got.Price != 4900 {
			t.Errorf("unexpected plan: %+v", got)
		}
	})

	t.Run("Should reject invalid pricing", func(t *testing.T) {
		uc := usecase.NewPlanUseCase(NewMockPlanRepo())
		if _, err := uc.Create(ctx, "Free", 0, "USD"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Should list created plans", func(t *testing.T) {
		uc := usecase.NewPlanUseCase(NewMockPlanRepo())
		for _, name := range []string{"Starter", "Growth", "Scale"} {
			if _, err := uc.Create(ctx, name, 1900, "USD"); err != nil {
				t.Fatalf("Create(%s): %v", name, err)
			}
		}
		plans, err := uc.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(plans) != 3 {
			t.Errorf("expected 3 plans, got %d", len(plans))
		}
	})
}
