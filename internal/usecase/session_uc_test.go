//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/repository"
	"flidesk-checkout/internal/usecase"
)

type sessionDeps struct {
	sessions *MockSessionRepo
	plans    *MockPlanRepo
	gateway  *MockGateway
	uc       usecase.SessionUseCase
}

func newSessionDeps(t *testing.T) *sessionDeps {
	t.Helper()
	d := &sessionDeps{
		sessions: NewMockSessionRepo(),
		plans:    NewMockPlanRepo(),
		gateway:  NewMockGateway(),
	}
	plan, err := model.NewPlan("plan-starter", "Starter", 1900, "USD")
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if err := d.plans.Save(context.Background(), repository.NoTX, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	d.uc = usecase.NewSessionUseCase(d.sessions, d.plans, d.gateway, newTestLogger())
	return d
}

// seedPendingExpired stores a pending session whose expiry already passed.
func (d *sessionDeps) seedPendingExpired(t *testing.T, id string) {
	t.Helper()
	plan, _ := model.NewPlan("plan-starter", "Starter", 1900, "USD")
	sess, err := model.NewCheckoutSession(id, "owner@acme.test", "Acme Inc", "", plan, nil)
	if err != nil {
		t.Fatalf("NewCheckoutSession: %v", err)
	}
	sess.CreatedAt = time.Now().Add(-26 * time.Hour)
	sess.ExpiresAt = sess.CreatedAt.Add(model.SessionTTL)
	if err := d.sessions.Save(context.Background(), repository.NoTX, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestSessionUC_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create a pending session with a 24h expiry", func(t *testing.T) {
		d := newSessionDeps(t)

		sess, payURL, err := d.uc.Submit(ctx, "owner@acme.test", "Acme Inc", "+15550100", "plan-starter", map[string]interface{}{"utm": "launch"})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if sess.Status != model.SessionStatusPending {
			t.Errorf("expected pending, got %s", sess.Status)
		}
		if sess.Amount != 1900 || sess.Currency != "USD" {
			t.Errorf("session should snapshot plan pricing, got %d %s", sess.Amount, sess.Currency)
		}
		if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != model.SessionTTL {
			t.Errorf("expected TTL %v, got %v", model.SessionTTL, got)
		}
		if payURL == "" {
			t.Error("expected a payment url")
		}
		if _, err := d.sessions.FindByID(ctx, repository.NoTX, sess.ID); err != nil {
			t.Errorf("session not persisted: %v", err)
		}
	})

	t.Run("Should reject an unknown plan", func(t *testing.T) {
		d := newSessionDeps(t)

		_, _, err := d.uc.Submit(ctx, "owner@acme.test", "Acme Inc", "", "plan-enterprise", nil)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Should reject a missing email", func(t *testing.T) {
		d := newSessionDeps(t)

		_, _, err := d.uc.Submit(ctx, "", "Acme Inc", "", "plan-starter", nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSessionUC_Get(t *testing.T) {
	d := newSessionDeps(t)
	if _, err := d.uc.Get(context.Background(), ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := d.uc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionUC_SweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Should expire overdue pending sessions and leave the rest alone", func(t *testing.T) {
		d := newSessionDeps(t)
		d.seedPendingExpired(t, "stale-1")
		d.seedPendingExpired(t, "stale-2")
		fresh, _, err := d.uc.Submit(ctx, "owner@acme.test", "Acme Inc", "", "plan-starter", nil)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}

		n, err := d.uc.SweepExpired(ctx)
		if err != nil {
			t.Fatalf("SweepExpired failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 expired, got %d", n)
		}
		for _, id := range []string{"stale-1", "stale-2"} {
			got, _ := d.sessions.FindByID(ctx, repository.NoTX, id)
			if got.Status != model.SessionStatusExpired {
				t.Errorf("session %s: expected expired, got %s", id, got.Status)
			}
		}
		if got, _ := d.sessions.FindByID(ctx, repository.NoTX, fresh.ID); got.Status != model.SessionStatusPending {
			t.Errorf("fresh session should stay pending, got %s", got.Status)
		}
	})

	t.Run("Should be idempotent across repeated runs", func(t *testing.T) {
		d := newSessionDeps(t)
		d.seedPendingExpired(t, "stale-1")

		if n, err := d.uc.SweepExpired(ctx); err != nil || n != 1 {
			t.Fatalf("first sweep: n=%d err=%v", n, err)
		}
		if n, err := d.uc.SweepExpired(ctx); err != nil || n != 0 {
			t.Errorf("second sweep should be a no-op: n=%d err=%v", n, err)
		}
	})

	t.Run("Should skip completed sessions", func(t *testing.T) {
		d := newSessionDeps(t)
		d.seedPendingExpired(t, "done-1")
		if _, err := d.sessions.CompleteIfPending(ctx, repository.NoTX, "done-1", "FLD-TEST", time.Now()); err != nil {
			t.Fatalf("complete: %v", err)
		}

		if n, err := d.uc.SweepExpired(ctx); err != nil || n != 0 {
			t.Errorf("completed session must not be swept: n=%d err=%v", n, err)
		}
		if got, _ := d.sessions.FindByID(ctx, repository.NoTX, "done-1"); got.Status != model.SessionStatusCompleted {
			t.Errorf("expected completed untouched, got %s", got.Status)
		}
	})

	t.Run("Should tolerate a failing row and process the rest", func(t *testing.T) {
		d := newSessionDeps(t)
		d.seedPendingExpired(t, "stale-1")
		d.seedPendingExpired(t, "stale-2")
		d.seedPendingExpired(t, "stale-3")
		d.sessions.MarkExpiredIfPendingFunc = func(ctx context.Context, tx repository.Tx, id string) (bool, error) {
			if id == "stale-2" {
				return false, fmt.Errorf("row lock timeout")
			}
			return d.sessions.transitionIfPending(id, model.SessionStatusExpired)
		}

		n, err := d.uc.SweepExpired(ctx)
		if err != nil {
			t.Fatalf("SweepExpired failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 expired despite the bad row, got %d", n)
		}

		// The next run picks the stuck row back up.
		d.sessions.MarkExpiredIfPendingFunc = nil
		if n, err := d.uc.SweepExpired(ctx); err != nil || n != 1 {
			t.Errorf("follow-up sweep should catch the stuck row: n=%d err=%v", n, err)
		}
	})
}
