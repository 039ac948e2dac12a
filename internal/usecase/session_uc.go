package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/adapter"
	"flidesk-checkout/internal/domain/ports/repository"
	"flidesk-checkout/internal/infra/logging"
	"flidesk-checkout/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

type SessionUseCase interface {
	// Submit creates a pending checkout session and returns it along with the
	// gateway redirect URL.
	Submit(ctx context.Context, email, businessName, phone, planID string, payload map[string]interface{}) (*model.CheckoutSession, string, error)
	Get(ctx context.Context, id string) (*model.CheckoutSession, error)
	// SweepExpired transitions pending sessions past their expiry to expired.
	// Best effort per row; returns how many transitioned.
	SweepExpired(ctx context.Context) (int, error)
}

// sweepBatchSize caps how many rows one sweep pass loads at a time.
const sweepBatchSize = 500

type sessionUC struct {
	sessions repository.SessionRepository
	plans    repository.PlanRepository
	gateway  adapter.PaymentGateway
	log      *zerolog.Logger
}

func NewSessionUseCase(sessions repository.SessionRepository, plans repository.PlanRepository, gateway adapter.PaymentGateway, logger *zerolog.Logger) *sessionUC {
	ucLog := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{sessions: sessions, plans: plans, gateway: gateway, log: &ucLog}
}

func (u *sessionUC) Submit(ctx context.Context, email, businessName, phone, planID string, payload map[string]interface{}) (*model.CheckoutSession, string, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, "", err
	}
	sess, err := model.NewCheckoutSession("", email, businessName, phone, plan, payload)
	if err != nil {
		return nil, "", err
	}
	if err := u.sessions.Save(ctx, repository.NoTX, sess); err != nil {
		return nil, "", err
	}
	metrics.IncSessionCreated()
	logging.With(ctx, u.log).Info().
		Str("session_id", sess.ID).
		Str("plan_id", plan.ID).
		Str("email", logging.Redact(email)).
		Msg("checkout session created")
	return sess, u.gateway.PaymentURL(sess.ID), nil
}

func (u *sessionUC) Get(ctx context.Context, id string) (*model.CheckoutSession, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.sessions.FindByID(ctx, repository.NoTX, id)
}

func (u *sessionUC) SweepExpired(ctx context.Context) (int, error) {
	total := 0
	for {
		batch, err := u.sessions.ListPendingExpiredBefore(ctx, repository.NoTX, time.Now(), sweepBatchSize)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			break
		}
		marked := 0
		for _, sess := range batch {
			ok, err := u.sessions.MarkExpiredIfPending(ctx, repository.NoTX, sess.ID)
			if err != nil {
				// One bad row must not abort the sweep.
				u.log.Warn().Err(err).Str("session_id", sess.ID).Msg("sweep: mark expired failed")
				continue
			}
			if ok {
				marked++
			}
		}
		total += marked
		if len(batch) < sweepBatchSize {
			break
		}
		// Every row in the batch failed; bail out instead of spinning on them.
		if marked == 0 {
			break
		}
	}
	if total > 0 {
		metrics.IncSessionsExpired(total)
	}
	return total, nil
}
