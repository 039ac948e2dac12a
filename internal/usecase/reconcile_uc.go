package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/adapter"
	"flidesk-checkout/internal/domain/ports/repository"
	"flidesk-checkout/internal/infra/logging"
	"flidesk-checkout/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

type ReconcileStatus string

const (
	ReconcileStatusCompleted        ReconcileStatus = "completed"
	ReconcileStatusAlreadyProcessed ReconcileStatus = "already-processed"
)

// ReconcileResult is the structured outcome surfaced to the webhook handler.
type ReconcileResult struct {
	Status           ReconcileStatus
	FlideskID        string
	NotificationSent bool
}

type ReconcileUseCase interface {
	// Reconcile converts a confirmed payment into exactly one subscription.
	// Duplicate calls for the same session return the prior outcome.
	Reconcile(ctx context.Context, sessionID, proof string) (*ReconcileResult, error)
}

// maxIDAttempts bounds flidesk id regeneration on collision.
const maxIDAttempts = 5

type reconcileUC struct {
	sessions repository.SessionRepository
	subs     repository.SubscriptionRepository
	gateway  adapter.PaymentGateway
	notifier adapter.Notifier
	guard    repository.NotificationGuard
	tm       repository.TransactionManager

	notifyTimeout time.Duration
	log           *zerolog.Logger
}

func NewReconcileUseCase(
	sessions repository.SessionRepository,
	subs repository.SubscriptionRepository,
	gateway adapter.PaymentGateway,
	notifier adapter.Notifier,
	guard repository.NotificationGuard,
	tm repository.TransactionManager,
	notifyTimeout time.Duration,
	logger *zerolog.Logger,
) *reconcileUC {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	ucLog := logger.With().Str("component", "ReconcileUC").Logger()
	return &reconcileUC{
		sessions:      sessions,
		subs:          subs,
		gateway:       gateway,
		notifier:      notifier,
		guard:         guard,
		tm:            tm,
		notifyTimeout: notifyTimeout,
		log:           &ucLog,
	}
}

func (u *reconcileUC) Reconcile(ctx context.Context, sessionID, proof string) (*ReconcileResult, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	start := time.Now()
	defer func() {
		metrics.ObserveReconcileLatency(float64(time.Since(start).Milliseconds()))
	}()
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "ReconcileUC.Reconcile")()

	sess, err := u.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch {
	case sess.Status == model.SessionStatusCompleted:
		// Idempotency gate: duplicate gateway callback. No new subscription,
		// no new notification.
		metrics.IncReconciliation("already_processed")
		return u.priorOutcome(ctx, sess)
	case sess.Status == model.SessionStatusExpired:
		return nil, domain.ErrSessionExpired
	case sess.Status == model.SessionStatusFailed:
		return nil, domain.ErrSessionFailed
	case sess.ExpiredAt(now):
		// Opportunistically persist the expiry; the sweep would catch it anyway.
		if marked, mErr := u.sessions.MarkExpiredIfPending(ctx, repository.NoTX, sess.ID); mErr != nil {
			log.Warn().Err(mErr).Msg("failed to mark expired session")
		} else if marked {
			metrics.IncSessionsExpired(1)
		}
		return nil, domain.ErrSessionExpired
	}

	verified, err := u.gateway.VerifyProof(ctx, sess.ID, proof)
	if err != nil {
		if errors.Is(err, domain.ErrProofRejected) {
			if _, mErr := u.sessions.MarkFailedIfPending(ctx, repository.NoTX, sess.ID); mErr != nil {
				log.Warn().Err(mErr).Msg("failed to mark failed session")
			}
			metrics.IncReconciliation("failed")
		}
		return nil, fmt.Errorf("verify proof: %w", err)
	}
	if verified.Amount != sess.Amount {
		if _, mErr := u.sessions.MarkFailedIfPending(ctx, repository.NoTX, sess.ID); mErr != nil {
			log.Warn().Err(mErr).Msg("failed to mark failed session")
		}
		metrics.IncReconciliation("failed")
		return nil, fmt.Errorf("amount mismatch: captured %d, session %d: %w", verified.Amount, sess.Amount, domain.ErrProofRejected)
	}

	flideskID, err := u.generateFlideskID(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := model.NewSubscription(uuid.NewString(), flideskID, sess)
	if err != nil {
		return nil, err
	}

	// Subscription insert and status transition commit or roll back together.
	// The conditional update is the serialization point: only one concurrent
	// caller sees pending, so at most one subscription row ever commits.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		won, err := u.sessions.CompleteIfPending(ctx, tx, sess.ID, flideskID, now)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return u.lostRace(ctx, sess.ID)
		}
		return nil, err
	}

	metrics.IncReconciliation("completed")
	log.Info().
		Str("session_id", sess.ID).
		Str("flidesk_id", flideskID).
		Str("ref_id", verified.RefID).
		Msg("session reconciled")

	sent := u.notify(ctx, model.NotificationIntent{
		SessionID: sess.ID,
		Email:     sess.Email,
		FlideskID: flideskID,
		PlanID:    sess.PlanID,
	})

	return &ReconcileResult{
		Status:           ReconcileStatusCompleted,
		FlideskID:        flideskID,
		NotificationSent: sent,
	}, nil
}

// priorOutcome reconstructs the result of the reconciliation that already
// happened for a completed session.
func (u *reconcileUC) priorOutcome(ctx context.Context, sess *model.CheckoutSession) (*ReconcileResult, error) {
	res := &ReconcileResult{Status: ReconcileStatusAlreadyProcessed}
	if sess.FlideskID != nil {
		res.FlideskID = *sess.FlideskID
		return res, nil
	}
	// Older rows may predate the denormalized flidesk_id column.
	sub, err := u.subs.FindBySessionID(ctx, repository.NoTX, sess.ID)
	if err != nil {
		return nil, err
	}
	res.FlideskID = sub.FlideskID
	return res, nil
}

// lostRace resolves the outcome after our conditional update found the session
// no longer pending: a concurrent caller (or the sweep) committed first.
func (u *reconcileUC) lostRace(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	cur, err := u.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}
	switch cur.Status {
	case model.SessionStatusCompleted:
		metrics.IncReconciliation("already_processed")
		return u.priorOutcome(ctx, cur)
	case model.SessionStatusExpired:
		return nil, domain.ErrSessionExpired
	case model.SessionStatusFailed:
		return nil, domain.ErrSessionFailed
	default:
		return nil, domain.ErrConflict
	}
}

func (u *reconcileUC) generateFlideskID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := "FLD-" + ulid.Make().String()
		exists, err := u.subs.ExistsByFlideskID(ctx, repository.NoTX, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		u.log.Warn().Str("flidesk_id", id).Int("attempt", i+1).Msg("flidesk id collision")
	}
	return "", domain.ErrIDGenerationExhausted
}

// notify emits the single confirmation intent. Failures degrade the result
// but never roll back the committed transition.
func (u *reconcileUC) notify(ctx context.Context, intent model.NotificationIntent) bool {
	log := logging.With(ctx, u.log)
	if u.guard != nil {
		first, err := u.guard.FirstAttempt(ctx, intent.SessionID)
		if err != nil {
			// Guard down: proceed and let the notifier dedup by session id.
			log.Warn().Err(err).Str("session_id", intent.SessionID).Msg("notification guard unavailable")
		} else if !first {
			log.Debug().Str("session_id", intent.SessionID).Msg("notification already attempted")
			return false
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, u.notifyTimeout)
	defer cancel()
	if err := u.notifier.Send(sendCtx, intent); err != nil {
		metrics.IncNotification("failed")
		log.Error().Err(err).
			Str("session_id", intent.SessionID).
			Str("email", logging.Redact(intent.Email)).
			Msg("confirmation notification failed")
		return false
	}
	metrics.IncNotification("sent")
	return true
}
