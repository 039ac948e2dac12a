package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/ports/adapter"
	"flidesk-checkout/internal/domain/ports/repository"
	"flidesk-checkout/internal/infra/metrics"
	"flidesk-checkout/internal/usecase"
)

// SessionReconciler periodically scans stale pending sessions and asks the
// gateway whether they were paid without us seeing the callback. Any capture
// it finds flows through the same reconcile path as a live callback, so the
// idempotency guarantees hold unchanged.
type SessionReconciler struct {
	uc         usecase.ReconcileUseCase
	sessions   repository.SessionRepository
	gateway    adapter.PaymentGateway
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending session must be to re-check
	log        *zerolog.Logger
}

func NewSessionReconciler(uc usecase.ReconcileUseCase, sessions repository.SessionRepository, gateway adapter.PaymentGateway, interval, staleAfter time.Duration, logger *zerolog.Logger) *SessionReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	srLog := logger.With().Str("component", "SessionReconciler").Logger()
	return &SessionReconciler{
		uc:         uc,
		sessions:   sessions,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &srLog,
	}
}

func (w *SessionReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting session reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *SessionReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.sessions.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		metrics.IncWorkerRun("session_reconciler", "error")
		w.log.Error().Err(err).Msg("list stale sessions failed")
		return
	}
	for _, sess := range stale {
		proof, err := w.gateway.CheckStatus(ctx, sess.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				w.log.Warn().Err(err).Str("session_id", sess.ID).Msg("gateway status check failed")
			}
			continue
		}
		res, err := w.uc.Reconcile(ctx, sess.ID, proof)
		if err != nil {
			// Expired sessions are routine here; the sweep owns them.
			if !errors.Is(err, domain.ErrSessionExpired) {
				w.log.Error().Err(err).Str("session_id", sess.ID).Msg("stale session reconcile failed")
			}
			continue
		}
		w.log.Info().
			Str("session_id", sess.ID).
			Str("flidesk_id", res.FlideskID).
			Str("status", string(res.Status)).
			Msg("stale session reconciled")
	}
	metrics.IncWorkerRun("session_reconciler", "ok")
}
