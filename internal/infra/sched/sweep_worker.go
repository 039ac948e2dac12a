package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"flidesk-checkout/internal/infra/metrics"
	"flidesk-checkout/internal/usecase"
)

// SweepWorker periodically expires overdue pending sessions via the use case.
type SweepWorker struct {
	interval time.Duration
	sessUC   usecase.SessionUseCase
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, sessUC usecase.SessionUseCase, logger *zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	swLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval: interval,
		sessUC:   sessUC,
		log:      &swLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.sessUC.SweepExpired(ctx)
			if err != nil {
				metrics.IncWorkerRun("sweep", "error")
				w.log.Error().Err(err).Msg("sweep worker error")
				continue
			}
			metrics.IncWorkerRun("sweep", "ok")
			if n > 0 {
				w.log.Info().Int("count", n).Msg("expired sessions swept")
			}
		}
	}
}
