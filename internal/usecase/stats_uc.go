package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (byStatus map[model.SessionStatus]int, subscriptions int, err error)
}

type statsUC struct {
	sessions repository.SessionRepository
	subs     repository.SubscriptionRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(sessions repository.SessionRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{sessions: sessions, subs: subs, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (map[model.SessionStatus]int, int, error) {
	byStatus, err := s.sessions.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, 0, err
	}
	subs, err := s.subs.Count(ctx, repository.NoTX)
	if err != nil {
		return nil, 0, err
	}
	return byStatus, subs, nil
}
