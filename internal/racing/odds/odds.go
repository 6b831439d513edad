package odds

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/racing/payout"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// Snapshot são as odds provisórias de um páreo num instante. Não vinculantes.
type Snapshot struct {
	RaceID    string            `json:"raceId"`
	Types     []payout.TypeOdds `json:"types"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Source lê as apostas PENDING e os pisos garantidos do páreo
type Source interface {
	PendingBets(ctx context.Context, raceID string) ([]ticket.Bet, error)
	Floors(ctx context.Context, raceID string) (map[ticket.Type]decimal.Decimal, error)
}

// Cache guarda o último snapshot (Redis no deploy)
type Cache interface {
	GetOdds(ctx context.Context, raceID string, dst any) (bool, error)
	SetOdds(ctx context.Context, raceID string, v any) error
}

// Service calcula odds provisórias a partir das apostas atuais
type Service struct {
	log   *zap.Logger
	src   Source
	cache Cache
	rates payout.Rates

	Now func() time.Time

	OnRecomputed func()
	OnCacheHit   func()
}

// NewService: cache pode ser nil
func NewService(log *zap.Logger, src Source, cache Cache, rates payout.Rates) *Service {
	return &Service{log: log, src: src, cache: cache, rates: rates, Now: time.Now}
}

// Compute recalcula do zero e atualiza o cache; falha no cache só gera log
func (s *Service) Compute(ctx context.Context, raceID string) (*Snapshot, error) {
	bets, err := s.src.PendingBets(ctx, raceID)
	if err != nil {
		return nil, err
	}
	floors, err := s.src.Floors(ctx, raceID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		RaceID:    raceID,
		Types:     payout.ProvisionalOdds(bets, s.rates, floors),
		UpdatedAt: s.Now(),
	}
	if s.OnRecomputed != nil {
		s.OnRecomputed()
	}
	if s.cache != nil {
		if err := s.cache.SetOdds(ctx, raceID, snap); err != nil {
			s.log.Warn("odds cache set failed", zap.String("raceId", raceID), zap.Error(err))
		}
	}
	return snap, nil
}

// Current lê do cache e recalcula quando não há snapshot
func (s *Service) Current(ctx context.Context, raceID string) (*Snapshot, error) {
	if s.cache != nil {
		var snap Snapshot
		hit, err := s.cache.GetOdds(ctx, raceID, &snap)
		if err != nil {
			s.log.Warn("odds cache get failed", zap.String("raceId", raceID), zap.Error(err))
		}
		if hit && err == nil {
			if s.OnCacheHit != nil {
				s.OnCacheHit()
			}
			return &snap, nil
		}
	}
	return s.Compute(ctx, raceID)
}
