package consumer

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/racing/odds"
	"github.com/radieske/race-pool-platform/internal/shared/kafka"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado pelo loop
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

// Recomputer recalcula as odds provisórias de um páreo (e atualiza o cache)
type Recomputer interface {
	Compute(ctx context.Context, raceID string) (*odds.Snapshot, error)
}

// Broadcaster avisa os assinantes de tempo real
type Broadcaster interface {
	Broadcast(ctx context.Context, u events.OddsUpdate) error
}

// Processor consome bet_placed e recalcula as odds do páreo afetado.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log         *zap.Logger
	Reader      MessageReader
	Odds        Recomputer
	Broadcaster Broadcaster         // opcional
	DLQ         kafka.MessageWriter // opcional

	Retries int
	Backoff time.Duration

	OnConsumed  func()       // métricas (counter++)
	OnRecompute func()       // métricas
	OnBroadcast func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo; termina quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			if !sleep(ctx, p.Backoff) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m.Value)
	}
}

// Handle processa uma mensagem bet_placed; erros só geram log, métrica e DLQ
func (p *Processor) Handle(ctx context.Context, value []byte) {
	var ev events.BetPlaced
	if err := json.Unmarshal(value, &ev); err != nil || ev.RaceID == "" {
		p.Log.Warn("invalid bet_placed message", zap.Error(err))
		p.fail("decode")
		p.toDLQ(ctx, "", value)
		return
	}

	snap, err := p.Odds.Compute(ctx, ev.RaceID)
	for i := 0; err != nil && i < p.Retries && ctx.Err() == nil; i++ {
		if !sleep(ctx, time.Duration(i+1)*p.Backoff) {
			break
		}
		snap, err = p.Odds.Compute(ctx, ev.RaceID)
	}
	if err != nil {
		p.Log.Error("odds recompute failed", zap.String("raceId", ev.RaceID), zap.Error(err))
		p.fail("recompute")
		p.toDLQ(ctx, ev.RaceID, value)
		return
	}
	if p.OnRecompute != nil {
		p.OnRecompute()
	}

	if p.Broadcaster == nil {
		return
	}
	raw, err := json.Marshal(snap.Types)
	if err != nil {
		p.fail("encode")
		return
	}
	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Broadcast(bctx, events.OddsUpdate{RaceID: ev.RaceID, Odds: raw, UpdatedAt: snap.UpdatedAt}); err != nil {
		p.Log.Warn("odds broadcast failed", zap.String("raceId", ev.RaceID), zap.Error(err))
		p.fail("broadcast")
		return
	}
	if p.OnBroadcast != nil {
		p.OnBroadcast()
	}
}

func (p *Processor) toDLQ(ctx context.Context, key string, value []byte) {
	if p.DLQ == nil {
		return
	}
	if err := kafka.WriteJSON(ctx, p.DLQ, key, value); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
