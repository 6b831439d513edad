package producer

import (
	"context"
	"encoding/json"

	"github.com/radieske/race-pool-platform/internal/shared/kafka"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

// KafkaPublisher publica bet_placed; a chave é o raceId para manter a ordem por páreo
type KafkaPublisher struct {
	Writer kafka.MessageWriter
}

func NewKafkaPublisher(w kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, p.Writer, e.RaceID, b)
}
