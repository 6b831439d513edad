package producer

import (
	"context"
	"encoding/json"

	"github.com/radieske/race-pool-platform/internal/shared/kafka"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

// KafkaNotifier implementa settlement.Notifier e bet5.Notifier.
// Cada aviso vai para o seu tópico; a entrega em tempo real consome de lá.
type KafkaNotifier struct {
	Races kafka.MessageWriter // race_settled
	Bet5  kafka.MessageWriter // bet5_settled
}

func NewKafkaNotifier(races, bet5 kafka.MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{Races: races, Bet5: bet5}
}

func (n *KafkaNotifier) RaceSettled(ctx context.Context, e events.RaceSettled) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, n.Races, e.RaceID, b)
}

func (n *KafkaNotifier) Bet5Settled(ctx context.Context, e events.Bet5Settled) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, n.Bet5, e.EventID, b)
}
