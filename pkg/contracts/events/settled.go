package events

import (
	"encoding/json"
	"time"
)

// RaceSettled é emitido pela settlement-service depois que o páreo foi apurado.
// Consumido pela camada de entrega em tempo real (fora deste repositório).
type RaceSettled struct {
	RaceID     string    `json:"race_id"`
	Phase      string    `json:"phase"` // "computed" | "finalized"
	Types      []string  `json:"types"`
	Unresolved []string  `json:"unresolved,omitempty"`
	PaidOut    int64     `json:"paid_out"`
	Ts         time.Time `json:"ts"`
}

// Bet5Settled é emitido quando o BET5 é finalizado
type Bet5Settled struct {
	EventID  string    `json:"event_id"`
	Winners  int       `json:"winners"`
	Dividend int64     `json:"dividend"`
	TotalPot int64     `json:"total_pot"`
	Ts       time.Time `json:"ts"`
}

// OddsUpdate é o payload do broadcast de odds provisórias no Redis
type OddsUpdate struct {
	RaceID    string          `json:"race_id"`
	Odds      json.RawMessage `json:"odds"`
	UpdatedAt time.Time       `json:"updated_at"`
}
