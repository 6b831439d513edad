package ticket

import (
	"fmt"
	"sort"
	"time"
)

// Status é o ciclo de vida de uma aposta: PENDING -> {HIT, LOST, REFUNDED}
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusHit      Status = "HIT"
	StatusLost     Status = "LOST"
	StatusRefunded Status = "REFUNDED"
)

// Terminal indica que a aposta já foi apurada e não muda mais
func (s Status) Terminal() bool {
	return s == StatusHit || s == StatusLost || s == StatusRefunded
}

// Bet é uma aposta imutável; só Status e Payout são preenchidos na apuração
type Bet struct {
	ID         string
	RaceID     string
	UserID     string
	WalletID   string
	PurchaseID string
	Selection  Selection
	Stake      int64
	Status     Status
	Payout     int64
	Credited   bool
	CreatedAt  time.Time
}

// Finisher é uma linha do resultado oficial
type Finisher struct {
	Number   int `json:"number"`
	Bracket  int `json:"bracket"`
	Position int `json:"position"`
}

// NormalizeFinishOrder valida o resultado enviado pelo admin e devolve ordenado por colocação.
// Colocações precisam formar 1..N sem buracos, números e chaves positivos, sem número repetido.
func NormalizeFinishOrder(in []Finisher) ([]Finisher, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFinishOrder)
	}
	out := make([]Finisher, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })

	seen := make(map[int]struct{}, len(out))
	for i, f := range out {
		if f.Number <= 0 || f.Bracket <= 0 {
			return nil, fmt.Errorf("%w: number and bracket must be positive (number=%d bracket=%d)", ErrInvalidFinishOrder, f.Number, f.Bracket)
		}
		if f.Position != i+1 {
			return nil, fmt.Errorf("%w: expected position %d, got %d", ErrInvalidFinishOrder, i+1, f.Position)
		}
		if _, dup := seen[f.Number]; dup {
			return nil, fmt.Errorf("%w: runner %d listed twice", ErrInvalidFinishOrder, f.Number)
		}
		seen[f.Number] = struct{}{}
	}
	return out, nil
}

// BracketCounts conta quantos cavalos existem em cada chave
func BracketCounts(fs []Finisher) map[int]int {
	out := make(map[int]int)
	for _, f := range fs {
		out[f.Bracket]++
	}
	return out
}
