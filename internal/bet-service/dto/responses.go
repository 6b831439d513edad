package dto

import (
	"time"

	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

type BetResponse struct {
	BetID      string    `json:"betId"`
	RaceID     string    `json:"raceId"`
	PurchaseID string    `json:"purchaseId"`
	Type       string    `json:"type"`
	Numbers    []int     `json:"numbers"`
	Stake      int64     `json:"stake"`
	Status     string    `json:"status"`
	Payout     int64     `json:"payout"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PlaceBetResponse struct {
	PurchaseID string        `json:"purchaseId"`
	Points     int           `json:"points"`
	TotalStake int64         `json:"total_stake"`
	Bets       []BetResponse `json:"bets"`
}

type PreviewResponse struct {
	Points       int     `json:"points"`
	Combinations [][]int `json:"combinations"`
}

func FromBet(b ticket.Bet) BetResponse {
	return BetResponse{
		BetID:      b.ID,
		RaceID:     b.RaceID,
		PurchaseID: b.PurchaseID,
		Type:       string(b.Selection.Type()),
		Numbers:    b.Selection.Numbers(),
		Stake:      b.Stake,
		Status:     string(b.Status),
		Payout:     b.Payout,
		CreatedAt:  b.CreatedAt,
	}
}

func FromBets(bets []ticket.Bet) []BetResponse {
	out := make([]BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, FromBet(b))
	}
	return out
}
