package dto

import "github.com/radieske/race-pool-platform/internal/racing/ticket"

// FinishOrderRequest é o resultado oficial enviado pelo admin
type FinishOrderRequest struct {
	Finishers []ticket.Finisher `json:"finishers"`
}

// OddsFloorRequest: rate "0" remove o piso
type OddsFloorRequest struct {
	Type string `json:"type"`
	Rate string `json:"rate"`
}
