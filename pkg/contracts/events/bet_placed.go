package events

// BetPlaced é publicado pelo bet-service depois que a compra foi confirmada no banco.
// O odds-worker consome para recalcular as odds provisórias do páreo.
type BetPlaced struct {
	PurchaseID string `json:"purchase_id"`
	RaceID     string `json:"race_id"`
	UserID     string `json:"user_id"`
	TicketType string `json:"ticket_type"`
	Points     int    `json:"points"`
	UnitStake  int64  `json:"unit_stake"`
	TotalStake int64  `json:"total_stake"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
