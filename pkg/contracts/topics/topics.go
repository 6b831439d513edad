package topics

const (
	// Apostas
	BetPlaced = "bet_placed"

	// Apuração
	RaceSettled = "race_settled"
	Bet5Settled = "bet5_settled"

	// DLQs
	BetPlacedDLQ = "bet_placed_dlq"
)
