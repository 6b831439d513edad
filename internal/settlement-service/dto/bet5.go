package dto

type CreateBet5Request struct {
	MeetingID  string   `json:"meetingId"`
	RaceIDs    []string `json:"raceIds"`
	InitialPot int64    `json:"initialPot"`
}

type UpdatePotRequest struct {
	InitialPot int64 `json:"initialPot"`
}

type Bet5TicketRequest struct {
	UserID     string  `json:"userId"`
	Selections [][]int `json:"selections"`
}

// SettleBet5Request: carryover vem de eventos anteriores sem vencedor
type SettleBet5Request struct {
	Carryover int64 `json:"carryover"`
}

type CancelBet5Response struct {
	EventID  string `json:"eventId"`
	Refunded int    `json:"refunded"`
}
