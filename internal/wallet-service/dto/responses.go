package dto

import "time"

type WalletResponse struct {
	WalletID  string `json:"walletId"`
	UserID    string `json:"userId"`
	MeetingID string `json:"meetingId"`
	Balance   int64  `json:"balance"`
}

type TransactionResponse struct {
	ID           string    `json:"id"`
	Operation    string    `json:"operation"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balanceAfter"`
	Reference    string    `json:"reference"`
	CreatedAt    time.Time `json:"createdAt"`
}
