package dto

type DepositRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"` // opcional p/ idempotência simples
}
