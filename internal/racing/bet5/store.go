package bet5

import (
	"context"

	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

// Store abre a transação; cada operação do BET5 roda inteira dentro de uma
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx é o que o motor do BET5 lê e grava dentro da transação
type Tx interface {
	InsertEvent(ctx context.Context, e Event) error
	// LockEvent trava a linha do evento (SELECT ... FOR UPDATE)
	LockEvent(ctx context.Context, eventID string) (Event, error)
	// SetStatus é check-and-set: falha com ErrStatusConflict se o status atual não for from
	SetStatus(ctx context.Context, eventID string, from, to Status) error
	SetInitialPot(ctx context.Context, eventID string, pot int64) error
	AddSales(ctx context.Context, eventID string, amount int64) error

	InsertTicket(ctx context.Context, t Ticket) error
	Tickets(ctx context.Context, eventID string) ([]Ticket, error)
	SetTicketResult(ctx context.Context, ticketID string, won bool, payout int64) error

	// WinnerRows lê as linhas de colocação 1 dos páreos informados
	WinnerRows(ctx context.Context, raceIDs []string) ([]WinnerRow, error)

	WalletFor(ctx context.Context, userID, meetingID string) (string, error)
	Debit(ctx context.Context, walletID string, amount int64, reference string) error
	Credit(ctx context.Context, walletID string, amount int64, reference string) error
}

// Notifier é a porta de saída do aviso "BET5 apurado"
type Notifier interface {
	Bet5Settled(ctx context.Context, e events.Bet5Settled) error
}
