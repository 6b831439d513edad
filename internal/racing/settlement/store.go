package settlement

import (
	"context"
	"errors"

	"github.com/radieske/race-pool-platform/internal/racing/payout"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

var (
	// ErrNotComputed: ApplyPayouts chamado antes de existir resultado para o páreo
	ErrNotComputed = errors.New("payouts not computed")
	// ErrFinishOrderConflict: novo resultado altera colocações já usadas numa apuração gravada
	ErrFinishOrderConflict = errors.New("finish order conflicts with settled result")
)

// PayoutResult é a tabela oficial de uma modalidade no páreo
type PayoutResult struct {
	RaceID  string         `json:"raceId"`
	Type    ticket.Type    `json:"type"`
	Entries []payout.Entry `json:"entries"`
}

// Store abre uma transação; cada fase roda inteira dentro de uma
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx reúne leituras e escritas que a apuração faz dentro da transação
type Tx interface {
	// LockRace trava a linha do páreo (SELECT ... FOR UPDATE)
	LockRace(ctx context.Context, raceID string) (race.Race, error)
	// SetRaceStatus é check-and-set: falha com race.ErrStatusConflict se o status atual não for from
	SetRaceStatus(ctx context.Context, raceID string, from, to race.Status) error

	SaveFinishers(ctx context.Context, raceID string, fs []ticket.Finisher) error
	Finishers(ctx context.Context, raceID string) ([]ticket.Finisher, error)
	// FieldSize é o número de cavalos inscritos; 0 se o elenco não foi cadastrado
	FieldSize(ctx context.Context, raceID string) (int, error)

	PendingBets(ctx context.Context, raceID string) ([]ticket.Bet, error)
	// SettleBet só altera apostas ainda PENDING
	SettleBet(ctx context.Context, betID string, status ticket.Status, payout int64) error

	// SavePayoutResult substitui qualquer rascunho anterior de (raceID, tipo)
	SavePayoutResult(ctx context.Context, res PayoutResult) error
	PayoutResults(ctx context.Context, raceID string) ([]PayoutResult, error)

	UncreditedPayouts(ctx context.Context, raceID string) ([]ticket.Bet, error)
	MarkCredited(ctx context.Context, betID string) error
	Credit(ctx context.Context, walletID string, amount int64, reference string) error
}

// Notifier é a porta de saída para o aviso de apuração (fire-and-forget)
type Notifier interface {
	RaceSettled(ctx context.Context, e events.RaceSettled) error
}
