package bet5

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

// CreateRequest cria um evento BET5
type CreateRequest struct {
	MeetingID  string
	RaceIDs    [Legs]string
	InitialPot int64
}

// TicketRequest compra um bilhete: um conjunto de candidatos por páreo ligado
type TicketRequest struct {
	EventID    string
	UserID     string
	Selections [][]int
}

// SettleResult é o resultado de Settle. Resolved=false quando algum páreo ainda
// não tem vencedor único; AlreadyFinalized quando o evento já estava apurado.
type SettleResult struct {
	EventID          string    `json:"eventId"`
	Resolved         bool      `json:"resolved"`
	AlreadyFinalized bool      `json:"alreadyFinalized"`
	WinningNumbers   [Legs]int `json:"winningNumbers"`
	Winners          int       `json:"winners"`
	Dividend         int64     `json:"dividend"`
	TotalPot         int64     `json:"totalPot"`
}

// Engine é o motor da bolsa BET5: sem retenção, bolsa inteira dividida entre os acertadores
type Engine struct {
	log       *zap.Logger
	store     Store
	notify    Notifier
	unitStake int64

	Now   func() time.Time
	NewID func() string

	OnTicket  func(points int) // métricas
	OnSettled func(winners int, paid int64)
}

func NewEngine(log *zap.Logger, store Store, notify Notifier, unitStake int64) *Engine {
	return &Engine{
		log:       log,
		store:     store,
		notify:    notify,
		unitStake: unitStake,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// UnitStake é o valor por ponto do deploy
func (e *Engine) UnitStake() int64 { return e.unitStake }

// CreateEvent liga cinco páreos distintos a um aporte inicial; começa SCHEDULED
func (e *Engine) CreateEvent(ctx context.Context, req CreateRequest) (*Event, error) {
	if req.MeetingID == "" {
		return nil, fmt.Errorf("%w: meeting required", ErrInvalidEvent)
	}
	if err := validateRaces(req.RaceIDs); err != nil {
		return nil, err
	}
	if req.InitialPot < 0 {
		return nil, fmt.Errorf("%w: negative pot", ErrInvalidEvent)
	}
	ev := Event{
		ID:         e.NewID(),
		MeetingID:  req.MeetingID,
		RaceIDs:    req.RaceIDs,
		InitialPot: req.InitialPot,
		Status:     StatusScheduled,
		CreatedAt:  e.Now(),
	}
	if err := e.store.InTx(ctx, func(tx Tx) error { return tx.InsertEvent(ctx, ev) }); err != nil {
		return nil, err
	}
	e.log.Info("bet5 event created", zap.String("eventId", ev.ID), zap.Int64("initialPot", ev.InitialPot))
	return &ev, nil
}

// Event lê o evento
func (e *Engine) Event(ctx context.Context, eventID string) (*Event, error) {
	var ev Event
	err := e.store.InTx(ctx, func(tx Tx) error {
		var err error
		ev, err = tx.LockEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Tickets lista os bilhetes do evento
func (e *Engine) Tickets(ctx context.Context, eventID string) ([]Ticket, error) {
	var out []Ticket
	err := e.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockEvent(ctx, eventID); err != nil {
			return err
		}
		var err error
		out, err = tx.Tickets(ctx, eventID)
		return err
	})
	return out, err
}

// UpdatePot altera o aporte do organizador; permitido até a apuração
func (e *Engine) UpdatePot(ctx context.Context, eventID string, pot int64) (*Event, error) {
	if pot < 0 {
		return nil, fmt.Errorf("%w: negative pot", ErrInvalidEvent)
	}
	var ev Event
	err := e.store.InTx(ctx, func(tx Tx) error {
		var err error
		if ev, err = tx.LockEvent(ctx, eventID); err != nil {
			return err
		}
		switch ev.Status {
		case StatusFinalized:
			return ErrFinalized
		case StatusCancelled:
			return ErrCancelled
		}
		ev.InitialPot = pot
		return tx.SetInitialPot(ctx, eventID, pot)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("bet5 pot updated", zap.String("eventId", eventID), zap.Int64("initialPot", pot))
	return &ev, nil
}

// PlaceTicket debita o custo (pontos x valor unitário) e grava o bilhete na mesma transação
func (e *Engine) PlaceTicket(ctx context.Context, req TicketRequest) (*Ticket, error) {
	if req.UserID == "" || req.EventID == "" {
		return nil, fmt.Errorf("%w: event and user required", ErrInvalidTicket)
	}
	sels, points, err := NormalizeSelections(req.Selections)
	if err != nil {
		return nil, err
	}
	t := Ticket{
		ID:         e.NewID(),
		EventID:    req.EventID,
		UserID:     req.UserID,
		Selections: sels,
		UnitStake:  e.unitStake,
		Points:     points,
		Cost:       int64(points) * e.unitStake,
		CreatedAt:  e.Now(),
	}
	if t.Cost <= 0 {
		return nil, fmt.Errorf("%w: non-positive cost", ErrInvalidTicket)
	}

	err = e.store.InTx(ctx, func(tx Tx) error {
		ev, err := tx.LockEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if ev.Status != StatusScheduled {
			return ErrNotScheduled
		}
		if t.WalletID, err = tx.WalletFor(ctx, req.UserID, ev.MeetingID); err != nil {
			return err
		}
		if err := tx.Debit(ctx, t.WalletID, t.Cost, ledger.Bet5Ref(t.ID)); err != nil {
			return err
		}
		if err := tx.InsertTicket(ctx, t); err != nil {
			return err
		}
		return tx.AddSales(ctx, req.EventID, t.Cost)
	})
	if err != nil {
		if !errors.Is(err, ErrNotScheduled) && !errors.Is(err, ErrNotFound) {
			e.log.Warn("bet5 ticket failed", zap.String("eventId", req.EventID), zap.String("userId", req.UserID), zap.Error(err))
		}
		return nil, err
	}

	e.log.Info("bet5 ticket placed",
		zap.String("eventId", req.EventID),
		zap.String("ticketId", t.ID),
		zap.Int("points", t.Points),
		zap.Int64("cost", t.Cost))
	if e.OnTicket != nil {
		e.OnTicket(t.Points)
	}
	return &t, nil
}

// Close encerra as vendas: SCHEDULED -> CLOSED
func (e *Engine) Close(ctx context.Context, eventID string) error {
	err := e.store.InTx(ctx, func(tx Tx) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		switch ev.Status {
		case StatusScheduled:
		case StatusFinalized:
			return ErrFinalized
		case StatusCancelled:
			return ErrCancelled
		default:
			return ErrStatusConflict
		}
		return tx.SetStatus(ctx, eventID, StatusScheduled, StatusClosed)
	})
	if err != nil {
		return err
	}
	e.log.Info("bet5 event closed", zap.String("eventId", eventID))
	return nil
}

// Cancel cancela um evento ainda não apurado e devolve o custo de cada bilhete
func (e *Engine) Cancel(ctx context.Context, eventID string) (int, error) {
	refunded := 0
	err := e.store.InTx(ctx, func(tx Tx) error {
		refunded = 0
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		switch ev.Status {
		case StatusScheduled, StatusClosed:
		case StatusFinalized:
			return ErrFinalized
		default:
			return ErrCancelled
		}
		tickets, err := tx.Tickets(ctx, eventID)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if err := tx.Credit(ctx, t.WalletID, t.Cost, ledger.Bet5RefundRef(t.ID)); err != nil {
				return fmt.Errorf("refund ticket %s: %w", t.ID, err)
			}
			refunded++
		}
		return tx.SetStatus(ctx, eventID, ev.Status, StatusCancelled)
	})
	if err != nil {
		return 0, err
	}
	e.log.Info("bet5 event cancelled", zap.String("eventId", eventID), zap.Int("refunded", refunded))
	return refunded, nil
}

// Settle apura o evento: bolsa total = aporte + vendas + carryover, dividida igualmente
// entre os bilhetes vencedores. Sem vencedor nada é creditado e a bolsa fica para o
// próximo evento. Depois de FINALIZED reexecutar é no-op com AlreadyFinalized.
func (e *Engine) Settle(ctx context.Context, eventID string, carryover int64) (*SettleResult, error) {
	if carryover < 0 {
		return nil, fmt.Errorf("%w: negative carryover", ErrInvalidEvent)
	}
	res := &SettleResult{EventID: eventID}
	var credits []Ticket
	err := e.store.InTx(ctx, func(tx Tx) error {
		*res = SettleResult{EventID: eventID}
		credits = nil

		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		switch ev.Status {
		case StatusFinalized:
			res.AlreadyFinalized = true
			res.TotalPot = ev.Pot()
			return nil
		case StatusClosed:
		case StatusCancelled:
			return ErrCancelled
		default:
			return ErrNotClosed
		}

		rows, err := tx.WinnerRows(ctx, ev.RaceIDs[:])
		if err != nil {
			return fmt.Errorf("winner rows: %w", err)
		}
		winners, ok := ResolveWinners(ev.RaceIDs, rows)
		if !ok {
			return nil
		}
		res.Resolved = true
		res.WinningNumbers = winners
		res.TotalPot = ev.Pot() + carryover

		tickets, err := tx.Tickets(ctx, eventID)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if t.Wins(winners) {
				credits = append(credits, t)
			}
		}
		res.Winners = len(credits)
		if res.Winners > 0 {
			res.Dividend = res.TotalPot / int64(res.Winners)
		}

		for _, t := range tickets {
			won := t.Wins(winners)
			var amount int64
			if won {
				amount = res.Dividend
			}
			if err := tx.SetTicketResult(ctx, t.ID, won, amount); err != nil {
				return err
			}
			if won && amount > 0 {
				if err := tx.Credit(ctx, t.WalletID, amount, ledger.Bet5PayoutRef(t.ID)); err != nil {
					return fmt.Errorf("credit ticket %s: %w", t.ID, err)
				}
			}
		}
		return tx.SetStatus(ctx, eventID, StatusClosed, StatusFinalized)
	})
	if err != nil {
		e.log.Error("bet5 settle failed", zap.String("eventId", eventID), zap.Error(err))
		return nil, err
	}

	switch {
	case res.AlreadyFinalized:
		e.log.Info("bet5 already finalized", zap.String("eventId", eventID))
		return res, nil
	case !res.Resolved:
		e.log.Warn("bet5 unresolved", zap.String("eventId", eventID))
		return res, nil
	}

	e.log.Info("bet5 settled",
		zap.String("eventId", eventID),
		zap.Int("winners", res.Winners),
		zap.Int64("dividend", res.Dividend),
		zap.Int64("totalPot", res.TotalPot))
	if e.OnSettled != nil {
		e.OnSettled(res.Winners, res.Dividend*int64(res.Winners))
	}
	if e.notify != nil {
		if err := e.notify.Bet5Settled(ctx, events.Bet5Settled{
			EventID:  eventID,
			Winners:  res.Winners,
			Dividend: res.Dividend,
			TotalPot: res.TotalPot,
			Ts:       e.Now(),
		}); err != nil {
			e.log.Warn("notify bet5 settled failed", zap.String("eventId", eventID), zap.Error(err))
		}
	}
	return res, nil
}
