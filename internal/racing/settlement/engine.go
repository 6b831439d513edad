package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/combo"
	"github.com/radieske/race-pool-platform/internal/racing/payout"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

const (
	PhaseComputed  = "computed"
	PhaseFinalized = "finalized"
)

// Result resume uma execução da apuração
type Result struct {
	RaceID     string         `json:"raceId"`
	Settled    []ticket.Type  `json:"settled"`
	Unresolved []ticket.Type  `json:"unresolved,omitempty"`
	Tables     []PayoutResult `json:"tables"`
	Credits    int            `json:"credits"`
	PaidOut    int64          `json:"paidOut"`
	Finalized  bool           `json:"finalized"`
}

// Engine apura páreos: fase A calcula vencedores e tabelas, fase B credita carteiras
type Engine struct {
	log    *zap.Logger
	store  Store
	notify Notifier
	rates  payout.Rates

	Now func() time.Time

	OnComputed  func(settledTypes int) // métricas
	OnFinalized func()
	OnCredited  func(amount int64)
}

func NewEngine(log *zap.Logger, store Store, notify Notifier, rates payout.Rates) *Engine {
	return &Engine{log: log, store: store, notify: notify, rates: rates, Now: time.Now}
}

// CloseRace encerra as apostas: SCHEDULED -> CLOSED
func (e *Engine) CloseRace(ctx context.Context, raceID string) error {
	err := e.store.InTx(ctx, func(tx Tx) error {
		r, err := tx.LockRace(ctx, raceID)
		if err != nil {
			return err
		}
		if err := r.CheckClosable(); err != nil {
			return err
		}
		return tx.SetRaceStatus(ctx, raceID, race.StatusScheduled, race.StatusClosed)
	})
	if err != nil {
		return err
	}
	e.log.Info("race closed", zap.String("raceId", raceID))
	return nil
}

// ComputePayouts roda só a fase A na sua própria transação
func (e *Engine) ComputePayouts(ctx context.Context, raceID string, finish []ticket.Finisher) (*Result, error) {
	fs, err := ticket.NormalizeFinishOrder(finish)
	if err != nil {
		return nil, err
	}
	res := &Result{RaceID: raceID}
	err = e.store.InTx(ctx, func(tx Tx) error {
		*res = Result{RaceID: raceID}
		return e.computePhase(ctx, tx, raceID, fs, res)
	})
	if err != nil {
		return nil, err
	}
	e.afterCompute(ctx, res, true)
	return res, nil
}

// ApplyPayouts roda só a fase B; reexecutar depois de FINALIZED é rejeitado
func (e *Engine) ApplyPayouts(ctx context.Context, raceID string) (*Result, error) {
	res := &Result{RaceID: raceID}
	err := e.store.InTx(ctx, func(tx Tx) error {
		*res = Result{RaceID: raceID}
		fs, err := tx.Finishers(ctx, raceID)
		if err != nil {
			return err
		}
		if len(fs) == 0 {
			if _, err := lockSettleable(ctx, tx, raceID); err != nil {
				return err
			}
			return ErrNotComputed
		}
		if err := e.applyPhase(ctx, tx, raceID, res); err != nil {
			return err
		}
		res.Tables, err = tx.PayoutResults(ctx, raceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.afterApply(ctx, res)
	return res, nil
}

// FinalizeRace roda as duas fases numa única transação: ou tudo ou nada
func (e *Engine) FinalizeRace(ctx context.Context, raceID string, finish []ticket.Finisher) (*Result, error) {
	fs, err := ticket.NormalizeFinishOrder(finish)
	if err != nil {
		return nil, err
	}
	res := &Result{RaceID: raceID}
	err = e.store.InTx(ctx, func(tx Tx) error {
		*res = Result{RaceID: raceID}
		if err := e.computePhase(ctx, tx, raceID, fs, res); err != nil {
			return err
		}
		return e.applyPhase(ctx, tx, raceID, res)
	})
	if err != nil {
		if !errors.Is(err, race.ErrAlreadyFinalized) {
			e.log.Error("finalize race failed", zap.String("raceId", raceID), zap.Error(err))
		}
		return nil, err
	}
	e.afterCompute(ctx, res, !res.Finalized)
	e.afterApply(ctx, res)
	return res, nil
}

// PayoutResults lê as tabelas persistidas
func (e *Engine) PayoutResults(ctx context.Context, raceID string) ([]PayoutResult, error) {
	var out []PayoutResult
	err := e.store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.PayoutResults(ctx, raceID)
		return err
	})
	return out, err
}

func lockSettleable(ctx context.Context, tx Tx, raceID string) (race.Race, error) {
	r, err := tx.LockRace(ctx, raceID)
	if err != nil {
		return race.Race{}, err
	}
	return r, r.CheckSettleable()
}

// computePhase: apura vencedores por modalidade, marca as apostas e grava as tabelas.
// Modalidades sem colocações suficientes ficam PENDING e saem em Unresolved.
func (e *Engine) computePhase(ctx context.Context, tx Tx, raceID string, fs []ticket.Finisher, res *Result) error {
	if _, err := lockSettleable(ctx, tx, raceID); err != nil {
		return err
	}
	if err := checkFinishOrder(ctx, tx, raceID, fs); err != nil {
		return err
	}
	if err := tx.SaveFinishers(ctx, raceID, fs); err != nil {
		return fmt.Errorf("save finishers: %w", err)
	}
	fieldSize, err := tx.FieldSize(ctx, raceID)
	if err != nil {
		return fmt.Errorf("field size: %w", err)
	}

	bets, err := tx.PendingBets(ctx, raceID)
	if err != nil {
		return fmt.Errorf("pending bets: %w", err)
	}
	byType := make(map[ticket.Type][]ticket.Bet)
	for _, b := range bets {
		byType[b.Selection.Type()] = append(byType[b.Selection.Type()], b)
	}

	for _, t := range ticket.Types() {
		group, ok := byType[t]
		if !ok {
			continue
		}
		winning, resolved := combo.WinningTuplesInField(t, fs, fieldSize)
		if !resolved {
			res.Unresolved = append(res.Unresolved, t)
			e.log.Warn("ticket type unresolved",
				zap.String("raceId", raceID), zap.String("type", string(t)), zap.Int("finishers", len(fs)))
			continue
		}

		ts := payout.SettleType(t, group, winning, e.rates)
		for _, o := range ts.Outcomes {
			if err := tx.SettleBet(ctx, o.BetID, o.Status, o.Payout); err != nil {
				return fmt.Errorf("settle bet %s: %w", o.BetID, err)
			}
		}
		if err := tx.SavePayoutResult(ctx, PayoutResult{RaceID: raceID, Type: t, Entries: ts.Entries}); err != nil {
			return fmt.Errorf("save payout %s: %w", t, err)
		}
		res.Settled = append(res.Settled, t)

		e.log.Info("ticket type settled",
			zap.String("raceId", raceID),
			zap.String("type", string(t)),
			zap.Int64("pool", ts.Pool),
			zap.Int64("paidOut", ts.PaidOut()),
			zap.Bool("refunded", ts.Refunded))
	}

	res.Tables, err = tx.PayoutResults(ctx, raceID)
	return err
}

// checkFinishOrder: depois que alguma modalidade foi apurada, a reexecução só pode
// acrescentar colocações. Cada posição já gravada mantém cavalo e chave.
func checkFinishOrder(ctx context.Context, tx Tx, raceID string, fs []ticket.Finisher) error {
	prev, err := tx.Finishers(ctx, raceID)
	if err != nil {
		return fmt.Errorf("finishers: %w", err)
	}
	if len(prev) == 0 {
		return nil
	}
	settled, err := tx.PayoutResults(ctx, raceID)
	if err != nil {
		return fmt.Errorf("payout results: %w", err)
	}
	if len(settled) == 0 {
		return nil
	}
	if len(fs) < len(prev) {
		return fmt.Errorf("%w: %d places recorded, got %d", ErrFinishOrderConflict, len(prev), len(fs))
	}
	for i, p := range prev {
		if fs[i] != p {
			return fmt.Errorf("%w: position %d was runner %d, got %d", ErrFinishOrderConflict, p.Position, p.Number, fs[i].Number)
		}
	}
	return nil
}

// applyPhase credita cada aposta com pagamento ainda não creditado e finaliza o páreo
// quando não sobra aposta PENDING. O crédito é idempotente pela referência da aposta.
func (e *Engine) applyPhase(ctx context.Context, tx Tx, raceID string, res *Result) error {
	if _, err := lockSettleable(ctx, tx, raceID); err != nil {
		return err
	}

	due, err := tx.UncreditedPayouts(ctx, raceID)
	if err != nil {
		return fmt.Errorf("uncredited payouts: %w", err)
	}
	for _, b := range due {
		if b.Payout <= 0 {
			continue
		}
		if err := tx.Credit(ctx, b.WalletID, b.Payout, ledger.PayoutRef(b.ID)); err != nil {
			return fmt.Errorf("credit bet %s: %w", b.ID, err)
		}
		if err := tx.MarkCredited(ctx, b.ID); err != nil {
			return err
		}
		res.Credits++
		res.PaidOut += b.Payout
	}

	pending, err := tx.PendingBets(ctx, raceID)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return nil
	}
	if err := tx.SetRaceStatus(ctx, raceID, race.StatusClosed, race.StatusFinalized); err != nil {
		return err
	}
	res.Finalized = true
	return nil
}

func (e *Engine) afterCompute(ctx context.Context, res *Result, notify bool) {
	if e.OnComputed != nil {
		e.OnComputed(len(res.Settled))
	}
	if notify {
		e.publish(ctx, res, PhaseComputed)
	}
}

func (e *Engine) afterApply(ctx context.Context, res *Result) {
	if e.OnCredited != nil && res.PaidOut > 0 {
		e.OnCredited(res.PaidOut)
	}
	if !res.Finalized {
		return
	}
	e.log.Info("race finalized",
		zap.String("raceId", res.RaceID), zap.Int("credits", res.Credits), zap.Int64("paidOut", res.PaidOut))
	if e.OnFinalized != nil {
		e.OnFinalized()
	}
	e.publish(ctx, res, PhaseFinalized)
}

// publish avisa fora da transação; falha só gera log
func (e *Engine) publish(ctx context.Context, res *Result, phase string) {
	if e.notify == nil {
		return
	}
	ev := events.RaceSettled{
		RaceID:  res.RaceID,
		Phase:   phase,
		PaidOut: res.PaidOut,
		Ts:      e.Now(),
	}
	for _, t := range res.Settled {
		ev.Types = append(ev.Types, string(t))
	}
	for _, t := range res.Unresolved {
		ev.Unresolved = append(ev.Unresolved, string(t))
	}
	if err := e.notify.RaceSettled(ctx, ev); err != nil {
		e.log.Warn("notify race settled failed", zap.String("raceId", res.RaceID), zap.Error(err))
	}
}
