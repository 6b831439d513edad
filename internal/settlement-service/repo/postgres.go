package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	betrepo "github.com/radieske/race-pool-platform/internal/bet-service/repo"
	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/settlement"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/internal/shared/db"
)

// Postgres implementa settlement.Store; o BET5 usa o mesmo banco via Bet5()
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InTx implementa settlement.Store
func (p *Postgres) InTx(ctx context.Context, fn func(settlement.Tx) error) error {
	return db.InTx(ctx, p.db, func(tx *sql.Tx) error { return fn(&settleTx{tx: tx}) })
}

type settleTx struct{ tx *sql.Tx }

func (t *settleTx) LockRace(ctx context.Context, raceID string) (race.Race, error) {
	return betrepo.LockRace(ctx, t.tx, raceID)
}

func (t *settleTx) SetRaceStatus(ctx context.Context, raceID string, from, to race.Status) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE races SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		raceID, string(from), string(to))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return race.ErrStatusConflict
	}
	return nil
}

// SaveFinishers substitui o resultado anterior (reexecução da fase A)
func (t *settleTx) SaveFinishers(ctx context.Context, raceID string, fs []ticket.Finisher) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM race_finishers WHERE race_id=$1`, raceID); err != nil {
		return err
	}
	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT INTO race_finishers (race_id, running_number, bracket, position) VALUES ($1,$2,$3,$4)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range fs {
		if _, err := stmt.ExecContext(ctx, raceID, f.Number, f.Bracket, f.Position); err != nil {
			return fmt.Errorf("insert finisher %d: %w", f.Number, err)
		}
	}
	return nil
}

func (t *settleTx) Finishers(ctx context.Context, raceID string) ([]ticket.Finisher, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT running_number, bracket, position FROM race_finishers WHERE race_id=$1 ORDER BY position, running_number`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ticket.Finisher
	for rows.Next() {
		var f ticket.Finisher
		if err := rows.Scan(&f.Number, &f.Bracket, &f.Position); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (t *settleTx) FieldSize(ctx context.Context, raceID string) (int, error) {
	roster, err := betrepo.Roster(ctx, t.tx, raceID)
	if err != nil {
		return 0, err
	}
	return len(roster), nil
}

func (t *settleTx) PendingBets(ctx context.Context, raceID string) ([]ticket.Bet, error) {
	return t.queryBets(ctx,
		`SELECT `+betrepo.BetColumns+` FROM bets WHERE race_id=$1 AND status='PENDING' ORDER BY id FOR UPDATE`, raceID)
}

func (t *settleTx) SettleBet(ctx context.Context, betID string, status ticket.Status, amount int64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bets SET status=$2, payout=$3, updated_at=now() WHERE id=$1 AND status='PENDING'`,
		betID, string(status), amount)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("bet %s is no longer pending", betID)
	}
	return nil
}

func (t *settleTx) SavePayoutResult(ctx context.Context, r settlement.PayoutResult) error {
	entries, err := json.Marshal(r.Entries)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO payout_results (race_id, ticket_type, entries, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (race_id, ticket_type) DO UPDATE SET entries=EXCLUDED.entries, updated_at=now()`,
		r.RaceID, string(r.Type), entries)
	return err
}

func (t *settleTx) PayoutResults(ctx context.Context, raceID string) ([]settlement.PayoutResult, error) {
	return payoutResults(ctx, t.tx, raceID)
}

func (t *settleTx) UncreditedPayouts(ctx context.Context, raceID string) ([]ticket.Bet, error) {
	return t.queryBets(ctx, `
		SELECT `+betrepo.BetColumns+` FROM bets
		WHERE race_id=$1 AND status IN ('HIT','REFUNDED') AND payout > 0 AND NOT credited
		ORDER BY id FOR UPDATE`, raceID)
}

func (t *settleTx) MarkCredited(ctx context.Context, betID string) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE bets SET credited=true, updated_at=now() WHERE id=$1`, betID)
	return err
}

func (t *settleTx) Credit(ctx context.Context, walletID string, amount int64, reference string) error {
	return ledger.Credit(ctx, t.tx, walletID, amount, reference)
}

func (t *settleTx) queryBets(ctx context.Context, q string, args ...any) ([]ticket.Bet, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ticket.Bet
	for rows.Next() {
		b, err := betrepo.ScanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func payoutResults(ctx context.Context, q querier, raceID string) ([]settlement.PayoutResult, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ticket_type, entries FROM payout_results WHERE race_id=$1`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byType := make(map[ticket.Type]settlement.PayoutResult)
	for rows.Next() {
		var (
			typ string
			raw []byte
		)
		if err := rows.Scan(&typ, &raw); err != nil {
			return nil, err
		}
		tt, err := ticket.ParseType(typ)
		if err != nil {
			return nil, err
		}
		r := settlement.PayoutResult{RaceID: raceID, Type: tt}
		if err := json.Unmarshal(raw, &r.Entries); err != nil {
			return nil, fmt.Errorf("payout %s/%s: %w", raceID, typ, err)
		}
		byType[tt] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// ordem fixa das modalidades
	var out []settlement.PayoutResult
	for _, tt := range ticket.Types() {
		if r, ok := byType[tt]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetFloor grava (ou remove, com rate zero) o piso garantido de odds de uma modalidade
func (p *Postgres) SetFloor(ctx context.Context, raceID string, t ticket.Type, rate decimal.Decimal) error {
	return db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		if _, err := betrepo.LockRace(ctx, tx, raceID); err != nil {
			return err
		}
		if rate.IsZero() {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM race_odds_floors WHERE race_id=$1 AND ticket_type=$2`, raceID, string(t))
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO race_odds_floors (race_id, ticket_type, min_rate) VALUES ($1,$2,$3)
			ON CONFLICT (race_id, ticket_type) DO UPDATE SET min_rate=EXCLUDED.min_rate`,
			raceID, string(t), rate.Round(1))
		return err
	})
}
