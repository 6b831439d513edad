package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/internal/racing/wager"
	"github.com/radieske/race-pool-platform/internal/shared/db"
)

// ErrBetNotFound quando o id não existe
var ErrBetNotFound = errors.New("bet not found")

// Postgres implementa a persistência de apostas em banco Postgres.
// Serve de wager.Store para a compra e de odds.Source para as odds provisórias.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InTx implementa wager.Store
func (p *Postgres) InTx(ctx context.Context, fn func(wager.Tx) error) error {
	return db.InTx(ctx, p.db, func(tx *sql.Tx) error { return fn(&pgTx{tx: tx}) })
}

type pgTx struct{ tx *sql.Tx }

// LockRace trava o páreo; serializa a compra com o fechamento
func (t *pgTx) LockRace(ctx context.Context, raceID string) (race.Race, error) {
	return LockRace(ctx, t.tx, raceID)
}

func (t *pgTx) Roster(ctx context.Context, raceID string) (map[int]int, error) {
	return Roster(ctx, t.tx, raceID)
}

func (t *pgTx) WalletFor(ctx context.Context, userID, meetingID string) (string, error) {
	return ledger.WalletFor(ctx, t.tx, userID, meetingID)
}

func (t *pgTx) Debit(ctx context.Context, walletID string, amount int64, reference string) error {
	return ledger.Debit(ctx, t.tx, walletID, amount, reference)
}

func (t *pgTx) InsertBets(ctx context.Context, bets []ticket.Bet) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO bets (id, race_id, user_id, wallet_id, purchase_id, ticket_type, numbers, stake, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bets {
		if _, err := stmt.ExecContext(ctx,
			b.ID, b.RaceID, b.UserID, b.WalletID, b.PurchaseID,
			string(b.Selection.Type()), NumbersArg(b.Selection), b.Stake, string(b.Status), b.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert bet %s: %w", b.ID, err)
		}
	}
	return nil
}

// LockRace é compartilhado com a settlement-service (SELECT ... FOR UPDATE)
func LockRace(ctx context.Context, tx *sql.Tx, raceID string) (race.Race, error) {
	var (
		r        race.Race
		status   string
		closesAt sql.NullTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, meeting_id, status, closes_at FROM races WHERE id=$1 FOR UPDATE`, raceID).
		Scan(&r.ID, &r.MeetingID, &status, &closesAt)
	if errors.Is(err, sql.ErrNoRows) {
		return race.Race{}, race.ErrNotFound
	}
	if err != nil {
		return race.Race{}, fmt.Errorf("lock race: %w", err)
	}
	r.Status = race.Status(status)
	if closesAt.Valid {
		r.ClosesAt = closesAt.Time
	}
	return r, nil
}

// Roster lê o elenco do páreo (número -> chave); também usado pela settlement-service
func Roster(ctx context.Context, tx *sql.Tx, raceID string) (map[int]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT running_number, bracket FROM runners WHERE race_id=$1`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var number, bracket int
		if err := rows.Scan(&number, &bracket); err != nil {
			return nil, err
		}
		out[number] = bracket
	}
	return out, rows.Err()
}

// PendingBets implementa odds.Source
func (p *Postgres) PendingBets(ctx context.Context, raceID string) ([]ticket.Bet, error) {
	return p.queryBets(ctx, `SELECT `+BetColumns+` FROM bets WHERE race_id=$1 AND status='PENDING' ORDER BY id`, raceID)
}

// Floors implementa odds.Source: pisos garantidos configurados para o páreo
func (p *Postgres) Floors(ctx context.Context, raceID string) (map[ticket.Type]decimal.Decimal, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ticket_type, min_rate FROM race_odds_floors WHERE race_id=$1`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[ticket.Type]decimal.Decimal)
	for rows.Next() {
		var typ string
		var rate decimal.Decimal
		if err := rows.Scan(&typ, &rate); err != nil {
			return nil, err
		}
		t, err := ticket.ParseType(typ)
		if err != nil {
			return nil, err
		}
		out[t] = rate
	}
	return out, rows.Err()
}

// GetBet retorna uma aposta pelo id
func (p *Postgres) GetBet(ctx context.Context, betID string) (ticket.Bet, error) {
	b, err := ScanBet(p.db.QueryRowContext(ctx, `SELECT `+BetColumns+` FROM bets WHERE id=$1`, betID))
	if errors.Is(err, sql.ErrNoRows) {
		return ticket.Bet{}, ErrBetNotFound
	}
	return b, err
}

// BetsByPurchase lista as apostas geradas por uma compra
func (p *Postgres) BetsByPurchase(ctx context.Context, purchaseID string) ([]ticket.Bet, error) {
	return p.queryBets(ctx, `SELECT `+BetColumns+` FROM bets WHERE purchase_id=$1 ORDER BY id`, purchaseID)
}

func (p *Postgres) queryBets(ctx context.Context, q string, args ...any) ([]ticket.Bet, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ticket.Bet
	for rows.Next() {
		b, err := ScanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
