package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/bet5"
	"github.com/radieske/race-pool-platform/internal/shared/db"
)

// Bet5Store implementa bet5.Store sobre as tabelas bet5_events e bet5_tickets
type Bet5Store struct{ db *sql.DB }

func (p *Postgres) Bet5() *Bet5Store { return &Bet5Store{db: p.db} }

func (s *Bet5Store) InTx(ctx context.Context, fn func(bet5.Tx) error) error {
	return db.InTx(ctx, s.db, func(tx *sql.Tx) error { return fn(&bet5Tx{tx: tx}) })
}

type bet5Tx struct{ tx *sql.Tx }

func (t *bet5Tx) InsertEvent(ctx context.Context, e bet5.Event) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO bet5_events (id, meeting_id, race_ids, initial_pot, total_sales, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.MeetingID, pq.Array(e.RaceIDs[:]), e.InitialPot, e.TotalSales, string(e.Status), e.CreatedAt)
	return err
}

func (t *bet5Tx) LockEvent(ctx context.Context, eventID string) (bet5.Event, error) {
	var (
		e      bet5.Event
		races  []string
		status string
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, meeting_id, race_ids, initial_pot, total_sales, status, created_at
		FROM bet5_events WHERE id=$1 FOR UPDATE`, eventID).
		Scan(&e.ID, &e.MeetingID, pq.Array(&races), &e.InitialPot, &e.TotalSales, &status, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return bet5.Event{}, bet5.ErrNotFound
	}
	if err != nil {
		return bet5.Event{}, fmt.Errorf("lock bet5 event: %w", err)
	}
	if len(races) != bet5.Legs {
		return bet5.Event{}, fmt.Errorf("bet5 event %s has %d races", eventID, len(races))
	}
	copy(e.RaceIDs[:], races)
	e.Status = bet5.Status(status)
	return e, nil
}

func (t *bet5Tx) SetStatus(ctx context.Context, eventID string, from, to bet5.Status) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bet5_events SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		eventID, string(from), string(to))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return bet5.ErrStatusConflict
	}
	return nil
}

func (t *bet5Tx) SetInitialPot(ctx context.Context, eventID string, pot int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE bet5_events SET initial_pot=$2, updated_at=now() WHERE id=$1`, eventID, pot)
	return err
}

func (t *bet5Tx) AddSales(ctx context.Context, eventID string, amount int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE bet5_events SET total_sales=total_sales+$2, updated_at=now() WHERE id=$1`, eventID, amount)
	return err
}

func (t *bet5Tx) InsertTicket(ctx context.Context, tk bet5.Ticket) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO bet5_tickets (id, event_id, user_id, wallet_id, leg1, leg2, leg3, leg4, leg5, unit_stake, points, cost, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		tk.ID, tk.EventID, tk.UserID, tk.WalletID,
		legArg(tk.Selections[0]), legArg(tk.Selections[1]), legArg(tk.Selections[2]),
		legArg(tk.Selections[3]), legArg(tk.Selections[4]),
		tk.UnitStake, tk.Points, tk.Cost, tk.CreatedAt)
	return err
}

func (t *bet5Tx) Tickets(ctx context.Context, eventID string) ([]bet5.Ticket, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, event_id, user_id, wallet_id, leg1, leg2, leg3, leg4, leg5,
		       unit_stake, points, cost, won, payout, created_at
		FROM bet5_tickets WHERE event_id=$1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bet5.Ticket
	for rows.Next() {
		var (
			tk   bet5.Ticket
			legs [bet5.Legs][]int64
		)
		if err := rows.Scan(&tk.ID, &tk.EventID, &tk.UserID, &tk.WalletID,
			pq.Array(&legs[0]), pq.Array(&legs[1]), pq.Array(&legs[2]), pq.Array(&legs[3]), pq.Array(&legs[4]),
			&tk.UnitStake, &tk.Points, &tk.Cost, &tk.Won, &tk.Payout, &tk.CreatedAt); err != nil {
			return nil, err
		}
		for i, leg := range legs {
			tk.Selections[i] = make([]int, len(leg))
			for j, n := range leg {
				tk.Selections[i][j] = int(n)
			}
		}
		out = append(out, tk)
	}
	return out, rows.Err()
}

func (t *bet5Tx) SetTicketResult(ctx context.Context, ticketID string, won bool, amount int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE bet5_tickets SET won=$2, payout=$3 WHERE id=$1`, ticketID, won, amount)
	return err
}

// WinnerRows lê a colocação 1 dos páreos ligados; empate aparece como mais de uma linha
func (t *bet5Tx) WinnerRows(ctx context.Context, raceIDs []string) ([]bet5.WinnerRow, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT race_id, running_number FROM race_finishers WHERE position=1 AND race_id = ANY($1)`,
		pq.Array(raceIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bet5.WinnerRow
	for rows.Next() {
		var r bet5.WinnerRow
		if err := rows.Scan(&r.RaceID, &r.Number); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *bet5Tx) WalletFor(ctx context.Context, userID, meetingID string) (string, error) {
	return ledger.WalletFor(ctx, t.tx, userID, meetingID)
}

func (t *bet5Tx) Debit(ctx context.Context, walletID string, amount int64, reference string) error {
	return ledger.Debit(ctx, t.tx, walletID, amount, reference)
}

func (t *bet5Tx) Credit(ctx context.Context, walletID string, amount int64, reference string) error {
	return ledger.Credit(ctx, t.tx, walletID, amount, reference)
}

func legArg(leg []int) any {
	out := make([]int64, len(leg))
	for i, n := range leg {
		out[i] = int64(n)
	}
	return pq.Array(out)
}
