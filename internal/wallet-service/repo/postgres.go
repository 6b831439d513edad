package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/shared/db"
)

// Wallet é o saldo de um participante dentro de um meeting
type Wallet struct {
	ID        string
	UserID    string
	MeetingID string
	Balance   int64
}

// Transaction é uma linha imutável do extrato
type Transaction struct {
	ID           string
	WalletID     string
	Operation    ledger.Operation
	Amount       int64
	BalanceAfter int64
	Reference    string
	CreatedAt    time.Time
}

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// GetOrCreateWallet retorna a carteira do participante no meeting, criando se não existir
// Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID, meetingID string) (Wallet, error) {
	w := Wallet{UserID: userID, MeetingID: meetingID}
	err := db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id, balance FROM wallets WHERE user_id=$1 AND meeting_id=$2`,
			userID, meetingID).Scan(&w.ID, &w.Balance)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, meeting_id, balance, version) VALUES($1,$2,$3,0,1)
			 ON CONFLICT (user_id, meeting_id) DO NOTHING`,
			uuid.NewString(), userID, meetingID); err != nil {
			return err
		}
		// outra requisição pode ter criado antes
		return tx.QueryRowContext(ctx,
			`SELECT id, balance FROM wallets WHERE user_id=$1 AND meeting_id=$2`,
			userID, meetingID).Scan(&w.ID, &w.Balance)
	})
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Get lê a carteira pelo id
func (p *Postgres) Get(ctx context.Context, walletID string) (Wallet, error) {
	w := Wallet{ID: walletID}
	err := p.db.QueryRowContext(ctx,
		`SELECT user_id, meeting_id, balance FROM wallets WHERE id=$1`, walletID).
		Scan(&w.UserID, &w.MeetingID, &w.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Wallet{}, ledger.ErrWalletNotFound
	}
	return w, err
}

// Deposit credita saldo e registra no extrato; reference garante que o mesmo aporte não entra duas vezes
// Lock pessimista na linha da carteira via ledger.Deposit
func (p *Postgres) Deposit(ctx context.Context, walletID string, amount int64, reference string) (Wallet, error) {
	if reference == "" {
		reference = "deposit:" + uuid.NewString()
	}
	w := Wallet{ID: walletID}
	err := db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		if err := ledger.Deposit(ctx, tx, walletID, amount, reference); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT user_id, meeting_id, balance FROM wallets WHERE id=$1`, walletID).
			Scan(&w.UserID, &w.MeetingID, &w.Balance)
	})
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Transactions lista o extrato mais recente da carteira
func (p *Postgres) Transactions(ctx context.Context, walletID string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, wallet_id, operation_type, amount, balance_after, reference, created_at
		FROM wallet_transactions
		WHERE wallet_id=$1
		ORDER BY created_at DESC
		LIMIT $2`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var op string
		if err := rows.Scan(&t.ID, &t.WalletID, &op, &t.Amount, &t.BalanceAfter, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Operation = ledger.Operation(op)
		out = append(out, t)
	}
	return out, rows.Err()
}
