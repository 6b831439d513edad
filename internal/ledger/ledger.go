package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Operation é o tipo de lançamento no extrato
type Operation string

const (
	OpDebit   Operation = "DEBIT"
	OpCredit  Operation = "CREDIT"
	OpDeposit Operation = "DEPOSIT"
)

// Execer é o subconjunto de *sql.Tx usado aqui; o ledger sempre participa da transação do chamador
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Debit retira amount da carteira e grava o lançamento.
// Idempotente por reference: se o lançamento já existe, não faz nada.
func Debit(ctx context.Context, tx Execer, walletID string, amount int64, reference string) error {
	return post(ctx, tx, walletID, OpDebit, amount, reference)
}

// Credit adiciona amount à carteira e grava o lançamento. Idempotente por reference.
func Credit(ctx context.Context, tx Execer, walletID string, amount int64, reference string) error {
	return post(ctx, tx, walletID, OpCredit, amount, reference)
}

// Deposit é um crédito marcado como aporte do organizador/participante
func Deposit(ctx context.Context, tx Execer, walletID string, amount int64, reference string) error {
	return post(ctx, tx, walletID, OpDeposit, amount, reference)
}

func post(ctx context.Context, tx Execer, walletID string, op Operation, amount int64, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if reference == "" {
		return errors.New("ledger: reference required")
	}

	// Lock pessimista na linha da carteira
	var balance int64
	err := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE id=$1 FOR UPDATE`, walletID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrWalletNotFound
	}
	if err != nil {
		return fmt.Errorf("lock wallet: %w", err)
	}

	// Idempotência: mesma referência já lançada
	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallet_transactions WHERE reference=$1`, reference).Scan(&exists)
	if err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check reference: %w", err)
	}

	delta := amount
	if op == OpDebit {
		if balance < amount {
			return ErrInsufficientFunds
		}
		delta = -amount
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + $1, version = version + 1 WHERE id=$2`,
		delta, walletID); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions(id, wallet_id, operation_type, amount, balance_after, reference)
		VALUES($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), walletID, string(op), amount, balance+delta, reference); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// WalletFor resolve a carteira do participante no meeting, dentro da transação do chamador
func WalletFor(ctx context.Context, tx Execer, userID, meetingID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM wallets WHERE user_id=$1 AND meeting_id=$2`, userID, meetingID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrWalletNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find wallet: %w", err)
	}
	return id, nil
}

// BetRef, PayoutRef e afins padronizam as referências dos lançamentos
func BetRef(betID string) string { return "bet:" + betID }
func PayoutRef(betID string) string { return "payout:" + betID }
func Bet5Ref(ticketID string) string { return "bet5:" + ticketID }
func Bet5PayoutRef(ticketID string) string { return "bet5-payout:" + ticketID }
func Bet5RefundRef(ticketID string) string { return "bet5-refund:" + ticketID }
