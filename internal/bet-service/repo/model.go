package repo

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// BetColumns é a projeção padrão da tabela bets, na ordem que ScanBet espera
const BetColumns = `id, race_id, user_id, wallet_id, purchase_id, ticket_type, numbers, stake, status, payout, credited, created_at`

// Scanner é satisfeito por *sql.Row e *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// ScanBet lê uma linha de bets e reconstrói a seleção tipada
func ScanBet(s Scanner) (ticket.Bet, error) {
	var (
		b       ticket.Bet
		typ     string
		status  string
		numbers []int64
	)
	if err := s.Scan(&b.ID, &b.RaceID, &b.UserID, &b.WalletID, &b.PurchaseID, &typ,
		pq.Array(&numbers), &b.Stake, &status, &b.Payout, &b.Credited, &b.CreatedAt); err != nil {
		return ticket.Bet{}, err
	}
	t, err := ticket.ParseType(typ)
	if err != nil {
		return ticket.Bet{}, fmt.Errorf("bet %s: %w", b.ID, err)
	}
	nums := make([]int, len(numbers))
	for i, n := range numbers {
		nums[i] = int(n)
	}
	if b.Selection, err = ticket.NewSelection(t, nums); err != nil {
		return ticket.Bet{}, fmt.Errorf("bet %s: %w", b.ID, err)
	}
	b.Status = ticket.Status(status)
	return b, nil
}

// NumbersArg converte a seleção para o parâmetro INT[] do Postgres
func NumbersArg(sel ticket.Selection) any {
	nums := sel.Numbers()
	out := make([]int64, len(nums))
	for i, n := range nums {
		out[i] = int64(n)
	}
	return pq.Array(out)
}
