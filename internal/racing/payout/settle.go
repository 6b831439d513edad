package payout

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// Entry é uma linha da tabela oficial de pagamentos.
// Numbers vazio é a sentinela de devolução (tokubarai).
type Entry struct {
	Numbers      []int `json:"numbers"`
	PayoutPer100 int64 `json:"payoutPer100"`
}

// IsRefund indica a linha sentinela
func (e Entry) IsRefund() bool { return len(e.Numbers) == 0 }

// Outcome é o resultado de uma aposta individual
type Outcome struct {
	BetID  string
	Status ticket.Status
	Payout int64
}

// TypeSettlement é a apuração de uma modalidade inteira
type TypeSettlement struct {
	Type     ticket.Type
	Pool     int64
	Entries  []Entry
	Outcomes []Outcome
	Refunded bool
}

// PaidOut soma o que será creditado
func (s TypeSettlement) PaidOut() int64 {
	var n int64
	for _, o := range s.Outcomes {
		n += o.Payout
	}
	return n
}

// SettleType apura as apostas de uma modalidade contra as tuplas vencedoras.
// O lucro da bolsa líquida é dividido igualmente entre as seleções vencedoras que
// receberam apostas (PLACE/WIDE podem ter mais de uma). Sem nenhum acerto todas as
// apostas são devolvidas a rates.Refund.
func SettleType(t ticket.Type, bets []ticket.Bet, winning [][]int, rates Rates) TypeSettlement {
	res := TypeSettlement{Type: t}
	pool := newPool(t)
	for _, b := range bets {
		pool.add(b)
	}
	res.Pool = pool.Total
	if pool.Total <= 0 {
		return res
	}

	// seleções vencedoras que tiveram aposta, na ordem do resultado
	var hitKeys []string
	var totalWinning int64
	for _, w := range winning {
		k := ticket.Key(w)
		if staked := pool.BySelection[k]; staked > 0 {
			hitKeys = append(hitKeys, k)
			totalWinning += staked
		}
	}

	if len(hitKeys) == 0 {
		res.Refunded = true
		res.Entries = []Entry{{Numbers: []int{}, PayoutPer100: Per100(rates.Refund)}}
		for _, b := range bets {
			res.Outcomes = append(res.Outcomes, Outcome{
				BetID:  b.ID,
				Status: ticket.StatusRefunded,
				Payout: Amount(b.Stake, rates.Refund),
			})
		}
		return res
	}

	net := rates.Net(pool.Total)
	profitEach := net.Sub(decimal.NewFromInt(totalWinning)).Div(decimal.NewFromInt(int64(len(hitKeys))))

	rateByKey := make(map[string]decimal.Decimal, len(hitKeys))
	for _, k := range hitKeys {
		staked := decimal.NewFromInt(pool.BySelection[k])
		rate := PayoutRate(staked.Add(profitEach), staked, rates.SettlementMin)
		rateByKey[k] = rate
		res.Entries = append(res.Entries, Entry{
			Numbers:      pool.selections[k].Numbers(),
			PayoutPer100: Per100(rate),
		})
	}

	for _, b := range bets {
		rate, hit := rateByKey[b.Selection.Key()]
		if !hit {
			res.Outcomes = append(res.Outcomes, Outcome{BetID: b.ID, Status: ticket.StatusLost})
			continue
		}
		res.Outcomes = append(res.Outcomes, Outcome{
			BetID:  b.ID,
			Status: ticket.StatusHit,
			Payout: Amount(b.Stake, rate),
		})
	}
	return res
}
