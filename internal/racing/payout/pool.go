package payout

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// Pool é derivado das apostas: total da modalidade e total por seleção canônica
type Pool struct {
	Type        ticket.Type
	Total       int64
	BySelection map[string]int64
	selections  map[string]ticket.Selection
}

func newPool(t ticket.Type) *Pool {
	return &Pool{
		Type:        t,
		BySelection: make(map[string]int64),
		selections:  make(map[string]ticket.Selection),
	}
}

func (p *Pool) add(b ticket.Bet) {
	k := b.Selection.Key()
	p.Total += b.Stake
	p.BySelection[k] += b.Stake
	p.selections[k] = b.Selection
}

// Keys devolve as seleções em ordem estável
func (p *Pool) Keys() []string {
	keys := make([]string, 0, len(p.BySelection))
	for k := range p.BySelection {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildPools agrega as apostas por modalidade
func BuildPools(bets []ticket.Bet) map[ticket.Type]*Pool {
	out := make(map[ticket.Type]*Pool)
	for _, b := range bets {
		t := b.Selection.Type()
		p, ok := out[t]
		if !ok {
			p = newPool(t)
			out[t] = p
		}
		p.add(b)
	}
	return out
}

// SelectionOdds é a odd provisória de uma seleção
type SelectionOdds struct {
	Numbers []int           `json:"numbers"`
	Staked  int64           `json:"staked"`
	Rate    decimal.Decimal `json:"rate"`
}

// TypeOdds agrupa as odds provisórias de uma modalidade
type TypeOdds struct {
	Type       ticket.Type     `json:"type"`
	Pool       int64           `json:"pool"`
	Selections []SelectionOdds `json:"selections"`
}

// ProvisionalOdds calcula odds não vinculantes para exibição.
// rate = floor(pool*(1-deduction)/staked, 1 casa), no mínimo MinOdds, elevado ao piso garantido da modalidade.
func ProvisionalOdds(bets []ticket.Bet, rates Rates, floors map[ticket.Type]decimal.Decimal) []TypeOdds {
	pools := BuildPools(bets)
	var out []TypeOdds
	for _, t := range ticket.Types() {
		p, ok := pools[t]
		if !ok {
			continue
		}
		net := rates.Net(p.Total)
		to := TypeOdds{Type: t, Pool: p.Total}
		for _, k := range p.Keys() {
			staked := p.BySelection[k]
			to.Selections = append(to.Selections, SelectionOdds{
				Numbers: p.selections[k].Numbers(),
				Staked:  staked,
				Rate:    provisionalRate(net, staked, rates.MinOdds, floors[t]),
			})
		}
		out = append(out, to)
	}
	return out
}

func provisionalRate(net decimal.Decimal, staked int64, min, floor decimal.Decimal) decimal.Decimal {
	if staked <= 0 {
		return decimal.Zero
	}
	r := net.Div(decimal.NewFromInt(staked)).RoundFloor(1)
	if r.LessThan(min) {
		r = min
	}
	if floor.IsPositive() && r.LessThan(floor) {
		r = floor
	}
	return r
}
