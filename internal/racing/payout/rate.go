package payout

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Rates reúne as constantes do pari-mutuel. São globais do deploy;
// o único ajuste por páreo é o piso garantido das odds provisórias.
type Rates struct {
	Deduction     decimal.Decimal // parcela retida da bolsa antes da distribuição
	Refund        decimal.Decimal // tokubarai: devolução quando ninguém acerta
	MinOdds       decimal.Decimal // mínimo exibido nas odds provisórias
	SettlementMin decimal.Decimal // mínimo pago na apuração
}

// DefaultRates: 20% de retenção, 70% de devolução, odds mínima 1.1
func DefaultRates() Rates {
	return Rates{
		Deduction:     decimal.RequireFromString("0.20"),
		Refund:        decimal.RequireFromString("0.70"),
		MinOdds:       decimal.RequireFromString("1.1"),
		SettlementMin: one,
	}
}

// Net devolve a bolsa depois da retenção
func (r Rates) Net(pool int64) decimal.Decimal {
	return decimal.NewFromInt(pool).Mul(one.Sub(r.Deduction))
}

// PayoutRate calcula o multiplicador para uma seleção.
// share é o valor da bolsa líquida atribuído à seleção e staked o total apostado nela.
// Sem lucro (share <= staked) devolve exatamente 1.0; caso contrário trunca em uma casa
// decimal e nunca fica abaixo de min. staked zero devolve 0.
func PayoutRate(share, staked, min decimal.Decimal) decimal.Decimal {
	if !staked.IsPositive() {
		return decimal.Zero
	}
	if share.LessThanOrEqual(staked) {
		return one
	}
	r := share.Div(staked).RoundFloor(1)
	if r.LessThan(min) {
		return min
	}
	return r
}

// Per100 converte um multiplicador para o valor pago a cada 100 unidades apostadas
func Per100(rate decimal.Decimal) int64 {
	return rate.Mul(hundred).IntPart()
}

// Amount aplica o multiplicador a um valor apostado, truncando para a menor unidade
func Amount(stake int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(rate).RoundFloor(0).IntPart()
}
