package combo

import (
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// WinningTuples reaproveita o gerador trocando os candidatos pelos números do resultado.
// finishers deve estar normalizado (ver ticket.NormalizeFinishOrder).
// resolved=false quando faltam colocações para apurar a modalidade.
func WinningTuples(t ticket.Type, finishers []ticket.Finisher) (tuples [][]int, resolved bool) {
	return WinningTuplesInField(t, finishers, 0)
}

// WinningTuplesInField é WinningTuples sabendo o tamanho do elenco (0 = desconhecido).
// Com o elenco inteiro colocado, PLACE e WIDE apuram com menos de três cavalos.
func WinningTuplesInField(t ticket.Type, finishers []ticket.Finisher, fieldSize int) (tuples [][]int, resolved bool) {
	r, ok := t.Rules()
	if !ok {
		return nil, false
	}
	if len(finishers) < r.RequiredFinishers {
		whole := fieldSize > 0 && len(finishers) >= fieldSize
		if !whole || !r.MultiWinner || len(finishers) < r.Arity {
			return nil, false
		}
	}

	num := func(pos int) []int { return []int{finishers[pos].Number} }
	var sets [][]int
	var counts map[int]int

	switch t {
	case ticket.Win:
		sets = [][]int{num(0)}
	case ticket.Place:
		sets = [][]int{topNumbers(finishers, 3)}
	case ticket.Quinella, ticket.Exacta:
		sets = [][]int{num(0), num(1)}
	case ticket.Wide:
		top := topNumbers(finishers, 3)
		sets = [][]int{top, top}
	case ticket.BracketQuinella:
		sets = [][]int{{finishers[0].Bracket}, {finishers[1].Bracket}}
		counts = ticket.BracketCounts(finishers)
	case ticket.Trio, ticket.Trifecta:
		sets = [][]int{num(0), num(1), num(2)}
	}

	out, err := Generate(t, sets, counts)
	if err != nil {
		return nil, false
	}
	return out, true
}

// IsWinningBet compara a seleção canônica com as tuplas vencedoras
func IsWinningBet(t ticket.Type, numbers []int, finishers []ticket.Finisher) bool {
	winners, ok := WinningTuples(t, finishers)
	if !ok {
		return false
	}
	key := ticket.Key(ticket.Canonical(t, numbers))
	for _, w := range winners {
		if ticket.Key(w) == key {
			return true
		}
	}
	return false
}

func topNumbers(fs []ticket.Finisher, n int) []int {
	if len(fs) < n {
		n = len(fs)
	}
	out := make([]int, 0, n)
	for _, f := range fs[:n] {
		out = append(out, f.Number)
	}
	return out
}
