package combo

import (
	"fmt"
	"sort"

	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// Generate produz a lista canônica de tuplas compráveis a partir de um conjunto
// de candidatos por posição. Conjunto vazio em qualquer posição resulta em lista vazia.
// bracketCounts só é consultado no BRACKET_QUINELLA (zorome exige 2+ cavalos na chave).
func Generate(t ticket.Type, sets [][]int, bracketCounts map[int]int) ([][]int, error) {
	var out [][]int
	err := walk(t, sets, bracketCounts, func(tuple []int) {
		out = append(out, tuple)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// Count devolve a quantidade de pontos; percorre o mesmo caminho de Generate
func Count(t ticket.Type, sets [][]int, bracketCounts map[int]int) (int, error) {
	n := 0
	err := walk(t, sets, bracketCounts, func([]int) { n++ })
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Selections é Generate já convertido para seleções tipadas
func Selections(t ticket.Type, sets [][]int, bracketCounts map[int]int) ([]ticket.Selection, error) {
	tuples, err := Generate(t, sets, bracketCounts)
	if err != nil {
		return nil, err
	}
	out := make([]ticket.Selection, 0, len(tuples))
	for _, tp := range tuples {
		sel, err := ticket.NewSelection(t, tp)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// walk faz o produto cartesiano por backtracking e aplica o filtro da modalidade
func walk(t ticket.Type, sets [][]int, bracketCounts map[int]int, visit func([]int)) error {
	r, ok := t.Rules()
	if !ok {
		return fmt.Errorf("%w: unknown ticket type %q", ticket.ErrInvalidSelection, t)
	}
	if len(sets) != r.Arity {
		return fmt.Errorf("%w: %s needs %d candidate sets, got %d", ticket.ErrInvalidSelection, t, r.Arity, len(sets))
	}

	clean := make([][]int, len(sets))
	empty := false
	for i, s := range sets {
		for _, n := range s {
			if n <= 0 {
				return fmt.Errorf("%w: number %d must be positive", ticket.ErrInvalidSelection, n)
			}
			if n > r.Domain.MaxNumber() {
				return fmt.Errorf("%w: number %d above %d", ticket.ErrInvalidSelection, n, r.Domain.MaxNumber())
			}
		}
		clean[i] = dedupSorted(s)
		if len(clean[i]) == 0 {
			empty = true
		}
	}
	if empty {
		return nil
	}

	seen := make(map[string]struct{})
	tuple := make([]int, r.Arity)

	var rec func(depth int)
	rec = func(depth int) {
		if depth == r.Arity {
			if !accept(r, tuple, bracketCounts) {
				return
			}
			cand := ticket.Canonical(t, tuple)
			if !r.Ordered {
				k := ticket.Key(cand)
				if _, dup := seen[k]; dup {
					return
				}
				seen[k] = struct{}{}
			}
			visit(cand)
			return
		}
		for _, n := range clean[depth] {
			tuple[depth] = n
			rec(depth + 1)
		}
	}
	rec(0)
	return nil
}

// accept rejeita tuplas com número repetido, exceto o zorome válido do waku-ren
func accept(r ticket.Rules, tuple []int, bracketCounts map[int]int) bool {
	if r.Arity == 1 {
		return true
	}
	for i := 0; i < len(tuple); i++ {
		for j := i + 1; j < len(tuple); j++ {
			if tuple[i] != tuple[j] {
				continue
			}
			if r.Domain == ticket.Bracket && bracketCounts[tuple[i]] >= 2 {
				continue
			}
			return false
		}
	}
	return true
}

func dedupSorted(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	w := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[w-1] {
			out[w] = out[i]
			w++
		}
	}
	return out[:w]
}

func less(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
