package ticket

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrInvalidStake       = errors.New("invalid stake")
	ErrInvalidFinishOrder = errors.New("invalid finish order")
)

// Selection é a tupla comprada para uma modalidade, já validada e canonicalizada.
// Só é construída por NewSelection; depois disso ninguém precisa revalidar.
type Selection struct {
	typ     Type
	numbers []int
}

// NewSelection valida aridade e números e ordena de forma crescente as modalidades sem ordem
func NewSelection(t Type, numbers []int) (Selection, error) {
	r, ok := t.Rules()
	if !ok {
		return Selection{}, fmt.Errorf("%w: unknown ticket type %q", ErrInvalidSelection, t)
	}
	if len(numbers) != r.Arity {
		return Selection{}, fmt.Errorf("%w: %s needs %d numbers, got %d", ErrInvalidSelection, t, r.Arity, len(numbers))
	}

	nums := make([]int, len(numbers))
	copy(nums, numbers)
	for _, n := range nums {
		if n <= 0 {
			return Selection{}, fmt.Errorf("%w: number %d must be positive", ErrInvalidSelection, n)
		}
	}
	if !r.Ordered {
		sort.Ints(nums)
	}

	// repetição só é permitida no waku-ren (zorome); a checagem de quantidade fica no gerador
	if r.Domain != Bracket && hasRepeat(nums) {
		return Selection{}, fmt.Errorf("%w: repeated number in %v", ErrInvalidSelection, numbers)
	}
	return Selection{typ: t, numbers: nums}, nil
}

// MustSelection é usado em testes e em tuplas vindas do gerador
func MustSelection(t Type, numbers ...int) Selection {
	s, err := NewSelection(t, numbers)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selection) Type() Type { return s.typ }

// Numbers retorna uma cópia dos números
func (s Selection) Numbers() []int {
	out := make([]int, len(s.numbers))
	copy(out, s.numbers)
	return out
}

// Key é a chave canônica da seleção, ex: "3-7"
func (s Selection) Key() string { return Key(s.numbers) }

func (s Selection) Equal(o Selection) bool {
	return s.typ == o.typ && s.Key() == o.Key()
}

func (s Selection) String() string { return string(s.typ) + ":" + s.Key() }

// Key junta os números com "-"
func Key(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "-")
}

// Canonical devolve uma cópia ordenada quando a modalidade não considera ordem
func Canonical(t Type, numbers []int) []int {
	out := make([]int, len(numbers))
	copy(out, numbers)
	if !t.Ordered() {
		sort.Ints(out)
	}
	return out
}

func hasRepeat(nums []int) bool {
	seen := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}

// ValidateStake exige valor inteiro positivo na menor unidade
func ValidateStake(stake int64) error {
	if stake <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStake, stake)
	}
	return nil
}
