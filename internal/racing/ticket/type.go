package ticket

import (
	"fmt"
	"strings"
)

// Type identifica a modalidade de aposta (tan, fuku, umaren, ...)
type Type string

const (
	Win             Type = "WIN"
	Place           Type = "PLACE"
	BracketQuinella Type = "BRACKET_QUINELLA"
	Quinella        Type = "QUINELLA"
	Wide            Type = "WIDE"
	Exacta          Type = "EXACTA"
	Trifecta        Type = "TRIFECTA"
	Trio            Type = "TRIO"
)

// Domain diz se os números da seleção são cavalos (número de largada) ou chaves (waku)
type Domain int

const (
	Runner Domain = iota
	Bracket
)

// limites do páreo: até 18 cavalos distribuídos em 8 chaves
const (
	MaxRunnerNumber = 18
	MaxBracket      = 8
)

// MaxNumber é o maior número aceito numa seleção do domínio
func (d Domain) MaxNumber() int {
	if d == Bracket {
		return MaxBracket
	}
	return MaxRunnerNumber
}

// Rules é a tabela de comportamento de cada modalidade.
// Tanto o gerador de combinações quanto a apuração de vencedores consultam esta tabela.
type Rules struct {
	Arity             int
	Ordered           bool
	Domain            Domain
	RequiredFinishers int  // colocações mínimas no resultado para apurar a modalidade
	MultiWinner       bool // PLACE e WIDE podem ter mais de uma seleção vencedora
}

var rules = map[Type]Rules{
	Win:             {Arity: 1, Ordered: true, Domain: Runner, RequiredFinishers: 1},
	Place:           {Arity: 1, Ordered: true, Domain: Runner, RequiredFinishers: 3, MultiWinner: true},
	BracketQuinella: {Arity: 2, Ordered: false, Domain: Bracket, RequiredFinishers: 2},
	Quinella:        {Arity: 2, Ordered: false, Domain: Runner, RequiredFinishers: 2},
	Wide:            {Arity: 2, Ordered: false, Domain: Runner, RequiredFinishers: 3, MultiWinner: true},
	Exacta:          {Arity: 2, Ordered: true, Domain: Runner, RequiredFinishers: 2},
	Trifecta:        {Arity: 3, Ordered: true, Domain: Runner, RequiredFinishers: 3},
	Trio:            {Arity: 3, Ordered: false, Domain: Runner, RequiredFinishers: 3},
}

// order fixa a ordem de exibição e de apuração
var order = []Type{Win, Place, BracketQuinella, Quinella, Wide, Exacta, Trifecta, Trio}

// Types retorna todas as modalidades suportadas
func Types() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

// Rules retorna a linha da tabela para a modalidade
func (t Type) Rules() (Rules, bool) {
	r, ok := rules[t]
	return r, ok
}

func (t Type) Valid() bool {
	_, ok := rules[t]
	return ok
}

func (t Type) Arity() int { return rules[t].Arity }
func (t Type) Ordered() bool { return rules[t].Ordered }
func (t Type) Domain() Domain { return rules[t].Domain }
func (t Type) MultiWinner() bool { return rules[t].MultiWinner }

// ParseType aceita o nome da modalidade em qualquer caixa
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown ticket type %q", ErrInvalidSelection, s)
	}
	return t, nil
}
