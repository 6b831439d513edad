package bet5

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// Legs é o número de páreos ligados a um BET5
const Legs = 5

// Status do evento: SCHEDULED -> CLOSED -> FINALIZED, ou CANCELLED
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusClosed    Status = "CLOSED"
	StatusFinalized Status = "FINALIZED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrInvalidEvent  = errors.New("invalid bet5 event")
	ErrInvalidTicket = errors.New("invalid bet5 ticket")
	ErrNotFound      = errors.New("bet5 event not found")
	ErrNotScheduled  = errors.New("bet5 event not open for tickets")
	ErrNotClosed     = errors.New("bet5 event not closed")
	ErrFinalized     = errors.New("bet5 event already finalized")
	ErrCancelled     = errors.New("bet5 event cancelled")

	ErrStatusConflict = errors.New("bet5 event status changed concurrently")
)

// Event liga cinco páreos a uma bolsa única
type Event struct {
	ID         string       `json:"id"`
	MeetingID  string       `json:"meetingId"`
	RaceIDs    [Legs]string `json:"raceIds"`
	InitialPot int64        `json:"initialPot"`
	TotalSales int64        `json:"totalSales"`
	Status     Status       `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Pot é a bolsa atual sem carryover: aporte do organizador + vendas
func (e Event) Pot() int64 { return e.InitialPot + e.TotalSales }

// Ticket é uma aposta BET5: um conjunto de candidatos por páreo
type Ticket struct {
	ID         string      `json:"id"`
	EventID    string      `json:"eventId"`
	UserID     string      `json:"userId"`
	WalletID   string      `json:"walletId"`
	Selections [Legs][]int `json:"selections"`
	UnitStake  int64       `json:"unitStake"`
	Points     int         `json:"points"`
	Cost       int64       `json:"cost"`
	Won        bool        `json:"won"`
	Payout     int64       `json:"payout"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Wins indica se cada conjunto contém o vencedor do páreo correspondente
func (t Ticket) Wins(winners [Legs]int) bool {
	for i, set := range t.Selections {
		if !contains(set, winners[i]) {
			return false
		}
	}
	return true
}

func contains(set []int, n int) bool {
	for _, v := range set {
		if v == n {
			return true
		}
	}
	return false
}

// WinnerRow é uma linha de colocação 1 de um páreo
type WinnerRow struct {
	RaceID string `json:"raceId"`
	Number int    `json:"number"`
}

// ResolveWinners devolve o vencedor de cada páreo na ordem de raceIDs.
// Só resolve quando cada páreo tem exatamente uma linha na colocação 1:
// páreo sem resultado e empate no primeiro lugar dão false.
func ResolveWinners(raceIDs [Legs]string, rows []WinnerRow) ([Legs]int, bool) {
	found := make(map[string][]int, Legs)
	for _, r := range rows {
		found[r.RaceID] = append(found[r.RaceID], r.Number)
	}
	var winners [Legs]int
	for i, id := range raceIDs {
		nums := found[id]
		if len(nums) != 1 {
			return [Legs]int{}, false
		}
		winners[i] = nums[0]
	}
	return winners, true
}

// NormalizeSelections valida os cinco conjuntos, remove repetidos e ordena.
// Devolve também os pontos (produto dos tamanhos).
func NormalizeSelections(in [][]int) ([Legs][]int, int, error) {
	var out [Legs][]int
	if len(in) != Legs {
		return out, 0, fmt.Errorf("%w: need %d selection sets, got %d", ErrInvalidTicket, Legs, len(in))
	}
	points := 1
	for i, set := range in {
		seen := make(map[int]struct{}, len(set))
		var clean []int
		for _, n := range set {
			if n <= 0 || n > ticket.MaxRunnerNumber {
				return out, 0, fmt.Errorf("%w: leg %d has number %d outside 1..%d", ErrInvalidTicket, i+1, n, ticket.MaxRunnerNumber)
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			clean = append(clean, n)
		}
		if len(clean) == 0 {
			return out, 0, fmt.Errorf("%w: leg %d is empty", ErrInvalidTicket, i+1)
		}
		sort.Ints(clean)
		out[i] = clean
		points *= len(clean)
	}
	return out, points, nil
}

func validateRaces(ids [Legs]string) error {
	seen := make(map[string]struct{}, Legs)
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: race %d missing", ErrInvalidEvent, i+1)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: race %s linked twice", ErrInvalidEvent, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
