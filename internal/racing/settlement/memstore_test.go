package settlement

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// memState é o "banco" em memória; InTx trabalha numa cópia profunda e só
// publica se fn não falhar.
type memState struct {
	races     map[string]race.Race
	finishers map[string][]ticket.Finisher
	fields    map[string]int
	bets      map[string]ticket.Bet
	results   map[string]map[ticket.Type]PayoutResult
	balances  map[string]int64
	refs      map[string]int
}

func (s memState) clone() memState {
	c := memState{
		races:     map[string]race.Race{},
		finishers: map[string][]ticket.Finisher{},
		fields:    map[string]int{},
		bets:      map[string]ticket.Bet{},
		results:   map[string]map[ticket.Type]PayoutResult{},
		balances:  map[string]int64{},
		refs:      map[string]int{},
	}
	for k, v := range s.races {
		c.races[k] = v
	}
	for k, v := range s.finishers {
		c.finishers[k] = append([]ticket.Finisher(nil), v...)
	}
	for k, v := range s.fields {
		c.fields[k] = v
	}
	for k, v := range s.bets {
		c.bets[k] = v
	}
	for k, v := range s.results {
		m := map[ticket.Type]PayoutResult{}
		for t, r := range v {
			m[t] = r
		}
		c.results[k] = m
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.refs {
		c.refs[k] = v
	}
	return c
}

type memStore struct {
	mu         sync.Mutex
	st         memState
	failCredit bool
}

func newMemStore() *memStore {
	return &memStore{st: memState{}.clone()}
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(&memTx{st: &work, failCredit: m.failCredit}); err != nil {
		return err
	}
	m.st = work
	return nil
}

type memTx struct {
	st         *memState
	failCredit bool
}

func (t *memTx) LockRace(_ context.Context, raceID string) (race.Race, error) {
	r, ok := t.st.races[raceID]
	if !ok {
		return race.Race{}, race.ErrNotFound
	}
	return r, nil
}

func (t *memTx) SetRaceStatus(_ context.Context, raceID string, from, to race.Status) error {
	r, ok := t.st.races[raceID]
	if !ok || r.Status != from {
		return race.ErrStatusConflict
	}
	r.Status = to
	t.st.races[raceID] = r
	return nil
}

func (t *memTx) SaveFinishers(_ context.Context, raceID string, fs []ticket.Finisher) error {
	t.st.finishers[raceID] = append([]ticket.Finisher(nil), fs...)
	return nil
}

func (t *memTx) Finishers(_ context.Context, raceID string) ([]ticket.Finisher, error) {
	return t.st.finishers[raceID], nil
}

func (t *memTx) FieldSize(_ context.Context, raceID string) (int, error) {
	return t.st.fields[raceID], nil
}

func (t *memTx) sortedBets(raceID string, keep func(ticket.Bet) bool) []ticket.Bet {
	var out []ticket.Bet
	for _, b := range t.st.bets {
		if b.RaceID == raceID && keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) PendingBets(_ context.Context, raceID string) ([]ticket.Bet, error) {
	return t.sortedBets(raceID, func(b ticket.Bet) bool { return b.Status == ticket.StatusPending }), nil
}

func (t *memTx) SettleBet(_ context.Context, betID string, status ticket.Status, payout int64) error {
	b, ok := t.st.bets[betID]
	if !ok || b.Status != ticket.StatusPending {
		return errors.New("bet not pending")
	}
	b.Status, b.Payout = status, payout
	t.st.bets[betID] = b
	return nil
}

func (t *memTx) SavePayoutResult(_ context.Context, res PayoutResult) error {
	if t.st.results[res.RaceID] == nil {
		t.st.results[res.RaceID] = map[ticket.Type]PayoutResult{}
	}
	t.st.results[res.RaceID][res.Type] = res
	return nil
}

func (t *memTx) PayoutResults(_ context.Context, raceID string) ([]PayoutResult, error) {
	var out []PayoutResult
	for _, typ := range ticket.Types() {
		if r, ok := t.st.results[raceID][typ]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) UncreditedPayouts(_ context.Context, raceID string) ([]ticket.Bet, error) {
	return t.sortedBets(raceID, func(b ticket.Bet) bool { return b.Payout > 0 && !b.Credited }), nil
}

func (t *memTx) MarkCredited(_ context.Context, betID string) error {
	b := t.st.bets[betID]
	b.Credited = true
	t.st.bets[betID] = b
	return nil
}

func (t *memTx) Credit(_ context.Context, walletID string, amount int64, ref string) error {
	if t.failCredit {
		return errors.New("ledger unavailable")
	}
	if t.st.refs[ref] > 0 {
		return nil
	}
	t.st.refs[ref]++
	t.st.balances[walletID] += amount
	return nil
}
