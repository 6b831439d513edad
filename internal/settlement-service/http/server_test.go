package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/bet5"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/settlement"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/internal/shared/httpx"
)

type fakeSettler struct {
	err      error
	finish   []ticket.Finisher
	closed   string
	finalize int
}

func (f *fakeSettler) CloseRace(_ context.Context, raceID string) error {
	f.closed = raceID
	return f.err
}

func (f *fakeSettler) ComputePayouts(_ context.Context, raceID string, fs []ticket.Finisher) (*settlement.Result, error) {
	f.finish = fs
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.Result{RaceID: raceID, Settled: []ticket.Type{ticket.Win}}, nil
}

func (f *fakeSettler) ApplyPayouts(_ context.Context, raceID string) (*settlement.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.Result{RaceID: raceID, Credits: 2, PaidOut: 900, Finalized: true}, nil
}

func (f *fakeSettler) FinalizeRace(_ context.Context, raceID string, fs []ticket.Finisher) (*settlement.Result, error) {
	f.finalize++
	f.finish = fs
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.Result{RaceID: raceID, Settled: []ticket.Type{ticket.Win}, PaidOut: 800, Finalized: true}, nil
}

func (f *fakeSettler) PayoutResults(context.Context, string) ([]settlement.PayoutResult, error) {
	return nil, f.err
}

type fakeFloors struct {
	raceID string
	typ    ticket.Type
	rate   decimal.Decimal
}

func (f *fakeFloors) SetFloor(_ context.Context, raceID string, t ticket.Type, rate decimal.Decimal) error {
	f.raceID, f.typ, f.rate = raceID, t, rate
	return nil
}

type fakeBet5 struct {
	err       error
	created   bet5.CreateRequest
	carryover int64
}

func (f *fakeBet5) CreateEvent(_ context.Context, req bet5.CreateRequest) (*bet5.Event, error) {
	f.created = req
	return &bet5.Event{ID: "e1", MeetingID: req.MeetingID, RaceIDs: req.RaceIDs, InitialPot: req.InitialPot, Status: bet5.StatusScheduled}, f.err
}

func (f *fakeBet5) Event(_ context.Context, id string) (*bet5.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &bet5.Event{ID: id, Status: bet5.StatusClosed}, nil
}

func (f *fakeBet5) Tickets(context.Context, string) ([]bet5.Ticket, error) { return nil, f.err }

func (f *fakeBet5) UpdatePot(_ context.Context, id string, pot int64) (*bet5.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &bet5.Event{ID: id, InitialPot: pot}, nil
}

func (f *fakeBet5) PlaceTicket(_ context.Context, req bet5.TicketRequest) (*bet5.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &bet5.Ticket{ID: "t1", EventID: req.EventID, UserID: req.UserID, Points: 1, Cost: 100}, nil
}

func (f *fakeBet5) Close(context.Context, string) error { return f.err }

func (f *fakeBet5) Cancel(context.Context, string) (int, error) { return 3, f.err }

func (f *fakeBet5) Settle(_ context.Context, id string, carryover int64) (*bet5.SettleResult, error) {
	f.carryover = carryover
	if f.err != nil {
		return nil, f.err
	}
	return &bet5.SettleResult{EventID: id, Resolved: true, Winners: 1, Dividend: 1000 + carryover, TotalPot: 1000 + carryover}, nil
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestFinalize(t *testing.T) {
	st := &fakeSettler{}
	h := NewServer(zap.NewNop(), st, &fakeFloors{}, &fakeBet5{}).Router()

	rec := do(h, http.MethodPost, "/races/r1/finalize",
		`{"finishers":[{"number":3,"bracket":2,"position":1},{"number":5,"bracket":3,"position":2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var got settlement.Result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.RaceID != "r1" || !got.Finalized || got.PaidOut != 800 {
		t.Errorf("result = %+v", got)
	}
	if len(st.finish) != 2 || st.finish[0].Number != 3 || st.finish[1].Position != 2 {
		t.Errorf("finishers = %+v", st.finish)
	}
}

func TestRaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"finalize twice", race.ErrAlreadyFinalized, http.MethodPost, "/races/r1/finalize", `{"finishers":[]}`, 409, "RACE_ALREADY_FINALIZED"},
		{"finalize open race", race.ErrNotClosed, http.MethodPost, "/races/r1/finalize", `{"finishers":[]}`, 409, "RACE_NOT_CLOSED"},
		{"bad finish order", ticket.ErrInvalidFinishOrder, http.MethodPost, "/races/r1/compute", `{"finishers":[]}`, 400, "INVALID_FINISH_ORDER"},
		{"unknown field", nil, http.MethodPost, "/races/r1/finalize", `{"order":[]}`, 400, "BAD_JSON"},
		{"recompute changes winner", settlement.ErrFinishOrderConflict, http.MethodPost, "/races/r1/compute", `{"finishers":[{"number":7,"bracket":5,"position":1}]}`, 409, "FINISH_ORDER_CONFLICT"},
		{"apply before compute", settlement.ErrNotComputed, http.MethodPost, "/races/r1/apply", "", 409, "PAYOUTS_NOT_COMPUTED"},
		{"close unknown race", race.ErrNotFound, http.MethodPost, "/races/r9/close", "", 404, "RACE_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer(zap.NewNop(), &fakeSettler{err: tt.err}, &fakeFloors{}, &fakeBet5{}).Router()
			rec := do(h, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			if code := errCode(t, rec); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestCloseComputeApply(t *testing.T) {
	st := &fakeSettler{}
	h := NewServer(zap.NewNop(), st, &fakeFloors{}, &fakeBet5{}).Router()

	if rec := do(h, http.MethodPost, "/races/r1/close", ""); rec.Code != http.StatusNoContent || st.closed != "r1" {
		t.Errorf("close: status = %d, closed = %q", rec.Code, st.closed)
	}
	if rec := do(h, http.MethodPost, "/races/r1/compute", `{"finishers":[{"number":1,"bracket":1,"position":1}]}`); rec.Code != http.StatusOK {
		t.Errorf("compute: status = %d", rec.Code)
	}
	rec := do(h, http.MethodPost, "/races/r1/apply", "")
	var got settlement.Result
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || got.Credits != 2 || got.PaidOut != 900 {
		t.Errorf("apply: status = %d, result = %+v", rec.Code, got)
	}
	if st.finalize != 0 {
		t.Error("finalize should not be called by the split phases")
	}

	rec = do(h, http.MethodGet, "/races/r1/payouts", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("payouts: status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestSetFloor(t *testing.T) {
	fl := &fakeFloors{}
	h := NewServer(zap.NewNop(), &fakeSettler{}, fl, &fakeBet5{}).Router()

	rec := do(h, http.MethodPut, "/races/r1/odds-floors", `{"type":"wide","rate":"1.5"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if fl.raceID != "r1" || fl.typ != ticket.Wide || !fl.rate.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("floor = %+v", fl)
	}

	for _, body := range []string{`{"type":"WIDE","rate":"-1"}`, `{"type":"WIDE","rate":"abc"}`, `{"type":"SHOW","rate":"1.5"}`} {
		if rec := do(h, http.MethodPut, "/races/r1/odds-floors", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestCreateBet5(t *testing.T) {
	b := &fakeBet5{}
	h := NewServer(zap.NewNop(), &fakeSettler{}, &fakeFloors{}, b).Router()

	rec := do(h, http.MethodPost, "/bet5/events", `{"meetingId":"m1","raceIds":["r1","r2","r3","r4","r5"],"initialPot":5000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if b.created.RaceIDs != [bet5.Legs]string{"r1", "r2", "r3", "r4", "r5"} || b.created.InitialPot != 5000 {
		t.Errorf("request = %+v", b.created)
	}

	rec = do(h, http.MethodPost, "/bet5/events", `{"meetingId":"m1","raceIds":["r1","r2","r3","r4"]}`)
	if rec.Code != http.StatusBadRequest || errCode(t, rec) != "INVALID_BET5_EVENT" {
		t.Errorf("four races: status = %d", rec.Code)
	}
}

func TestSettleBet5(t *testing.T) {
	b := &fakeBet5{}
	h := NewServer(zap.NewNop(), &fakeSettler{}, &fakeFloors{}, b).Router()

	rec := do(h, http.MethodPost, "/bet5/events/e1/settle", "")
	var got bet5.SettleResult
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || got.TotalPot != 1000 || b.carryover != 0 {
		t.Errorf("no body: status = %d, result = %+v", rec.Code, got)
	}

	rec = do(h, http.MethodPost, "/bet5/events/e1/settle", `{"carryover":250}`)
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || got.TotalPot != 1250 || b.carryover != 250 {
		t.Errorf("carryover: status = %d, result = %+v", rec.Code, got)
	}
}

func TestBet5Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"ticket on closed event", bet5.ErrNotScheduled, http.MethodPost, "/bet5/events/e1/tickets", `{"userId":"u","selections":[[1],[1],[1],[1],[1]]}`, 409, "BET5_NOT_SCHEDULED"},
		{"ticket without funds", ledger.ErrInsufficientFunds, http.MethodPost, "/bet5/events/e1/tickets", `{"userId":"u","selections":[[1],[1],[1],[1],[1]]}`, 422, "INSUFFICIENT_FUNDS"},
		{"settle open event", bet5.ErrNotClosed, http.MethodPost, "/bet5/events/e1/settle", "", 409, "BET5_NOT_CLOSED"},
		{"cancel finalized", bet5.ErrFinalized, http.MethodPost, "/bet5/events/e1/cancel", "", 409, "BET5_ALREADY_FINALIZED"},
		{"unknown event", bet5.ErrNotFound, http.MethodGet, "/bet5/events/zz", "", 404, "BET5_NOT_FOUND"},
		{"pot after cancel", bet5.ErrCancelled, http.MethodPut, "/bet5/events/e1/pot", `{"initialPot":10}`, 409, "BET5_CANCELLED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer(zap.NewNop(), &fakeSettler{}, &fakeFloors{}, &fakeBet5{err: tt.err}).Router()
			rec := do(h, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			if code := errCode(t, rec); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestCancelAndTickets(t *testing.T) {
	h := NewServer(zap.NewNop(), &fakeSettler{}, &fakeFloors{}, &fakeBet5{}).Router()

	rec := do(h, http.MethodPost, "/bet5/events/e1/cancel", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"refunded":3`) {
		t.Errorf("cancel: status = %d, body = %s", rec.Code, rec.Body)
	}
	rec = do(h, http.MethodGet, "/bet5/events/e1/tickets", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("tickets: status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := do(h, http.MethodPost, "/bet5/events/e1/close", ""); rec.Code != http.StatusNoContent {
		t.Errorf("close: status = %d", rec.Code)
	}
}
