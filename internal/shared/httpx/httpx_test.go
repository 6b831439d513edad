package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/bet5"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/settlement"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: arity", ticket.ErrInvalidSelection), 400, "INVALID_SELECTION"},
		{race.ErrNotClosed, 409, "RACE_NOT_CLOSED"},
		{race.ErrAlreadyFinalized, 409, "RACE_ALREADY_FINALIZED"},
		{bet5.ErrNotScheduled, 409, "BET5_NOT_SCHEDULED"},
		{fmt.Errorf("%w: position 1", settlement.ErrFinishOrderConflict), 409, "FINISH_ORDER_CONFLICT"},
		{ledger.ErrInsufficientFunds, 422, "INSUFFICIENT_FUNDS"},
		{fmt.Errorf("lock: %w", race.ErrNotFound), 404, "RACE_NOT_FOUND"},
		{errors.New("connection refused"), 500, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code := Classify(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("Classify(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "INTERNAL" || strings.Contains(body.Error, "password") {
		t.Errorf("body = %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		A int `json:"a"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1,"b":2}`))
	if err := DecodeJSON(r, &dst); !errors.Is(err, ErrBadJSON) {
		t.Errorf("unknown field err = %v, want ErrBadJSON", err)
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.A != 1 {
		t.Errorf("DecodeJSON = %v, a=%d", err, dst.A)
	}
}
