package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/shared/httpx"
	"github.com/radieske/race-pool-platform/internal/wallet-service/dto"
	"github.com/radieske/race-pool-platform/internal/wallet-service/repo"
)

type fakeRepo struct {
	wallets map[string]repo.Wallet
	refs    map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		wallets: map[string]repo.Wallet{"w1": {ID: "w1", UserID: "alice", MeetingID: "m1", Balance: 500}},
		refs:    map[string]bool{},
	}
}

func (f *fakeRepo) GetOrCreateWallet(_ context.Context, userID, meetingID string) (repo.Wallet, error) {
	for _, w := range f.wallets {
		if w.UserID == userID && w.MeetingID == meetingID {
			return w, nil
		}
	}
	w := repo.Wallet{ID: "w-" + userID, UserID: userID, MeetingID: meetingID}
	f.wallets[w.ID] = w
	return w, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (repo.Wallet, error) {
	w, ok := f.wallets[id]
	if !ok {
		return repo.Wallet{}, ledger.ErrWalletNotFound
	}
	return w, nil
}

func (f *fakeRepo) Deposit(_ context.Context, id string, amount int64, ref string) (repo.Wallet, error) {
	w, ok := f.wallets[id]
	if !ok {
		return repo.Wallet{}, ledger.ErrWalletNotFound
	}
	if !f.refs[ref] || ref == "" {
		w.Balance += amount
		f.refs[ref] = true
	}
	f.wallets[id] = w
	return w, nil
}

func (f *fakeRepo) Transactions(context.Context, string, int) ([]repo.Transaction, error) {
	return []repo.Transaction{{ID: "t1", Operation: ledger.OpDeposit, Amount: 500, BalanceAfter: 500, Reference: "seed"}}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetOrCreate(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeRepo()).Router()

	rec := do(t, h, http.MethodGet, "/wallets?userId=bob&meetingId=m1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got dto.WalletResponse
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if got.WalletID != "w-bob" || got.Balance != 0 {
		t.Errorf("wallet = %+v", got)
	}

	if rec := do(t, h, http.MethodGet, "/wallets?userId=bob", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing meeting status = %d, want 400", rec.Code)
	}
}

func TestDeposit(t *testing.T) {
	f := newFakeRepo()
	s := NewServer(zap.NewNop(), f)
	var deposited int64
	s.OnDeposit = func(a int64) { deposited += a }
	h := s.Router()

	rec := do(t, h, http.MethodPost, "/wallets/w1/deposit", `{"amount":250,"reference":"dep-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f.wallets["w1"].Balance != 750 || deposited != 250 {
		t.Errorf("balance = %d, hook = %d", f.wallets["w1"].Balance, deposited)
	}

	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"zero amount", "/wallets/w1/deposit", `{"amount":0}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"bad json", "/wallets/w1/deposit", `{"amount":`, http.StatusBadRequest, "BAD_JSON"},
		{"unknown wallet", "/wallets/nope/deposit", `{"amount":10}`, http.StatusNotFound, "WALLET_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			var body httpx.ErrorBody
			_ = json.NewDecoder(rec.Body).Decode(&body)
			if rec.Code != tt.status || body.Code != tt.code {
				t.Errorf("got %d %s, want %d %s", rec.Code, body.Code, tt.status, tt.code)
			}
		})
	}
}

func TestTransactions(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeRepo()).Router()
	rec := do(t, h, http.MethodGet, "/wallets/w1/transactions?limit=10", "")
	var got []dto.TransactionResponse
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || len(got) != 1 || got[0].Operation != "DEPOSIT" {
		t.Errorf("status = %d, body = %+v", rec.Code, got)
	}
}
