package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func upstream(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.Method+" "+r.URL.Path)
	}))
}

func TestRouterProxiesByPrefix(t *testing.T) {
	bet, wallet, settle := upstream("bet"), upstream("wallet"), upstream("settlement")
	defer bet.Close()
	defer wallet.Close()
	defer settle.Close()

	h, err := Router(zap.NewNop(), Targets{Bet: bet.URL, Wallet: wallet.URL, Settlement: settle.URL}, "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/bets/races/r1/bets", "bet POST /races/r1/bets"},
		{http.MethodGet, "/api/wallet/wallets/w1", "wallet GET /wallets/w1"},
		{http.MethodPost, "/api/settlement/races/r1/finalize", "settlement POST /races/r1/finalize"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != tt.want {
			t.Errorf("%s %s: got %d %q, want %q", tt.method, tt.path, rec.Code, rec.Body.String(), tt.want)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/odds/r1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown prefix: status = %d, want 404", rec.Code)
	}
}

func TestRouterCORS(t *testing.T) {
	bet := upstream("bet")
	defer bet.Close()
	h, err := Router(zap.NewNop(), Targets{Bet: bet.URL, Wallet: bet.URL, Settlement: bet.URL}, "http://app.local, http://admin.local")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/bets/bets/b1", nil)
	req.Header.Set("Origin", "http://admin.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://admin.local" {
		t.Errorf("allowed origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/bets/bets/b1", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin got %q, want none", got)
	}
}

func TestRouterUpstreamDown(t *testing.T) {
	dead := upstream("dead")
	url := dead.URL
	dead.Close()

	h, err := Router(zap.NewNop(), Targets{Bet: url, Wallet: url, Settlement: url}, "*")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallet/wallets/w1", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRouterRejectsBadUpstream(t *testing.T) {
	if _, err := Router(zap.NewNop(), Targets{Bet: "::nope", Wallet: "http://w", Settlement: "http://s"}, ""); err == nil {
		t.Error("Router = nil error, want invalid upstream")
	}
}
