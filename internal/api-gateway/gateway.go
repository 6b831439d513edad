package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Targets são os serviços internos atrás do gateway
type Targets struct {
	Bet        string
	Wallet     string
	Settlement string
}

func proxy(log *zap.Logger, name, to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid %s upstream %q", name, to)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", name), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return rp, nil
}

// Router monta /api/{bets,wallet,settlement}/* -> serviço correspondente
func Router(log *zap.Logger, t Targets, origins string) (http.Handler, error) {
	bet, err := proxy(log, "bet", t.Bet)
	if err != nil {
		return nil, err
	}
	wallet, err := proxy(log, "wallet", t.Wallet)
	if err != nil {
		return nil, err
	}
	settle, err := proxy(log, "settlement", t.Settlement)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: splitOrigins(origins),
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Mount("/api/bets", http.StripPrefix("/api/bets", bet))
	r.Mount("/api/wallet", http.StripPrefix("/api/wallet", wallet))
	r.Mount("/api/settlement", http.StripPrefix("/api/settlement", settle))
	return r, nil
}

func splitOrigins(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
