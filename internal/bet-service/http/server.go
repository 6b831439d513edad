package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/bet-service/dto"
	"github.com/radieske/race-pool-platform/internal/bet-service/repo"
	"github.com/radieske/race-pool-platform/internal/racing/odds"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/internal/racing/wager"
	"github.com/radieske/race-pool-platform/internal/shared/httpx"
)

// Wagers é o caso de uso de compra
type Wagers interface {
	Place(ctx context.Context, req wager.Request) (*wager.Receipt, error)
	Preview(ctx context.Context, req wager.Request) ([][]int, error)
}

// Odds lê as odds provisórias (cache com fallback para recálculo)
type Odds interface {
	Current(ctx context.Context, raceID string) (*odds.Snapshot, error)
}

// Bets são as leituras de apostas
type Bets interface {
	GetBet(ctx context.Context, betID string) (ticket.Bet, error)
	BetsByPurchase(ctx context.Context, purchaseID string) ([]ticket.Bet, error)
}

type Server struct {
	log    *zap.Logger
	wagers Wagers
	odds   Odds
	bets   Bets
}

func NewServer(log *zap.Logger, w Wagers, o Odds, b Bets) *Server {
	return &Server{log: log, wagers: w, odds: o, bets: b}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/races/{raceId}/bets", s.placeBet)
	r.Post("/races/{raceId}/bets/preview", s.preview) // pontos sem debitar
	r.Get("/races/{raceId}/odds", s.getOdds)
	r.Get("/bets/{id}", s.getBet)
	r.Get("/purchases/{id}", s.getPurchase)
	return r
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	t, err := ticket.ParseType(req.Type)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}

	rc, err := s.wagers.Place(r.Context(), wager.Request{
		RaceID:     chi.URLParam(r, "raceId"),
		UserID:     req.UserID,
		Type:       t,
		Candidates: req.Candidates,
		UnitStake:  req.UnitStake,
	})
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		PurchaseID: rc.PurchaseID,
		Points:     rc.Points,
		TotalStake: rc.TotalStake,
		Bets:       dto.FromBets(rc.Bets),
	})
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	t, err := ticket.ParseType(req.Type)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	combos, err := s.wagers.Preview(r.Context(), wager.Request{
		RaceID:     chi.URLParam(r, "raceId"),
		Type:       t,
		Candidates: req.Candidates,
	})
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	if combos == nil {
		combos = [][]int{}
	}
	httpx.WriteJSON(w, http.StatusOK, dto.PreviewResponse{Points: len(combos), Combinations: combos})
}

// getOdds devolve as odds provisórias; não vinculantes
func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	snap, err := s.odds.Current(r.Context(), chi.URLParam(r, "raceId"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.bets.GetBet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repo.ErrBetNotFound) {
		err = httpx.ErrNotFound
	}
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromBet(b))
}

func (s *Server) getPurchase(w http.ResponseWriter, r *http.Request) {
	bets, err := s.bets.BetsByPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	if len(bets) == 0 {
		httpx.WriteError(w, s.log, httpx.ErrNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromBets(bets))
}
