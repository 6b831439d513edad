package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/racing/bet5"
	"github.com/radieske/race-pool-platform/internal/racing/settlement"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/internal/settlement-service/dto"
	"github.com/radieske/race-pool-platform/internal/shared/httpx"
)

// Settler é o motor de apuração dos páreos
type Settler interface {
	CloseRace(ctx context.Context, raceID string) error
	ComputePayouts(ctx context.Context, raceID string, finish []ticket.Finisher) (*settlement.Result, error)
	ApplyPayouts(ctx context.Context, raceID string) (*settlement.Result, error)
	FinalizeRace(ctx context.Context, raceID string, finish []ticket.Finisher) (*settlement.Result, error)
	PayoutResults(ctx context.Context, raceID string) ([]settlement.PayoutResult, error)
}

// Floors grava os pisos garantidos das odds provisórias
type Floors interface {
	SetFloor(ctx context.Context, raceID string, t ticket.Type, rate decimal.Decimal) error
}

// Bet5 é o motor da bolsa BET5
type Bet5 interface {
	CreateEvent(ctx context.Context, req bet5.CreateRequest) (*bet5.Event, error)
	Event(ctx context.Context, eventID string) (*bet5.Event, error)
	Tickets(ctx context.Context, eventID string) ([]bet5.Ticket, error)
	UpdatePot(ctx context.Context, eventID string, pot int64) (*bet5.Event, error)
	PlaceTicket(ctx context.Context, req bet5.TicketRequest) (*bet5.Ticket, error)
	Close(ctx context.Context, eventID string) error
	Cancel(ctx context.Context, eventID string) (int, error)
	Settle(ctx context.Context, eventID string, carryover int64) (*bet5.SettleResult, error)
}

type Server struct {
	log     *zap.Logger
	settler Settler
	floors  Floors
	bet5    Bet5
}

func NewServer(log *zap.Logger, s Settler, f Floors, b Bet5) *Server {
	return &Server{log: log, settler: s, floors: f, bet5: b}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/races/{raceId}", func(r chi.Router) {
		r.Post("/close", s.closeRace)
		r.Post("/finalize", s.finalize) // fase A + B numa transação
		r.Post("/compute", s.compute)   // só fase A
		r.Post("/apply", s.apply)       // só fase B
		r.Get("/payouts", s.payouts)
		r.Put("/odds-floors", s.setFloor)
	})

	r.Route("/bet5/events", func(r chi.Router) {
		r.Post("/", s.createBet5)
		r.Get("/{eventId}", s.getBet5)
		r.Put("/{eventId}/pot", s.updatePot)
		r.Get("/{eventId}/tickets", s.listTickets)
		r.Post("/{eventId}/tickets", s.placeTicket)
		r.Post("/{eventId}/close", s.closeBet5)
		r.Post("/{eventId}/cancel", s.cancelBet5)
		r.Post("/{eventId}/settle", s.settleBet5)
	})
	return r
}

func (s *Server) closeRace(w http.ResponseWriter, r *http.Request) {
	if err := s.settler.CloseRace(r.Context(), chi.URLParam(r, "raceId")); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	var req dto.FinishOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	res, err := s.settler.FinalizeRace(r.Context(), chi.URLParam(r, "raceId"), req.Finishers)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request) {
	var req dto.FinishOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	res, err := s.settler.ComputePayouts(r.Context(), chi.URLParam(r, "raceId"), req.Finishers)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	res, err := s.settler.ApplyPayouts(r.Context(), chi.URLParam(r, "raceId"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) payouts(w http.ResponseWriter, r *http.Request) {
	tables, err := s.settler.PayoutResults(r.Context(), chi.URLParam(r, "raceId"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	if tables == nil {
		tables = []settlement.PayoutResult{}
	}
	httpx.WriteJSON(w, http.StatusOK, tables)
}

func (s *Server) setFloor(w http.ResponseWriter, r *http.Request) {
	var req dto.OddsFloorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	t, err := ticket.ParseType(req.Type)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil || rate.IsNegative() {
		httpx.WriteError(w, s.log, fmt.Errorf("%w: invalid rate %q", httpx.ErrBadJSON, req.Rate))
		return
	}
	if err := s.floors.SetFloor(r.Context(), chi.URLParam(r, "raceId"), t, rate); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createBet5(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBet5Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	if len(req.RaceIDs) != bet5.Legs {
		httpx.WriteError(w, s.log, fmt.Errorf("%w: need %d races, got %d", bet5.ErrInvalidEvent, bet5.Legs, len(req.RaceIDs)))
		return
	}
	var races [bet5.Legs]string
	copy(races[:], req.RaceIDs)

	ev, err := s.bet5.CreateEvent(r.Context(), bet5.CreateRequest{
		MeetingID:  req.MeetingID,
		RaceIDs:    races,
		InitialPot: req.InitialPot,
	})
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ev)
}

func (s *Server) getBet5(w http.ResponseWriter, r *http.Request) {
	ev, err := s.bet5.Event(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ev)
}

func (s *Server) updatePot(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	ev, err := s.bet5.UpdatePot(r.Context(), chi.URLParam(r, "eventId"), req.InitialPot)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ev)
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.bet5.Tickets(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	if tickets == nil {
		tickets = []bet5.Ticket{}
	}
	httpx.WriteJSON(w, http.StatusOK, tickets)
}

func (s *Server) placeTicket(w http.ResponseWriter, r *http.Request) {
	var req dto.Bet5TicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	t, err := s.bet5.PlaceTicket(r.Context(), bet5.TicketRequest{
		EventID:    chi.URLParam(r, "eventId"),
		UserID:     req.UserID,
		Selections: req.Selections,
	})
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, t)
}

func (s *Server) closeBet5(w http.ResponseWriter, r *http.Request) {
	if err := s.bet5.Close(r.Context(), chi.URLParam(r, "eventId")); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cancelBet5(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")
	n, err := s.bet5.Cancel(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.CancelBet5Response{EventID: id, Refunded: n})
}

// settleBet5: corpo opcional; sem corpo o carryover é zero
func (s *Server) settleBet5(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleBet5Request
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, s.log, err)
			return
		}
	}
	res, err := s.bet5.Settle(r.Context(), chi.URLParam(r, "eventId"), req.Carryover)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
