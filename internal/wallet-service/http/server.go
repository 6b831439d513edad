package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/shared/httpx"
	"github.com/radieske/race-pool-platform/internal/wallet-service/dto"
	"github.com/radieske/race-pool-platform/internal/wallet-service/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID, meetingID string) (repo.Wallet, error)
	Get(ctx context.Context, walletID string) (repo.Wallet, error)
	Deposit(ctx context.Context, walletID string, amount int64, reference string) (repo.Wallet, error)
	Transactions(ctx context.Context, walletID string, limit int) ([]repo.Transaction, error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo

	OnDeposit func(amount int64) // métricas
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o roteador HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/wallets", s.getOrCreate)                    // GET ?userId=...&meetingId=...
	r.Get("/wallets/{id}", s.getWallet)                 // saldo
	r.Post("/wallets/{id}/deposit", s.deposit)          // aporte
	r.Get("/wallets/{id}/transactions", s.transactions) // extrato
	return r
}

// getOrCreate retorna (ou cria) a carteira do participante no meeting
func (s *Server) getOrCreate(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	meetingID := r.URL.Query().Get("meetingId")
	if userID == "" || meetingID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Code: "BAD_REQUEST", Error: "userId and meetingId required"})
		return
	}
	wl, err := s.repo.GetOrCreateWallet(r.Context(), userID, meetingID)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(wl))
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	wl, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(wl))
}

// deposit adiciona saldo à carteira
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	if req.Amount <= 0 {
		httpx.WriteError(w, s.log, ledger.ErrInvalidAmount)
		return
	}
	id := chi.URLParam(r, "id")
	wl, err := s.repo.Deposit(r.Context(), id, req.Amount, req.Reference)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	s.log.Info("deposit", zap.String("walletId", id), zap.Int64("amount", req.Amount))
	if s.OnDeposit != nil {
		s.OnDeposit(req.Amount)
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(wl))
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := s.repo.Transactions(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, dto.TransactionResponse{
			ID:           t.ID,
			Operation:    string(t.Operation),
			Amount:       t.Amount,
			BalanceAfter: t.BalanceAfter,
			Reference:    t.Reference,
			CreatedAt:    t.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func toResponse(w repo.Wallet) dto.WalletResponse {
	return dto.WalletResponse{WalletID: w.ID, UserID: w.UserID, MeetingID: w.MeetingID, Balance: w.Balance}
}
