package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/bet5"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/settlement"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
)

// ErrBadJSON e ErrNotFound são usados pelos handlers antes de chegar no domínio
var (
	ErrBadJSON  = errors.New("bad json")
	ErrNotFound = errors.New("not found")
)

// ErrorBody é o corpo padrão de erro: code é estável, error é texto livre
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type mapping struct {
	err    error
	status int
	code   string
}

var mappings = []mapping{
	{ErrBadJSON, http.StatusBadRequest, "BAD_JSON"},
	{ticket.ErrInvalidSelection, http.StatusBadRequest, "INVALID_SELECTION"},
	{ticket.ErrInvalidStake, http.StatusBadRequest, "INVALID_STAKE"},
	{ticket.ErrInvalidFinishOrder, http.StatusBadRequest, "INVALID_FINISH_ORDER"},
	{bet5.ErrInvalidTicket, http.StatusBadRequest, "INVALID_BET5_TICKET"},
	{bet5.ErrInvalidEvent, http.StatusBadRequest, "INVALID_BET5_EVENT"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},

	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{race.ErrNotFound, http.StatusNotFound, "RACE_NOT_FOUND"},
	{bet5.ErrNotFound, http.StatusNotFound, "BET5_NOT_FOUND"},
	{ledger.ErrWalletNotFound, http.StatusNotFound, "WALLET_NOT_FOUND"},

	{race.ErrNotOpen, http.StatusConflict, "RACE_NOT_OPEN"},
	{race.ErrNotClosed, http.StatusConflict, "RACE_NOT_CLOSED"},
	{race.ErrAlreadyFinalized, http.StatusConflict, "RACE_ALREADY_FINALIZED"},
	{race.ErrStatusConflict, http.StatusConflict, "RACE_STATUS_CONFLICT"},
	{settlement.ErrNotComputed, http.StatusConflict, "PAYOUTS_NOT_COMPUTED"},
	{settlement.ErrFinishOrderConflict, http.StatusConflict, "FINISH_ORDER_CONFLICT"},
	{bet5.ErrNotScheduled, http.StatusConflict, "BET5_NOT_SCHEDULED"},
	{bet5.ErrNotClosed, http.StatusConflict, "BET5_NOT_CLOSED"},
	{bet5.ErrFinalized, http.StatusConflict, "BET5_ALREADY_FINALIZED"},
	{bet5.ErrCancelled, http.StatusConflict, "BET5_CANCELLED"},
	{bet5.ErrStatusConflict, http.StatusConflict, "BET5_STATUS_CONFLICT"},

	{ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
}

// Classify devolve status HTTP e código para um erro do domínio; desconhecido vira 500
func Classify(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// WriteJSON serializa a resposta em JSON e define o status HTTP
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError traduz o erro; 500 é logado e não expõe detalhes
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status, code := Classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	WriteJSON(w, status, ErrorBody{Code: code, Error: msg})
}

// DecodeJSON lê o corpo; erro de parse vira ErrBadJSON
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(ErrBadJSON, err)
	}
	return nil
}
