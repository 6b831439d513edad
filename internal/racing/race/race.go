package race

import (
	"errors"
	"time"
)

// Status do páreo: SCHEDULED -> CLOSED -> FINALIZED, ou CANCELLED
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusClosed    Status = "CLOSED"
	StatusFinalized Status = "FINALIZED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrNotFound         = errors.New("race not found")
	ErrNotOpen          = errors.New("race not open for wagering")
	ErrNotClosed        = errors.New("race not closed")
	ErrAlreadyFinalized = errors.New("race already finalized")
	ErrStatusConflict   = errors.New("race status changed concurrently")
)

// Race é o que o motor de apuração precisa saber do cadastro de páreos
type Race struct {
	ID        string
	MeetingID string
	Status    Status
	ClosesAt  time.Time
}

// OpenForWagering indica se ainda aceita apostas no instante now
func (r Race) OpenForWagering(now time.Time) bool {
	if r.Status != StatusScheduled {
		return false
	}
	return r.ClosesAt.IsZero() || now.Before(r.ClosesAt)
}

// CheckClosable valida a transição SCHEDULED -> CLOSED
func (r Race) CheckClosable() error {
	switch r.Status {
	case StatusScheduled:
		return nil
	case StatusFinalized:
		return ErrAlreadyFinalized
	default:
		return ErrStatusConflict
	}
}

// CheckSettleable valida que a apuração pode rodar
func (r Race) CheckSettleable() error {
	switch r.Status {
	case StatusClosed:
		return nil
	case StatusFinalized:
		return ErrAlreadyFinalized
	default:
		return ErrNotClosed
	}
}
