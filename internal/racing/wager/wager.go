package wager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/ledger"
	"github.com/radieske/race-pool-platform/internal/racing/combo"
	"github.com/radieske/race-pool-platform/internal/racing/race"
	"github.com/radieske/race-pool-platform/internal/racing/ticket"
	"github.com/radieske/race-pool-platform/pkg/contracts/events"
)

// Store abre a transação usada pela compra
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx são as operações que a compra precisa dentro de uma única transação
type Tx interface {
	LockRace(ctx context.Context, raceID string) (race.Race, error)
	// Roster devolve o elenco inscrito: número do cavalo -> chave
	Roster(ctx context.Context, raceID string) (map[int]int, error)
	WalletFor(ctx context.Context, userID, meetingID string) (string, error)
	Debit(ctx context.Context, walletID string, amount int64, reference string) error
	InsertBets(ctx context.Context, bets []ticket.Bet) error
}

// Publisher recebe o aviso de compra confirmada (kafka no deploy)
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

// Request é um pedido de compra: candidatos por posição e valor por ponto
type Request struct {
	RaceID     string
	UserID     string
	Type       ticket.Type
	Candidates [][]int
	UnitStake  int64
}

// Receipt é o comprovante da compra
type Receipt struct {
	PurchaseID string
	Points     int
	TotalStake int64
	Bets       []ticket.Bet
}

// Service executa a compra de apostas
type Service struct {
	log   *zap.Logger
	store Store
	publ  Publisher

	Now       func() time.Time
	NewID     func() string
	MaxPoints int // teto de pontos por compra; 0 desliga

	OnPlaced func(points int) // métricas
}

func NewService(log *zap.Logger, store Store, publ Publisher) *Service {
	return &Service{
		log:   log,
		store: store,
		publ:  publ,

		Now:       time.Now,
		NewID:     uuid.NewString,
		MaxPoints: DefaultMaxPoints,
	}
}

// DefaultMaxPoints limita quantas apostas uma compra pode gerar
const DefaultMaxPoints = 1000

func (s *Service) validateSelection(req Request) error {
	if req.RaceID == "" {
		return fmt.Errorf("%w: race required", ticket.ErrInvalidSelection)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown ticket type %q", ticket.ErrInvalidSelection, req.Type)
	}
	// aridade e números; o waku-ren depende do elenco e é recontado dentro da transação
	n, err := combo.Count(req.Type, req.Candidates, nil)
	if err != nil {
		return err
	}
	if n == 0 && req.Type.Domain() != ticket.Bracket {
		return fmt.Errorf("%w: no valid combinations", ticket.ErrInvalidSelection)
	}
	return s.checkPoints(n)
}

func (s *Service) checkPoints(n int) error {
	if s.MaxPoints > 0 && n > s.MaxPoints {
		return fmt.Errorf("%w: %d points above limit %d", ticket.ErrInvalidSelection, n, s.MaxPoints)
	}
	return nil
}

// checkRoster exige que todo candidato esteja inscrito no páreo (cavalo ou chave)
func checkRoster(t ticket.Type, sets [][]int, roster map[int]int) error {
	if len(roster) == 0 {
		return fmt.Errorf("%w: race has no runners entered", ticket.ErrInvalidSelection)
	}
	counts := bracketCounts(roster)
	for _, set := range sets {
		for _, n := range set {
			if t.Domain() == ticket.Bracket {
				if counts[n] == 0 {
					return fmt.Errorf("%w: bracket %d has no runners", ticket.ErrInvalidSelection, n)
				}
				continue
			}
			if _, ok := roster[n]; !ok {
				return fmt.Errorf("%w: runner %d not entered", ticket.ErrInvalidSelection, n)
			}
		}
	}
	return nil
}

func bracketCounts(roster map[int]int) map[int]int {
	out := make(map[int]int)
	for _, bracket := range roster {
		out[bracket]++
	}
	return out
}

// Preview devolve as tuplas que seriam compradas, sem debitar nada
func (s *Service) Preview(ctx context.Context, req Request) ([][]int, error) {
	if err := s.validateSelection(req); err != nil {
		return nil, err
	}
	var roster map[int]int
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		roster, err = tx.Roster(ctx, req.RaceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := checkRoster(req.Type, req.Candidates, roster); err != nil {
		return nil, err
	}
	return combo.Generate(req.Type, req.Candidates, bracketCounts(roster))
}

// Place gera as combinações, debita a carteira uma vez por aposta e grava as apostas,
// tudo na mesma transação. O páreo é travado para serializar com o fechamento.
func (s *Service) Place(ctx context.Context, req Request) (*Receipt, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user required", ticket.ErrInvalidSelection)
	}
	if err := ticket.ValidateStake(req.UnitStake); err != nil {
		return nil, err
	}
	if err := s.validateSelection(req); err != nil {
		return nil, err
	}

	rc := &Receipt{PurchaseID: s.NewID()}
	err := s.store.InTx(ctx, func(tx Tx) error {
		rc.Bets = nil
		rc.TotalStake = 0

		r, err := tx.LockRace(ctx, req.RaceID)
		if err != nil {
			return err
		}
		if !r.OpenForWagering(s.Now()) {
			return race.ErrNotOpen
		}

		roster, err := tx.Roster(ctx, req.RaceID)
		if err != nil {
			return err
		}
		if err := checkRoster(req.Type, req.Candidates, roster); err != nil {
			return err
		}
		sels, err := combo.Selections(req.Type, req.Candidates, bracketCounts(roster))
		if err != nil {
			return err
		}
		if len(sels) == 0 {
			return fmt.Errorf("%w: no valid combinations", ticket.ErrInvalidSelection)
		}
		if err := s.checkPoints(len(sels)); err != nil {
			return err
		}

		walletID, err := tx.WalletFor(ctx, req.UserID, r.MeetingID)
		if err != nil {
			return err
		}

		now := s.Now()
		for _, sel := range sels {
			b := ticket.Bet{
				ID:         s.NewID(),
				RaceID:     req.RaceID,
				UserID:     req.UserID,
				WalletID:   walletID,
				PurchaseID: rc.PurchaseID,
				Selection:  sel,
				Stake:      req.UnitStake,
				Status:     ticket.StatusPending,
				CreatedAt:  now,
			}
			if err := tx.Debit(ctx, walletID, b.Stake, ledger.BetRef(b.ID)); err != nil {
				return err
			}
			rc.Bets = append(rc.Bets, b)
			rc.TotalStake += b.Stake
		}
		return tx.InsertBets(ctx, rc.Bets)
	})
	if err != nil {
		if !errors.Is(err, ticket.ErrInvalidSelection) && !errors.Is(err, race.ErrNotOpen) {
			s.log.Warn("place bet failed",
				zap.String("raceId", req.RaceID), zap.String("userId", req.UserID), zap.Error(err))
		}
		return nil, err
	}
	rc.Points = len(rc.Bets)

	s.log.Info("bets placed",
		zap.String("purchaseId", rc.PurchaseID),
		zap.String("raceId", req.RaceID),
		zap.String("type", string(req.Type)),
		zap.Int("points", rc.Points),
		zap.Int64("total", rc.TotalStake))
	if s.OnPlaced != nil {
		s.OnPlaced(rc.Points)
	}

	// aviso para recálculo das odds; falha aqui não desfaz a compra
	if s.publ != nil {
		if err := s.publ.PublishBetPlaced(ctx, events.BetPlaced{
			PurchaseID: rc.PurchaseID,
			RaceID:     req.RaceID,
			UserID:     req.UserID,
			TicketType: string(req.Type),
			Points:     rc.Points,
			UnitStake:  req.UnitStake,
			TotalStake: rc.TotalStake,
			TsUnixMs:   s.Now().UnixMilli(),
		}); err != nil {
			s.log.Warn("publish bet_placed failed", zap.String("purchaseId", rc.PurchaseID), zap.Error(err))
		}
	}
	return rc, nil
}
