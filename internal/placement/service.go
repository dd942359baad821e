// Package placement valida e admite novas apostas no ledger.
package placement

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
)

// Limites de negócio de uma aposta nova.
const (
	MinTitleLen   = 3
	MinStakeCents = 100 // "stake mínimo de 1 unidade", em centavos
	MinOdds       = 1.01
)

// PlaceRequest é o pedido já autenticado (owner vem do provedor de identidade).
type PlaceRequest struct {
	Owner      string
	Title      string
	Category   string
	StakeCents int64
	Odds       float64
	Metadata   json.RawMessage
}

// ValidationError acumula todos os campos inválidos, não só o primeiro.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid input: " + strings.Join(keys, ", ")
}

type Service struct {
	log   *zap.Logger
	store ledger.Store
}

func NewService(log *zap.Logger, store ledger.Store) *Service {
	return &Service{log: log, store: store}
}

// PlaceBet valida o pedido e admite a aposta debitando o stake atomicamente.
// ErrInsufficientFunds do store passa direto pro chamador.
func (s *Service) PlaceBet(ctx context.Context, req PlaceRequest) (*ledger.Bet, error) {
	if verr := validate(req); verr != nil {
		return nil, verr
	}

	bet := &ledger.Bet{
		Owner:      req.Owner,
		Title:      strings.TrimSpace(req.Title),
		Category:   req.Category,
		StakeCents: req.StakeCents,
		Odds:       req.Odds,
		Metadata:   req.Metadata,
	}

	if err := s.store.PlaceBet(ctx, bet); err != nil {
		return nil, err
	}

	s.log.Info("bet placed",
		zap.String("betId", bet.ID),
		zap.String("owner", bet.Owner),
		zap.String("category", bet.Category),
		zap.Int64("stake_cents", bet.StakeCents),
		zap.Float64("odds", bet.Odds),
	)
	return bet, nil
}

// validate aplica as pré-condições sintáticas campo a campo.
func validate(req PlaceRequest) *ValidationError {
	fields := map[string]string{}

	if req.Owner == "" {
		fields["owner"] = "owner is required"
	}
	if len(strings.TrimSpace(req.Title)) < MinTitleLen {
		fields["title"] = "title must have at least 3 characters"
	}
	if strings.TrimSpace(req.Category) == "" {
		fields["category"] = "category is required"
	}
	if req.StakeCents < MinStakeCents {
		fields["stake_cents"] = "minimum stake is 100 cents"
	}
	if req.Odds < MinOdds {
		fields["odds"] = "minimum odds is 1.01"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
