// Package settlement resolve apostas pendentes pra um desfecho terminal
// e reconcilia o saldo do dono.
package settlement

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
)

// Outcome é o resultado informado pela fonte externa.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
	OutcomeVoid Outcome = "void"
)

var ErrUnknownOutcome = errors.New("unknown outcome")

// ParseOutcome aceita apenas os três desfechos válidos.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeWon, OutcomeLost, OutcomeVoid:
		return Outcome(s), nil
	}
	return "", ErrUnknownOutcome
}

type Engine struct {
	log   *zap.Logger
	store ledger.Store
}

func NewEngine(log *zap.Logger, store ledger.Store) *Engine {
	return &Engine{log: log, store: store}
}

// Settle aplica a máquina de estados:
//
//	pending -> won  : credita stake × odd
//	pending -> lost : credita 0
//	pending -> void : devolve o stake
//
// Transição e crédito são uma unidade só no store. Não é idempotente de
// propósito: repetir a liquidação retorna ErrAlreadySettled e não credita de novo.
func (e *Engine) Settle(ctx context.Context, betID string, outcome Outcome) (*ledger.Bet, error) {
	bet, err := e.store.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	// stake e odd são imutáveis, então o crédito pode ser calculado fora da
	// transação; o store revalida o status pendente com lock.
	var credit int64
	var status ledger.Status
	switch outcome {
	case OutcomeWon:
		status = ledger.StatusWon
		credit = ledger.PayoutCents(bet.StakeCents, bet.Odds)
	case OutcomeLost:
		status = ledger.StatusLost
		credit = 0
	case OutcomeVoid:
		status = ledger.StatusVoid
		credit = bet.StakeCents
	default:
		return nil, ErrUnknownOutcome
	}

	settled, err := e.store.SettleBet(ctx, betID, status, credit)
	if err != nil {
		return nil, err
	}

	e.log.Info("bet settled",
		zap.String("betId", settled.ID),
		zap.String("owner", settled.Owner),
		zap.String("outcome", string(outcome)),
		zap.Int64("credit_cents", credit),
	)
	return settled, nil
}
