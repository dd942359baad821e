package ledger

import (
	"encoding/json"
	"math"
	"time"
)

// Status do ciclo de vida de uma aposta.
// "pending" é o único estado inicial; os demais são terminais.
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusVoid    Status = "void"
)

// Terminal indica se o status não admite mais transição.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusVoid
}

// Valid aceita apenas os quatro status conhecidos.
func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// Bet é o registro imutável de uma aposta no ledger.
// Metadata é armazenado verbatim e nunca interpretado aqui.
type Bet struct {
	ID         string
	Owner      string
	Title      string
	Category   string // ex: "cs2", "nba"
	StakeCents int64
	Odds       float64
	Status     Status
	Metadata   json.RawMessage
	CreatedAt  time.Time
	SettledAt  *time.Time // nil enquanto pendente
}

// PotentialPayoutCents é sempre derivado de stake e odd, nunca persistido.
func (b *Bet) PotentialPayoutCents() int64 {
	return PayoutCents(b.StakeCents, b.Odds)
}

// PayoutCents arredonda pro centavo mais próximo.
func PayoutCents(stakeCents int64, odds float64) int64 {
	return int64(math.Round(float64(stakeCents) * odds))
}

// EntryType classifica um lançamento do extrato.
type EntryType string

const (
	EntryDeposit       EntryType = "DEPOSIT"
	EntryBetPlaced     EntryType = "BET_PLACED"
	EntryBetPayout     EntryType = "BET_PAYOUT"
	EntryBetVoidRefund EntryType = "BET_VOID_REFUND"
)

// Entry é um lançamento do extrato do usuário (auditoria de cada mutação de saldo).
type Entry struct {
	ID          int64
	Owner       string
	Type        EntryType
	AmountCents int64 // negativo em débitos
	Description string
	BetID       *string
	CreatedAt   time.Time
}

// Filter restringe a listagem de apostas.
// Limit <= 0 significa sem paginação (retorna tudo).
type Filter struct {
	Category string
	Status   Status
	Page     int
	Limit    int
}
