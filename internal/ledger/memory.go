package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memAccount guarda o saldo de um owner; o mutex serializa as mutações dele
// sem bloquear os demais.
type memAccount struct {
	mu      sync.Mutex
	balance int64
}

// Memory implementa o Store em processo: arena de contas indexada por owner.
// Útil em testes e ambiente local; mesma semântica de atomicidade do Postgres.
type Memory struct {
	mu       sync.RWMutex // protege os mapas abaixo
	accounts map[string]*memAccount
	bets     map[string]*Bet
	order    map[string][]string // ids por owner, ordem de inserção
	entries  map[string][]Entry
	entrySeq int64
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*memAccount),
		bets:     make(map[string]*Bet),
		order:    make(map[string][]string),
		entries:  make(map[string][]Entry),
	}
}

// account retorna (criando se preciso) a conta do owner.
func (m *Memory) account(owner string) *memAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[owner]
	if !ok {
		acc = &memAccount{}
		m.accounts[owner] = acc
	}
	return acc
}

func (m *Memory) Balance(_ context.Context, owner string) (int64, error) {
	acc := m.account(owner)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (m *Memory) Deposit(_ context.Context, owner string, amountCents int64, description string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	acc := m.account(owner)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	acc.balance += amountCents

	m.mu.Lock()
	m.appendEntryLocked(owner, EntryDeposit, amountCents, description, nil)
	m.mu.Unlock()

	return acc.balance, nil
}

func (m *Memory) Reserve(_ context.Context, owner string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	acc := m.account(owner)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.balance < amountCents {
		return ErrInsufficientFunds
	}
	acc.balance -= amountCents
	return nil
}

func (m *Memory) Credit(_ context.Context, owner string, amountCents int64) error {
	if amountCents < 0 {
		return ErrInvalidAmount
	}
	acc := m.account(owner)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.balance += amountCents
	return nil
}

// PlaceBet reserva o stake e insere a aposta como unidade única.
// Ordem de locks: conta primeiro, mapas depois (igual em SettleBet).
func (m *Memory) PlaceBet(_ context.Context, b *Bet) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	acc := m.account(b.Owner)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bets[b.ID]; ok {
		return ErrDuplicateBet
	}
	if acc.balance < b.StakeCents {
		return ErrInsufficientFunds
	}

	acc.balance -= b.StakeCents
	b.Status = StatusPending
	b.CreatedAt = time.Now()
	b.SettledAt = nil

	stored := *b
	m.bets[b.ID] = &stored
	m.order[b.Owner] = append(m.order[b.Owner], b.ID)
	m.appendEntryLocked(b.Owner, EntryBetPlaced, -b.StakeCents, "stake: "+b.Title, &stored.ID)

	return nil
}

func (m *Memory) SettleBet(_ context.Context, betID string, status Status, creditCents int64) (*Bet, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("settle to non-terminal status %q", status)
	}
	if creditCents < 0 {
		return nil, ErrInvalidAmount
	}

	m.mu.RLock()
	stored, ok := m.bets[betID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	acc := m.account(stored.Owner)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if stored.Status.Terminal() {
		return nil, ErrAlreadySettled
	}

	now := time.Now()
	stored.Status = status
	stored.SettledAt = &now

	if creditCents > 0 {
		acc.balance += creditCents
		entryType := EntryBetPayout
		if status == StatusVoid {
			entryType = EntryBetVoidRefund
		}
		m.appendEntryLocked(stored.Owner, entryType, creditCents, string(entryType)+": "+stored.Title, &stored.ID)
	}

	out := *stored
	return &out, nil
}

func (m *Memory) GetBet(_ context.Context, betID string) (*Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.bets[betID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *stored
	return &out, nil
}

// ListBets percorre a ordem de inserção de trás pra frente (created_at desc).
func (m *Memory) ListBets(_ context.Context, owner string, f Filter) ([]Bet, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Bet
	ids := m.order[owner]
	for i := len(ids) - 1; i >= 0; i-- {
		b := m.bets[ids[i]]
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		matched = append(matched, *b)
	}

	total := int64(len(matched))
	if f.Limit > 0 {
		page := f.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * f.Limit
		if start >= len(matched) {
			return nil, total, nil
		}
		end := start + f.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (m *Memory) ListEntries(_ context.Context, owner string, page, limit int) ([]Entry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.entries[owner]
	total := int64(len(all))

	var out []Entry
	start := (page - 1) * limit
	for i := len(all) - 1 - start; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, total, nil
}

// appendEntryLocked exige m.mu já adquirido.
func (m *Memory) appendEntryLocked(owner string, t EntryType, amountCents int64, description string, betID *string) {
	m.entrySeq++
	m.entries[owner] = append(m.entries[owner], Entry{
		ID:          m.entrySeq,
		Owner:       owner,
		Type:        t,
		AmountCents: amountCents,
		Description: description,
		BetID:       betID,
		CreatedAt:   time.Now(),
	})
}
