package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newBet(owner string, stakeCents int64, odds float64) *Bet {
	return &Bet{
		Owner:      owner,
		Title:      "Lakers vs Warriors",
		Category:   "nba",
		StakeCents: stakeCents,
		Odds:       odds,
	}
}

func TestReserveNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Deposit(ctx, "u1", 5000, "seed"); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := m.Reserve(ctx, "u1", 6000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("reserve above balance = %v, want ErrInsufficientFunds", err)
	}

	// falha não pode ter efeito parcial
	bal, _ := m.Balance(ctx, "u1")
	if bal != 5000 {
		t.Fatalf("balance after failed reserve = %d, want 5000", bal)
	}

	if err := m.Reserve(ctx, "u1", 5000); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	bal, _ = m.Balance(ctx, "u1")
	if bal != 0 {
		t.Fatalf("balance = %d, want 0", bal)
	}
}

func TestConcurrentPlacementSerializesBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.Deposit(ctx, "u1", 10000, "seed"); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// saldo 100: duas colocações concorrentes de 60 cada, só uma pode passar
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.PlaceBet(ctx, newBet("u1", 6000, 1.5))
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("got %d ok / %d insufficient, want 1/1", ok, insufficient)
	}

	bal, _ := m.Balance(ctx, "u1")
	if bal != 4000 {
		t.Fatalf("final balance = %d, want 4000", bal)
	}
}

func TestPlaceBetDuplicateID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Deposit(ctx, "u1", 10000, "seed")

	b := newBet("u1", 1000, 2.0)
	b.ID = "fixed-id"
	if err := m.PlaceBet(ctx, b); err != nil {
		t.Fatalf("place: %v", err)
	}

	dup := newBet("u1", 1000, 2.0)
	dup.ID = "fixed-id"
	if err := m.PlaceBet(ctx, dup); !errors.Is(err, ErrDuplicateBet) {
		t.Fatalf("duplicate place = %v, want ErrDuplicateBet", err)
	}

	// o duplicado não pode ter debitado
	bal, _ := m.Balance(ctx, "u1")
	if bal != 9000 {
		t.Fatalf("balance = %d, want 9000", bal)
	}
}

func TestSettleBetTerminalIsFinal(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Deposit(ctx, "u1", 10000, "seed")

	b := newBet("u1", 1000, 2.0)
	if err := m.PlaceBet(ctx, b); err != nil {
		t.Fatalf("place: %v", err)
	}

	settled, err := m.SettleBet(ctx, b.ID, StatusWon, 2000)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != StatusWon || settled.SettledAt == nil {
		t.Fatalf("settled = %+v, want won with settled_at", settled)
	}

	// nenhuma transição sai de estado terminal, nem pra outro terminal
	for _, st := range []Status{StatusWon, StatusLost, StatusVoid} {
		if _, err := m.SettleBet(ctx, b.ID, st, 0); !errors.Is(err, ErrAlreadySettled) {
			t.Fatalf("re-settle to %s = %v, want ErrAlreadySettled", st, err)
		}
	}

	// crédito aplicado exatamente uma vez
	bal, _ := m.Balance(ctx, "u1")
	if bal != 11000 {
		t.Fatalf("balance = %d, want 11000", bal)
	}
}

func TestSettleBetNotFound(t *testing.T) {
	m := NewMemory()
	if _, err := m.SettleBet(context.Background(), "missing", StatusLost, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("settle missing = %v, want ErrNotFound", err)
	}
}

func TestSettleBetRejectsNonTerminalStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Deposit(ctx, "u1", 10000, "seed")
	b := newBet("u1", 1000, 2.0)
	_ = m.PlaceBet(ctx, b)

	if _, err := m.SettleBet(ctx, b.ID, StatusPending, 0); err == nil {
		t.Fatal("settle to pending succeeded, want error")
	}
}

func TestListBetsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Deposit(ctx, "u1", 100000, "seed")

	cats := []string{"nba", "cs2", "nba"}
	ids := make([]string, len(cats))
	for i, c := range cats {
		b := newBet("u1", 1000, 1.5)
		b.Category = c
		if err := m.PlaceBet(ctx, b); err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
		ids[i] = b.ID
	}

	all, total, err := m.ListBets(ctx, "u1", Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total = %d, len = %d, want 3/3", total, len(all))
	}
	// mais recente primeiro
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("wrong order: %s %s %s", all[0].ID, all[1].ID, all[2].ID)
	}

	nba, total, err := m.ListBets(ctx, "u1", Filter{Category: "nba"})
	if err != nil {
		t.Fatalf("list nba: %v", err)
	}
	if total != 2 || len(nba) != 2 {
		t.Fatalf("nba total = %d, len = %d, want 2/2", total, len(nba))
	}
	for _, b := range nba {
		if b.Category != "nba" {
			t.Fatalf("category = %s, want nba", b.Category)
		}
	}

	// owner sem apostas
	none, total, err := m.ListBets(ctx, "u2", Filter{})
	if err != nil || total != 0 || len(none) != 0 {
		t.Fatalf("empty owner: %v %d %d", err, total, len(none))
	}
}

func TestLedgerEntriesAudit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Deposit(ctx, "u1", 10000, "seed")

	b := newBet("u1", 1000, 2.0)
	_ = m.PlaceBet(ctx, b)
	if _, err := m.SettleBet(ctx, b.ID, StatusWon, 2000); err != nil {
		t.Fatalf("settle: %v", err)
	}

	entries, total, err := m.ListEntries(ctx, "u1", 1, 20)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if total != 3 {
		t.Fatalf("total entries = %d, want 3", total)
	}
	// mais recente primeiro: payout, stake, depósito
	wantTypes := []EntryType{EntryBetPayout, EntryBetPlaced, EntryDeposit}
	wantAmounts := []int64{2000, -1000, 10000}
	for i, e := range entries {
		if e.Type != wantTypes[i] || e.AmountCents != wantAmounts[i] {
			t.Fatalf("entry %d = %s/%d, want %s/%d", i, e.Type, e.AmountCents, wantTypes[i], wantAmounts[i])
		}
	}
}

func TestPayoutCentsRounding(t *testing.T) {
	tests := []struct {
		stake int64
		odds  float64
		want  int64
	}{
		{1000, 2.0, 2000},
		{1000, 1.5, 1500},
		{333, 1.33, 443}, // 442.89 arredonda pra cima
		{100, 1.01, 101},
		{5000, 1.5, 7500},
	}
	for _, tt := range tests {
		if got := PayoutCents(tt.stake, tt.odds); got != tt.want {
			t.Errorf("PayoutCents(%d, %v) = %d, want %d", tt.stake, tt.odds, got, tt.want)
		}
	}
}
