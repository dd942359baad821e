package settlement

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
)

func setup(t *testing.T, balanceCents int64) (*Engine, *ledger.Memory) {
	t.Helper()
	store := ledger.NewMemory()
	if _, err := store.Deposit(context.Background(), "u1", balanceCents, "seed"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return NewEngine(zap.NewNop(), store), store
}

func place(t *testing.T, store *ledger.Memory, stakeCents int64, odds float64) *ledger.Bet {
	t.Helper()
	b := &ledger.Bet{
		Owner:      "u1",
		Title:      "NaVi vs FaZe",
		Category:   "cs2",
		StakeCents: stakeCents,
		Odds:       odds,
	}
	if err := store.PlaceBet(context.Background(), b); err != nil {
		t.Fatalf("place: %v", err)
	}
	return b
}

func TestSettleOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		outcome     Outcome
		wantStatus  ledger.Status
		wantBalance int64 // saldo 10000, stake 1000, odd 2.0
	}{
		{"won credits payout", OutcomeWon, ledger.StatusWon, 11000},
		{"lost credits nothing", OutcomeLost, ledger.StatusLost, 9000},
		{"void refunds stake", OutcomeVoid, ledger.StatusVoid, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store := setup(t, 10000)
			bet := place(t, store, 1000, 2.0)

			settled, err := engine.Settle(context.Background(), bet.ID, tt.outcome)
			if err != nil {
				t.Fatalf("settle: %v", err)
			}
			if settled.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", settled.Status, tt.wantStatus)
			}
			if settled.SettledAt == nil {
				t.Fatal("settled_at not set")
			}

			bal, _ := store.Balance(context.Background(), "u1")
			if bal != tt.wantBalance {
				t.Fatalf("balance = %d, want %d", bal, tt.wantBalance)
			}
		})
	}
}

func TestSettleTwiceCreditsOnce(t *testing.T) {
	engine, store := setup(t, 10000)
	bet := place(t, store, 1000, 2.0)
	ctx := context.Background()

	if _, err := engine.Settle(ctx, bet.ID, OutcomeWon); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	// segunda liquidação deve ser rejeitada, nunca ignorada em silêncio
	if _, err := engine.Settle(ctx, bet.ID, OutcomeWon); !errors.Is(err, ledger.ErrAlreadySettled) {
		t.Fatalf("second settle = %v, want ErrAlreadySettled", err)
	}

	bal, _ := store.Balance(ctx, "u1")
	if bal != 11000 {
		t.Fatalf("balance = %d, want 11000 (credited exactly once)", bal)
	}
}

func TestSettleUnknownBet(t *testing.T) {
	engine, _ := setup(t, 10000)
	if _, err := engine.Settle(context.Background(), "missing", OutcomeWon); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestParseOutcome(t *testing.T) {
	for _, ok := range []string{"won", "lost", "void"} {
		if _, err := ParseOutcome(ok); err != nil {
			t.Errorf("ParseOutcome(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "WON", "pending", "cancelled"} {
		if _, err := ParseOutcome(bad); !errors.Is(err, ErrUnknownOutcome) {
			t.Errorf("ParseOutcome(%q) = %v, want ErrUnknownOutcome", bad, err)
		}
	}
}

// Cenário completo do fluxo: saldo 50, aposta all-in de odd 1.5,
// segunda aposta rejeitada, liquidação won credita 75.
func TestFullScenario(t *testing.T) {
	engine, store := setup(t, 5000)
	ctx := context.Background()

	bet := place(t, store, 5000, 1.5)
	if bal, _ := store.Balance(ctx, "u1"); bal != 0 {
		t.Fatalf("balance after all-in = %d, want 0", bal)
	}

	late := &ledger.Bet{Owner: "u1", Title: "late bet", Category: "cs2", StakeCents: 100, Odds: 1.5}
	if err := store.PlaceBet(ctx, late); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("late place = %v, want ErrInsufficientFunds", err)
	}

	if _, err := engine.Settle(ctx, bet.ID, OutcomeWon); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if bal, _ := store.Balance(ctx, "u1"); bal != 7500 {
		t.Fatalf("balance after won = %d, want 7500", bal)
	}
}
