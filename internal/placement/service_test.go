package placement

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
)

func newService(t *testing.T) (*Service, *ledger.Memory) {
	t.Helper()
	store := ledger.NewMemory()
	return NewService(zap.NewNop(), store), store
}

func validRequest() PlaceRequest {
	return PlaceRequest{
		Owner:      "u1",
		Title:      "Lakers vs Warriors",
		Category:   "nba",
		StakeCents: 1000,
		Odds:       1.85,
	}
}

func TestPlaceBetValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*PlaceRequest)
		wantFields []string
	}{
		{
			name:       "short title",
			mutate:     func(r *PlaceRequest) { r.Title = "ab" },
			wantFields: []string{"title"},
		},
		{
			name:       "blank title",
			mutate:     func(r *PlaceRequest) { r.Title = "   " },
			wantFields: []string{"title"},
		},
		{
			name:       "empty category",
			mutate:     func(r *PlaceRequest) { r.Category = "" },
			wantFields: []string{"category"},
		},
		{
			name:       "stake below minimum",
			mutate:     func(r *PlaceRequest) { r.StakeCents = 99 },
			wantFields: []string{"stake_cents"},
		},
		{
			name:       "odds below minimum",
			mutate:     func(r *PlaceRequest) { r.Odds = 1.00 },
			wantFields: []string{"odds"},
		},
		{
			name:       "missing owner",
			mutate:     func(r *PlaceRequest) { r.Owner = "" },
			wantFields: []string{"owner"},
		},
		{
			// todos os campos inválidos reportados de uma vez, não só o primeiro
			name: "everything wrong at once",
			mutate: func(r *PlaceRequest) {
				r.Title = "x"
				r.Category = ""
				r.StakeCents = 0
				r.Odds = 0
			},
			wantFields: []string{"category", "odds", "stake_cents", "title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)
			_, _ = store.Deposit(context.Background(), "u1", 100000, "seed")

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.PlaceBet(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want keys %v", verr.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestPlaceBetOddsBoundary(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, _ = store.Deposit(ctx, "u1", 100000, "seed")

	req := validRequest()
	req.Odds = 1.00
	if _, err := svc.PlaceBet(ctx, req); err == nil {
		t.Fatal("odds 1.00 accepted, want InvalidInput")
	}

	req.Odds = 1.01
	if _, err := svc.PlaceBet(ctx, req); err != nil {
		t.Fatalf("odds 1.01 rejected: %v", err)
	}
}

func TestPlaceBetDebitsAndCreatesPending(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, _ = store.Deposit(ctx, "u1", 5000, "seed")

	bet, err := svc.PlaceBet(ctx, validRequest())
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if bet.ID == "" || bet.Status != ledger.StatusPending || bet.CreatedAt.IsZero() {
		t.Fatalf("bet = %+v, want id + pending + created_at", bet)
	}

	bal, _ := store.Balance(ctx, "u1")
	if bal != 4000 {
		t.Fatalf("balance = %d, want 4000", bal)
	}
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, _ = store.Deposit(ctx, "u1", 500, "seed")

	req := validRequest() // stake 1000 > saldo 500
	if _, err := svc.PlaceBet(ctx, req); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// rejeição sem efeito parcial
	bal, _ := store.Balance(ctx, "u1")
	if bal != 500 {
		t.Fatalf("balance = %d, want 500", bal)
	}
	_, total, _ := store.ListBets(ctx, "u1", ledger.Filter{})
	if total != 0 {
		t.Fatalf("bets = %d, want 0", total)
	}
}

func TestPlaceBetAllowsFullBankroll(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, _ = store.Deposit(ctx, "u1", 5000, "seed")

	// stake igual ao saldo é permitido (1 <= stake <= bankroll)
	req := validRequest()
	req.StakeCents = 5000
	req.Odds = 1.5
	if _, err := svc.PlaceBet(ctx, req); err != nil {
		t.Fatalf("full-bankroll stake rejected: %v", err)
	}

	bal, _ := store.Balance(ctx, "u1")
	if bal != 0 {
		t.Fatalf("balance = %d, want 0", bal)
	}

	// agora qualquer aposta nova falha por saldo
	req = validRequest()
	req.StakeCents = 100
	if _, err := svc.PlaceBet(ctx, req); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}
