// Package stats deriva métricas de desempenho do histórico de apostas.
// Só leitura: nenhum estado além do que já vive no ledger.
package stats

import (
	"context"
	"math"
	"sort"

	"github.com/radieske/bet-ledger/internal/ledger"
)

// SportStat é o desempenho agregado de uma categoria.
type SportStat struct {
	Category    string `json:"category"`
	Bets        int    `json:"bets"`
	ProfitCents int64  `json:"profit_cents"`
}

// Stats é o relatório de desempenho do usuário.
type Stats struct {
	TotalBets            int         `json:"total_bets"`
	WonBets              int         `json:"won_bets"`
	SettledBets          int         `json:"settled_bets"`
	WinRate              float64     `json:"win_rate"` // % sobre apostas resolvidas (won+lost)
	TotalProfitCents     int64       `json:"total_profit_cents"`
	CurrentBankrollCents int64       `json:"current_bankroll_cents"`
	SportPerformance     []SportStat `json:"sport_performance"`
}

type Aggregator struct {
	store ledger.Store
}

func NewAggregator(store ledger.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Compute calcula as métricas sobre um snapshot do histórico, opcionalmente
// restrito a uma categoria. O bankroll vem do saldo vivo da conta, não da soma
// do histórico (ajustes diretos de saldo não passam por apostas).
func (a *Aggregator) Compute(ctx context.Context, owner, category string) (*Stats, error) {
	bets, _, err := a.store.ListBets(ctx, owner, ledger.Filter{Category: category})
	if err != nil {
		return nil, err
	}

	balance, err := a.store.Balance(ctx, owner)
	if err != nil {
		return nil, err
	}

	st := &Stats{CurrentBankrollCents: balance}
	perSport := map[string]*SportStat{}

	for i := range bets {
		b := &bets[i]
		st.TotalBets++

		// void devolve o stake: lucro zero, fora do win rate e dos grupos
		profit, settled := betProfitCents(b)
		if !settled {
			continue
		}

		st.SettledBets++
		if b.Status == ledger.StatusWon {
			st.WonBets++
		}
		st.TotalProfitCents += profit

		sp, ok := perSport[b.Category]
		if !ok {
			sp = &SportStat{Category: b.Category}
			perSport[b.Category] = sp
		}
		sp.Bets++
		sp.ProfitCents += profit
	}

	if st.SettledBets > 0 {
		rate := float64(st.WonBets) / float64(st.SettledBets) * 100
		st.WinRate = math.Round(rate*100) / 100
	}

	// ordenação por categoria pra saída determinística
	st.SportPerformance = make([]SportStat, 0, len(perSport))
	for _, sp := range perSport {
		st.SportPerformance = append(st.SportPerformance, *sp)
	}
	sort.Slice(st.SportPerformance, func(i, j int) bool {
		return st.SportPerformance[i].Category < st.SportPerformance[j].Category
	})

	return st, nil
}

// betProfitCents retorna o lucro da aposta e se ela conta como resolvida
// (won ou lost; void e pending ficam de fora e têm lucro zero).
func betProfitCents(b *ledger.Bet) (int64, bool) {
	switch b.Status {
	case ledger.StatusWon:
		return b.PotentialPayoutCents() - b.StakeCents, true
	case ledger.StatusLost:
		return -b.StakeCents, true
	}
	return 0, false
}
