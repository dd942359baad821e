package metrics

import "github.com/prometheus/client_golang/prometheus"

// Contadores de negócio do ledger, registrados no main de cada serviço.
var (
	BetsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_bets_placed_total",
		Help: "apostas admitidas no ledger",
	})

	BetsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_bets_settled_total",
		Help: "apostas liquidadas por desfecho",
	}, []string{"outcome"})

	PlacementsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_placements_rejected_total",
		Help: "apostas rejeitadas por motivo",
	}, []string{"reason"})
)

func MustRegister() {
	prometheus.MustRegister(BetsPlaced, BetsSettled, PlacementsRejected)
}
