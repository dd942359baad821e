package topics

const (
	// Apostas
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Liquidação (resultados vindos da fonte externa)
	SettlementRequested = "bet_settlement_requested"

	// DLQs
	SettlementRequestedDLQ = "bet_settlement_requested_dlq"
)
