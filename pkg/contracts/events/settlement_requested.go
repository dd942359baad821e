package events

// Pedido de liquidação publicado pela fonte de resultados (feed ou admin).
// O ledger só aplica a transição; a origem do resultado é externa.
type SettlementRequested struct {
	BetID    string `json:"bet_id"`
	Outcome  string `json:"outcome"` // "won" | "lost" | "void"
	Source   string `json:"source,omitempty"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
