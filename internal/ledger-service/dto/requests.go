package dto

import "encoding/json"

type PlaceBetRequest struct {
	UserID     string  `json:"userId"`
	Title      string  `json:"title"`
	Category   string  `json:"category"` // ex: "cs2", "nba"
	StakeCents int64   `json:"stake_cents"`
	Odds       float64 `json:"odds"`

	// Opcionais: quando o cliente aposta a partir do feed de eventos.
	// Se odds vier zerada e o par event/selection existir no feed,
	// a odd sugerida do cache é usada.
	EventID   string `json:"event_id,omitempty"`
	Selection string `json:"selection,omitempty"` // "home" | "draw" | "away"

	// Metadata é guardado verbatim; o ledger nunca interpreta.
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type SettleBetRequest struct {
	Outcome string `json:"outcome"` // "won" | "lost" | "void"
}

type DepositRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
}
