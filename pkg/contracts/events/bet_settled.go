package events

import "time"

// Evento emitido após uma aposta pendente virar estado terminal.
type BetSettled struct {
	BetID       string    `json:"bet_id"`
	UserID      string    `json:"user_id"`
	Outcome     string    `json:"outcome"` // "won" | "lost" | "void"
	CreditCents int64     `json:"credit_cents"`
	Ts          time.Time `json:"ts"`
}
