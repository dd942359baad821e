package dto

import (
	"encoding/json"
	"time"
)

// BetResponse espelha o registro da aposta; potential_payout_cents é sempre
// derivado de stake × odd na hora da resposta, nunca persistido.
type BetResponse struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"userId"`
	Title                string          `json:"title"`
	Category             string          `json:"category"`
	StakeCents           int64           `json:"stake_cents"`
	Odds                 float64         `json:"odds"`
	Status               string          `json:"status"`
	PotentialPayoutCents int64           `json:"potential_payout_cents"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	SettledAt            *time.Time      `json:"settled_at,omitempty"`
}

type BetListResponse struct {
	Data  []BetResponse `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type EntryResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	BetID       *string   `json:"bet_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type EntryListResponse struct {
	Data  []EntryResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
