package events

type BetPlaced struct {
	BetID      string  `json:"bet_id"`
	UserID     string  `json:"user_id"`
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	StakeCents int64   `json:"stake_cents"`
	Odds       float64 `json:"odds"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}
