package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// DDL do ledger. Mantido aqui pra subir ambiente local sem ferramenta de migração.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	owner          TEXT PRIMARY KEY,
	balance_cents  BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bets (
	id           UUID PRIMARY KEY,
	owner        TEXT NOT NULL REFERENCES accounts(owner),
	title        TEXT NOT NULL,
	category     TEXT NOT NULL,
	stake_cents  BIGINT NOT NULL CHECK (stake_cents > 0),
	odds         DOUBLE PRECISION NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	metadata     JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	settled_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_bets_owner_created ON bets(owner, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bets_owner_category ON bets(owner, category);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id            BIGSERIAL PRIMARY KEY,
	owner         TEXT NOT NULL REFERENCES accounts(owner),
	entry_type    TEXT NOT NULL,
	amount_cents  BIGINT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	bet_id        UUID,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_entries_owner_created ON ledger_entries(owner, created_at DESC);
`

// EnsureSchema cria as tabelas do ledger se ainda não existirem.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
