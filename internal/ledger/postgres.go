package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres implementa o Store em banco.
// A serialização por owner vem do lock pessimista (FOR UPDATE) na linha da conta;
// owners diferentes não contendem.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// ensureAccount garante a existência da conta e retorna o saldo com a linha travada.
func ensureAccount(ctx context.Context, tx *sql.Tx, owner string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts(owner) VALUES($1) ON CONFLICT (owner) DO NOTHING`, owner); err != nil {
		return 0, err
	}
	var bal int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE owner=$1 FOR UPDATE`, owner).Scan(&bal); err != nil {
		return 0, err
	}
	return bal, nil
}

// Balance retorna o saldo atual, criando a conta zerada no primeiro acesso.
func (p *Postgres) Balance(ctx context.Context, owner string) (int64, error) {
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO accounts(owner) VALUES($1) ON CONFLICT (owner) DO NOTHING`, owner); err != nil {
		return 0, err
	}
	var bal int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE owner=$1`, owner).Scan(&bal)
	return bal, err
}

// Deposit credita saldo e registra a operação no extrato
func (p *Postgres) Deposit(ctx context.Context, owner string, amountCents int64, description string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err = ensureAccount(ctx, tx, owner); err != nil {
		return 0, err
	}

	var newBal int64
	if err = tx.QueryRowContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + $1, updated_at = NOW()
		WHERE owner=$2 RETURNING balance_cents`, amountCents, owner).Scan(&newBal); err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries(owner, entry_type, amount_cents, description)
		VALUES($1,$2,$3,$4)`, owner, EntryDeposit, amountCents, description); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBal, nil
}

// Reserve debita o saldo se suficiente; sem efeito parcial em caso de falha
func (p *Postgres) Reserve(ctx context.Context, owner string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bal, err := ensureAccount(ctx, tx, owner)
	if err != nil {
		return err
	}
	if bal < amountCents {
		return ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents - $1, updated_at = NOW()
		WHERE owner=$2`, amountCents, owner); err != nil {
		return err
	}

	return tx.Commit()
}

// Credit soma ao saldo; sempre sucede pra amount >= 0
func (p *Postgres) Credit(ctx context.Context, owner string, amountCents int64) error {
	if amountCents < 0 {
		return ErrInvalidAmount
	}
	if amountCents == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = ensureAccount(ctx, tx, owner); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + $1, updated_at = NOW()
		WHERE owner=$2`, amountCents, owner); err != nil {
		return err
	}

	return tx.Commit()
}

// PlaceBet reserva o stake e insere a aposta pendente numa única transação.
// O lock na conta impede que duas colocações concorrentes estourem o saldo.
func (p *Postgres) PlaceBet(ctx context.Context, b *Bet) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bal, err := ensureAccount(ctx, tx, b.Owner)
	if err != nil {
		return err
	}
	if bal < b.StakeCents {
		return ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents - $1, updated_at = NOW()
		WHERE owner=$2`, b.StakeCents, b.Owner); err != nil {
		return err
	}

	var meta any
	if len(b.Metadata) > 0 {
		meta = []byte(b.Metadata)
	}

	b.Status = StatusPending
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bets (id, owner, title, category, stake_cents, odds, status, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,'pending',$7)
		RETURNING created_at`,
		b.ID, b.Owner, b.Title, b.Category, b.StakeCents, b.Odds, meta,
	).Scan(&b.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateBet
		}
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries(owner, entry_type, amount_cents, description, bet_id)
		VALUES($1,$2,$3,$4,$5)`,
		b.Owner, EntryBetPlaced, -b.StakeCents, "stake: "+b.Title, b.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// SettleBet aplica pending -> terminal e o crédito correspondente, tudo ou nada.
// Não é idempotente de propósito: segunda liquidação retorna ErrAlreadySettled
// pra impedir crédito duplo.
func (p *Postgres) SettleBet(ctx context.Context, betID string, status Status, creditCents int64) (*Bet, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("settle to non-terminal status %q", status)
	}
	if creditCents < 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := scanBet(tx.QueryRowContext(ctx, `
		SELECT id, owner, title, category, stake_cents, odds, status, metadata, created_at, settled_at
		FROM bets WHERE id=$1 FOR UPDATE`, betID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, ErrAlreadySettled
	}

	var settledAt time.Time
	if err = tx.QueryRowContext(ctx, `
		UPDATE bets SET status=$1, settled_at=NOW() WHERE id=$2
		RETURNING settled_at`, status, betID).Scan(&settledAt); err != nil {
		return nil, err
	}
	b.Status = status
	b.SettledAt = &settledAt

	if creditCents > 0 {
		if _, err = ensureAccount(ctx, tx, b.Owner); err != nil {
			return nil, err
		}
		if _, err = tx.ExecContext(ctx, `
			UPDATE accounts SET balance_cents = balance_cents + $1, updated_at = NOW()
			WHERE owner=$2`, creditCents, b.Owner); err != nil {
			return nil, err
		}

		entryType := EntryBetPayout
		if status == StatusVoid {
			entryType = EntryBetVoidRefund
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_entries(owner, entry_type, amount_cents, description, bet_id)
			VALUES($1,$2,$3,$4,$5)`,
			b.Owner, entryType, creditCents, string(entryType)+": "+b.Title, b.ID); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBet retorna a aposta pelo id
func (p *Postgres) GetBet(ctx context.Context, betID string) (*Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		SELECT id, owner, title, category, stake_cents, odds, status, metadata, created_at, settled_at
		FROM bets WHERE id=$1`, betID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

// ListBets retorna o histórico do owner, mais recente primeiro
func (p *Postgres) ListBets(ctx context.Context, owner string, f Filter) ([]Bet, int64, error) {
	where := `WHERE owner=$1`
	args := []any{owner}

	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(` AND category=$%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status=$%d`, len(args))
	}

	var total int64
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bets `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, owner, title, category, stake_cents, odds, status, metadata, created_at, settled_at
		FROM bets ` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		page := f.Page
		if page <= 0 {
			page = 1
		}
		args = append(args, f.Limit, (page-1)*f.Limit)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, 0, err
		}
		bets = append(bets, *b)
	}
	return bets, total, rows.Err()
}

// ListEntries retorna o extrato paginado do owner
func (p *Postgres) ListEntries(ctx context.Context, owner string, page, limit int) ([]Entry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE owner=$1`, owner).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner, entry_type, amount_cents, description, bet_id, created_at
		FROM ledger_entries WHERE owner=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, owner, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var betID sql.NullString
		if err := rows.Scan(&e.ID, &e.Owner, &e.Type, &e.AmountCents, &e.Description, &betID, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if betID.Valid {
			e.BetID = &betID.String
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (*Bet, error) {
	var b Bet
	var meta []byte
	var settledAt sql.NullTime
	err := row.Scan(&b.ID, &b.Owner, &b.Title, &b.Category, &b.StakeCents, &b.Odds,
		&b.Status, &meta, &b.CreatedAt, &settledAt)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		b.Metadata = meta
	}
	if settledAt.Valid {
		b.SettledAt = &settledAt.Time
	}
	return &b, nil
}
