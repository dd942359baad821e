package ledger

import "context"

// Store é a única fonte de verdade de saldos e apostas.
// Toda mutação de saldo pareada com mutação de aposta é aplicada como unidade atômica:
// duas chamadas concorrentes pro mesmo owner enxergam o saldo serializado, e
// owners diferentes não contendem entre si.
type Store interface {
	// Balance retorna o saldo atual, criando a conta zerada no primeiro acesso.
	Balance(ctx context.Context, owner string) (int64, error)

	// Deposit credita saldo e registra lançamento DEPOSIT no extrato.
	Deposit(ctx context.Context, owner string, amountCents int64, description string) (newBalance int64, err error)

	// Reserve debita amountCents se houver saldo; ErrInsufficientFunds sem efeito parcial.
	Reserve(ctx context.Context, owner string, amountCents int64) error

	// Credit soma amountCents (>= 0) ao saldo; sempre sucede.
	Credit(ctx context.Context, owner string, amountCents int64) error

	// PlaceBet reserva o stake e insere a aposta pendente como uma única unidade atômica.
	// Preenche CreatedAt. ErrDuplicateBet se o id já existir.
	PlaceBet(ctx context.Context, b *Bet) error

	// SettleBet aplica a transição pending -> status terminal e credita creditCents,
	// tudo ou nada. ErrNotFound se a aposta não existe, ErrAlreadySettled se já é terminal.
	SettleBet(ctx context.Context, betID string, status Status, creditCents int64) (*Bet, error)

	// GetBet retorna a aposta pelo id.
	GetBet(ctx context.Context, betID string) (*Bet, error)

	// ListBets retorna as apostas do owner ordenadas por created_at desc,
	// com o total antes da paginação.
	ListBets(ctx context.Context, owner string, f Filter) ([]Bet, int64, error)

	// ListEntries retorna o extrato paginado, mais recente primeiro.
	ListEntries(ctx context.Context, owner string, page, limit int) ([]Entry, int64, error)
}
