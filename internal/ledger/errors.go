package ledger

import "errors"

// Erros de negócio do ledger; comparáveis com errors.Is.
// Qualquer outro erro vindo do store é falha de armazenamento e aborta a operação inteira.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("bet not found")
	ErrAlreadySettled    = errors.New("bet already settled")
	ErrDuplicateBet      = errors.New("duplicate bet id")
	ErrInvalidAmount     = errors.New("invalid amount")
)
