package credits

import "errors"

// Credits module errors.
var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrWalletExists         = errors.New("wallet already exists")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrInvalidAmount        = errors.New("invalid amount")
)
