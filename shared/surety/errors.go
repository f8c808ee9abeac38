package surety

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied      = errors.New("access denied")
	ErrNotOperational    = errors.New("engine is not operational")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyVoted also matches ErrAlreadyExists.
	ErrAlreadyVoted = fmt.Errorf("%w: caller already voted for candidate", ErrAlreadyExists)

	// ErrInvariantViolated means a staged operation would leave the vault
	// holding less than the payouts it owes. Valid call sequences never
	// produce it.
	ErrInvariantViolated = errors.New("vault invariant violated")
)
