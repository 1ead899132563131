package types

import "errors"

var (
	// ErrUnauthorized is returned when a caller other than the designated
	// relay proxy attempts to distribute. Terminal, never retried.
	ErrUnauthorized = errors.New("caller may not operate the vault")

	// ErrInvalidInput is returned for malformed distribution parameters.
	ErrInvalidInput = errors.New("invalid vault input")

	// ErrInsufficientFunds is returned when a payout would push the balance
	// below the configured debt floor. The vault state is left unchanged.
	ErrInsufficientFunds = errors.New("payout would breach the debt floor")

	// ErrDistributionNotFound is returned when no record exists for a
	// declaration reference.
	ErrDistributionNotFound = errors.New("distribution record not found")
)
