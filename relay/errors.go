package relay

import (
	"context"
	"errors"

	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
	vaulttypes "github.com/morelucks/reactiaid/x/vault/types"
)

// ErrTransientUnavailable marks a submission failure that is safe to retry
// with backoff: timeouts, transient transport or availability problems.
var ErrTransientUnavailable = errors.New("distribution endpoint transiently unavailable")

// ErrRetryBudgetExhausted marks a declaration that failed terminally after
// the configured attempt budget was spent on transient failures.
var ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

// IsTerminal reports whether a distribution error must not be retried.
// Authorization, input and funds failures are terminal; everything else is
// treated as transient and absorbed by the retry loop.
func IsTerminal(err error) bool {
	switch {
	case errors.Is(err, vaulttypes.ErrUnauthorized),
		errors.Is(err, vaulttypes.ErrInvalidInput),
		errors.Is(err, vaulttypes.ErrInsufficientFunds),
		errors.Is(err, oracletypes.ErrUnauthorized),
		errors.Is(err, oracletypes.ErrInvalidInput):
		return true
	default:
		return false
	}
}

// IsTransient reports whether an error should be retried. Timeouts and
// ErrTransientUnavailable are the common cases, but any failure that is not
// explicitly terminal gets the benefit of the retry budget.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransientUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return !IsTerminal(err)
}
