/*
errors.go - Error taxonomy for the grant engine

PURPOSE:
  One place for the run's error classes. The taxonomy is small and
  deliberate:

    Fatal:     budget fetch, pending-order fetch, export write
    Degraded:  allow-list fetch (run continues unfiltered)
    Per-item:  contact resolution (that user's orders are skipped)
    Policy:    a candidate exceeding remaining budget is NOT an error;
               it is reported as unfulfilled

  There are no retries anywhere; every external call is best-effort
  single-attempt.

SEE ALSO:
  - runner.go: Applies the taxonomy
*/
package grants

import (
	"errors"
	"fmt"
)

var (
	// ErrBudgetUnavailable is returned when the balance endpoint is
	// unreachable or returns a non-success status. Fatal to the run.
	ErrBudgetUnavailable = errors.New("budget unavailable")

	// ErrNoPendingOrders is returned by the runner when there is nothing
	// to allocate. Callers treat it as a clean no-op, not a failure.
	ErrNoPendingOrders = errors.New("no pending grant orders")
)

// BudgetError wraps a balance-endpoint failure with its cause.
type BudgetError struct {
	Cause error
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("fetching budget: %v", e.Cause)
}

func (e *BudgetError) Unwrap() error { return ErrBudgetUnavailable }
