/*
errors.go - Centralized domain error types

PURPOSE:
  All shop-level error types in one place for consistency and
  discoverability. Callers match with errors.Is / errors.As; structured
  errors carry the context needed for useful HTTP responses.

SEE ALSO:
  - api/handlers.go: Maps these to HTTP status codes
  - store/sqlite: Returns these from queries
*/
package shop

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrItemNotFound is returned when a referenced shop item doesn't exist.
	ErrItemNotFound = errors.New("shop item not found")

	// ErrOrderNotFound is returned when a referenced order doesn't exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInsufficientTokens is returned when a redemption costs more than
	// the user's spendable balance.
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrOrderNotPending is returned when fulfilling or rejecting an order
	// that already left the pending state.
	ErrOrderNotPending = errors.New("order is not pending")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientTokensError reports a balance shortfall on redemption.
type InsufficientTokensError struct {
	UserID    string
	Required  int
	Available int
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient tokens for %s: required %d, available %d",
		e.UserID, e.Required, e.Available)
}

func (e *InsufficientTokensError) Unwrap() error {
	return ErrInsufficientTokens
}
