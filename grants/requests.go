/*
requests.go - Building payment-system requests from allocations

PURPOSE:
  Converts funded allocations into the payment system's wire shape and
  computes the complement (unfulfilled candidates) for reporting.

WIRE RULES:
  - Amount: round(dollars x 100) to the nearest cent, half away from
    zero, for bit-for-bit compatibility with the payment system.
  - Purpose: item name cut at 30 characters, no truncation marker (the
    external display does its own clipping).
  - Merchant lock: comma-joined lock list, or null when the item carries
    none. Category and keyword locks are never set by this system.
*/
package grants

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// purposeMaxLen is the payment system's purpose field limit.
const purposeMaxLen = 30

// BuildRequests converts allocations into GrantRequests, one per
// allocation, preserving order.
func BuildRequests(allocations []GrantAllocation, log zerolog.Logger) []GrantRequest {
	requests := make([]GrantRequest, 0, len(allocations))

	for _, alloc := range allocations {
		purpose := alloc.ItemName
		if len(purpose) > purposeMaxLen {
			purpose = purpose[:purposeMaxLen]
		}

		var merchantLock *string
		if len(alloc.HCBMids) > 0 {
			joined := strings.Join(alloc.HCBMids, ",")
			merchantLock = &joined
		}

		requests = append(requests, GrantRequest{
			AmountCents:  dollarsToCents(alloc.GrantAmount),
			Email:        alloc.Email,
			MerchantLock: merchantLock,
			Purpose:      purpose,
		})

		log.Info().
			Str("email", alloc.Email).
			Str("amount", alloc.GrantAmount.StringFixed(2)).
			Str("item", alloc.ItemName).
			Msg("created grant request")
	}

	return requests
}

// Complement returns the grouped orders that were not admitted: those
// none of whose constituent order IDs appear in any allocation. Since
// allocation is all-or-nothing per group, a single matching order ID
// marks the whole group fulfilled.
func Complement(grouped []GroupedOrder, allocations []GrantAllocation) []GroupedOrder {
	fulfilled := make(map[string]struct{})
	for _, alloc := range allocations {
		for _, id := range alloc.OrderIDs {
			fulfilled[id] = struct{}{}
		}
	}

	var unfulfilled []GroupedOrder
	for _, g := range grouped {
		admitted := false
		for _, id := range g.OrderIDs {
			if _, ok := fulfilled[id]; ok {
				admitted = true
				break
			}
		}
		if !admitted {
			unfulfilled = append(unfulfilled, g)
		}
	}
	return unfulfilled
}

// dollarsToCents converts a dollar amount to integer cents, rounding
// half away from zero. decimal.Round implements exactly that mode.
func dollarsToCents(dollars decimal.Decimal) int64 {
	return dollars.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
