/*
eligibility.go - Allow-list filtering of pending orders

PURPOSE:
  Optionally restricts which pending orders may receive grants to users
  present in an externally maintained allow-list. With no allow-list the
  filter is the identity function.
*/
package grants

import (
	"github.com/rs/zerolog"

	"github.com/tokenshop/grant-engine/shop"
)

// FilterEligible retains orders whose user appears in the allow-list.
// A nil allow-list disables filtering and passes every order through.
// Pure aside from the count log.
func FilterEligible(orders []shop.PendingOrder, allowList map[string]struct{}, log zerolog.Logger) []shop.PendingOrder {
	if allowList == nil {
		return orders
	}

	filtered := make([]shop.PendingOrder, 0, len(orders))
	for _, o := range orders {
		if _, ok := allowList[o.UserID]; ok {
			filtered = append(filtered, o)
		}
	}

	log.Info().
		Int("before", len(orders)).
		Int("after", len(filtered)).
		Msg("filtered orders by allow-list approval")

	return filtered
}
