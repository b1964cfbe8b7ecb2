/*
aggregate.go - Grouping pending orders into allocation candidates

PURPOSE:
  Folds the filtered pending orders into one GroupedOrder per
  (user, item) pair, summing cost, quantity, and tokens. Orders whose
  user has no resolved contact address are dropped here (and logged);
  the payment system cannot reach them.

ORDERING:
  Output order is grouping-discovery order — the insertion order of each
  first-seen (user, item) key — not sorted. The optimizer applies its
  own deterministic sort.
*/
package grants

import (
	"github.com/rs/zerolog"

	"github.com/tokenshop/grant-engine/shop"
)

type groupKey struct {
	UserID string
	ItemID string
}

// Aggregate folds orders into per-(user, item) candidates. contacts maps
// user IDs to resolved addresses; orders for unmapped users are skipped.
// The fold builds a fresh result each call — nothing is shared or
// mutated across runs.
func Aggregate(orders []shop.PendingOrder, contacts map[string]string, log zerolog.Logger) []GroupedOrder {
	grouped := make(map[groupKey]*GroupedOrder)
	var result []*GroupedOrder

	for _, o := range orders {
		email, ok := contacts[o.UserID]
		if !ok {
			log.Warn().
				Str("order_id", o.OrderID).
				Str("user_id", o.UserID).
				Msg("skipping order: no contact address for user")
			continue
		}

		k := groupKey{UserID: o.UserID, ItemID: o.ItemID}
		g, ok := grouped[k]
		if !ok {
			g = &GroupedOrder{
				UserID:   o.UserID,
				Email:    email,
				ItemID:   o.ItemID,
				ItemName: o.ItemName,
				HCBMids:  o.HCBMids,
			}
			grouped[k] = g
			result = append(result, g)
		}

		g.Quantity++
		g.TotalUSDCost = g.TotalUSDCost.Add(o.USDCost)
		g.OrderIDs = append(g.OrderIDs, o.OrderID)
		g.TotalTokensSpent += o.PriceAtOrder
	}

	out := make([]GroupedOrder, len(result))
	for i, g := range result {
		out[i] = *g
	}

	log.Info().
		Int("orders", len(orders)).
		Int("groups", len(out)).
		Msg("grouped orders by user and item")

	return out
}
