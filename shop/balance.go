/*
balance.go - Token balance rules

PURPOSE:
  Defines how a user's spendable token balance is derived. Balances are
  never stored; they are computed from the payout and order history so
  there is a single source of truth and no drift.

RULE:
  balance = max(sum(payout tokens)
               - sum(priceAtOrder of orders in pending or fulfilled),
               0)

  Pending orders count as spent: tokens are reserved the moment a
  redemption is created, so a user cannot double-spend while an order
  awaits fulfillment. Rejected orders release their tokens.

SEE ALSO:
  - store/sqlite: Runs the same rule as a SQL aggregate
  - api/handlers.go: Balance check on order creation
*/
package shop

// TokenBalance computes the spendable balance from a user's payout and
// order history. The floor at zero mirrors the storage-level view: a
// user whose orders outrun their payouts (via manual adjustments) never
// reports a negative balance.
func TokenBalance(payouts []Payout, orders []ShopOrder) int {
	earned := 0
	for _, p := range payouts {
		earned += p.Tokens
	}

	spent := 0
	for _, o := range orders {
		if o.Status == OrderPending || o.Status == OrderFulfilled {
			spent += o.PriceAtOrder
		}
	}

	if earned < spent {
		return 0
	}
	return earned - spent
}

// UserWithTokens pairs a user with their derived balance, the shape the
// shop front end lists.
type UserWithTokens struct {
	User
	Tokens int
}
