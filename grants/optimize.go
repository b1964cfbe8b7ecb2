/*
optimize.go - The greedy allocation pass

PURPOSE:
  Selects which allocation candidates to fund under a hard budget
  ceiling.

POLICY:
  Greedy smallest-total-cost-first, all-or-nothing per candidate, single
  pass, no backtracking:

    1. Sort candidates by ascending total cost; ties break on ascending
       user ID, so identical input always yields identical output.
    2. Walk the sorted list once with a running remaining-budget counter.
    3. Admit a candidate in full when its cost fits the remaining budget
       (inclusive: a candidate costing exactly the remainder is funded);
       otherwise reject it permanently.

  This is first-fit greedy, not a knapsack solver. It maximizes the
  COUNT of satisfied requests rather than dollar utilization, which is
  the intended trade-off for this system — small grants reach as many
  people as possible. A rejected mid-size candidate is never revisited
  even if skipping a later one frees budget.
*/
package grants

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Optimize selects the funded subset of candidates. Output order is the
// evaluation order (ascending cost), which is also admission order.
// The budget invariant holds for every input: the admitted amounts never
// sum past budget. A non-positive budget rejects everything.
func Optimize(candidates []GroupedOrder, budget decimal.Decimal, log zerolog.Logger) []GrantAllocation {
	log.Info().Str("budget", budget.StringFixed(2)).Int("candidates", len(candidates)).
		Msg("optimizing grant allocation")

	sorted := make([]GroupedOrder, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].TotalUSDCost.Cmp(sorted[j].TotalUSDCost); c != 0 {
			return c < 0
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	var allocations []GrantAllocation
	remaining := budget

	for _, cand := range sorted {
		// Candidate costs are strictly positive, so a non-positive budget
		// rejects everything here without a special case.
		if cand.TotalUSDCost.LessThanOrEqual(remaining) {
			allocations = append(allocations, GrantAllocation{
				Email:       cand.Email,
				GrantAmount: cand.TotalUSDCost,
				ItemName:    cand.ItemName,
				Quantity:    cand.Quantity,
				OrderIDs:    cand.OrderIDs,
				HCBMids:     cand.HCBMids,
			})
			remaining = remaining.Sub(cand.TotalUSDCost)

			log.Info().
				Str("email", cand.Email).
				Str("amount", cand.TotalUSDCost.StringFixed(2)).
				Int("quantity", cand.Quantity).
				Str("item", cand.ItemName).
				Msg("allocated grant")
		} else {
			log.Info().
				Str("email", cand.Email).
				Str("amount", cand.TotalUSDCost.StringFixed(2)).
				Str("remaining_budget", remaining.StringFixed(2)).
				Str("item", cand.ItemName).
				Msg("cannot allocate grant: insufficient budget")
		}
	}

	log.Info().Str("remaining_budget", remaining.StringFixed(2)).Msg("allocation pass complete")
	return allocations
}
