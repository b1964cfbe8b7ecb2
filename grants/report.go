/*
report.go - Human-readable run summary

PURPOSE:
  Renders the operator-facing report: totals, budget utilization, a
  per-grant table, and the unfulfilled section. This is program OUTPUT,
  not logging — it writes plain text to the writer the caller provides
  (stdout in the CLI).
*/
package grants

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// WriteReport renders the allocation results to w.
func WriteReport(w io.Writer, res Result) {
	fmt.Fprintln(w, "=== GRANT ALLOCATION RESULTS ===")

	if len(res.Allocations) == 0 {
		fmt.Fprintln(w, "No grants can be allocated within the current budget.")
		return
	}

	utilization := decimal.Zero
	if res.Budget.IsPositive() {
		utilization = res.TotalAllocated.Div(res.Budget).Mul(decimal.NewFromInt(100))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "SUMMARY:")
	fmt.Fprintf(w, "Total grants: %d\n", len(res.Allocations))
	fmt.Fprintf(w, "Total amount: $%s\n", res.TotalAllocated.StringFixed(2))
	fmt.Fprintf(w, "Budget utilization: %s%%\n", utilization.StringFixed(1))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "DETAILS:")
	fmt.Fprintf(w, "%-32s%-14s%-24s%s\n", "Email", "Grant Amount", "Item", "Quantity")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, alloc := range res.Allocations {
		fmt.Fprintf(w, "%-32s%-14s%-24s%d\n",
			alloc.Email,
			"$"+alloc.GrantAmount.StringFixed(2),
			alloc.ItemName,
			alloc.Quantity)
	}

	if len(res.Unfulfilled) > 0 {
		unfulfilledTotal := decimal.Zero
		for _, g := range res.Unfulfilled {
			unfulfilledTotal = unfulfilledTotal.Add(g.TotalUSDCost)
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== UNFULFILLED ORDERS ===")
		fmt.Fprintf(w, "%d orders could not be fulfilled due to budget constraints\n", len(res.Unfulfilled))
		fmt.Fprintf(w, "Unfulfilled amount: $%s\n", unfulfilledTotal.StringFixed(2))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Unfulfilled details:")
		for _, g := range res.Unfulfilled {
			fmt.Fprintf(w, "- %s: %dx %s ($%s)\n",
				g.Email, g.Quantity, g.ItemName, g.TotalUSDCost.StringFixed(2))
		}
	}
}
