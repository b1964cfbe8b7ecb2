package grants_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokenshop/grant-engine/grants"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func usd(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func candidate(userID string, cost float64) grants.GroupedOrder {
	return grants.GroupedOrder{
		UserID:       userID,
		Email:        userID + "@example.com",
		ItemID:       "item-1",
		ItemName:     "Boba Run",
		Quantity:     1,
		TotalUSDCost: usd(cost),
		OrderIDs:     []string{"order-" + userID},
	}
}

var nop = zerolog.Nop()

// =============================================================================
// ALLOCATION SCENARIOS
// =============================================================================

func TestOptimize_GreedySmallestFirst(t *testing.T) {
	// GIVEN: budget $100 and candidates costing $30, $40, $50
	// WHEN: optimizing
	// THEN: $30 and $40 are admitted, $50 rejected (exceeds remaining $30)

	candidates := []grants.GroupedOrder{
		candidate("u-50", 50),
		candidate("u-30", 30),
		candidate("u-40", 40),
	}

	allocations := grants.Optimize(candidates, usd(100), nop)

	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if !allocations[0].GrantAmount.Equal(usd(30)) {
		t.Errorf("first allocation should be $30, got %v", allocations[0].GrantAmount)
	}
	if !allocations[1].GrantAmount.Equal(usd(40)) {
		t.Errorf("second allocation should be $40, got %v", allocations[1].GrantAmount)
	}

	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.GrantAmount)
	}
	if !total.Equal(usd(70)) {
		t.Errorf("expected $70 allocated, got %v", total)
	}
}

func TestOptimize_ZeroBudget_NoAllocations(t *testing.T) {
	// GIVEN: budget $0 and any candidates
	// WHEN: optimizing
	// THEN: nothing is allocated

	candidates := []grants.GroupedOrder{
		candidate("u-1", 5),
		candidate("u-2", 10),
	}

	allocations := grants.Optimize(candidates, decimal.Zero, nop)
	if len(allocations) != 0 {
		t.Fatalf("expected no allocations with zero budget, got %d", len(allocations))
	}

	allocations = grants.Optimize(candidates, usd(-25), nop)
	if len(allocations) != 0 {
		t.Fatalf("expected no allocations with negative budget, got %d", len(allocations))
	}
}

func TestOptimize_ExactBudget_Admitted(t *testing.T) {
	// GIVEN: a single candidate costing exactly the budget
	// WHEN: optimizing
	// THEN: it is admitted (the boundary is inclusive)

	allocations := grants.Optimize([]grants.GroupedOrder{candidate("u-1", 42.50)}, usd(42.50), nop)

	if len(allocations) != 1 {
		t.Fatalf("expected candidate at exact budget to be admitted, got %d allocations", len(allocations))
	}
	if !allocations[0].GrantAmount.Equal(usd(42.50)) {
		t.Errorf("expected full $42.50 grant, got %v", allocations[0].GrantAmount)
	}
}

func TestOptimize_EqualCost_UserIDTieBreak(t *testing.T) {
	// GIVEN: two candidates with identical cost for users "bob" and "alice"
	// WHEN: optimizing
	// THEN: "alice" is evaluated (and admitted) first

	candidates := []grants.GroupedOrder{
		candidate("bob", 20),
		candidate("alice", 20),
	}

	allocations := grants.Optimize(candidates, usd(100), nop)

	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if allocations[0].Email != "alice@example.com" {
		t.Errorf("expected alice first on equal cost, got %s", allocations[0].Email)
	}
}

func TestOptimize_NoCandidates_EmptyOutput(t *testing.T) {
	allocations := grants.Optimize(nil, usd(100), nop)
	if len(allocations) != 0 {
		t.Fatalf("expected empty output for no candidates, got %d", len(allocations))
	}
}

// =============================================================================
// INVARIANT PROPERTIES
// =============================================================================

func TestOptimize_BudgetInvariant(t *testing.T) {
	// GIVEN: assorted candidates and budgets
	// THEN: the allocated total never exceeds the budget

	cases := []struct {
		budget float64
		costs  []float64
	}{
		{100, []float64{30, 40, 50}},
		{10, []float64{4, 4, 4}},
		{0.01, []float64{0.01, 0.02}},
		{55.55, []float64{55.55, 0.01}},
		{7, []float64{8, 9, 10}},
	}

	for _, tc := range cases {
		var candidates []grants.GroupedOrder
		for i, c := range tc.costs {
			candidates = append(candidates, candidate(string(rune('a'+i)), c))
		}

		allocations := grants.Optimize(candidates, usd(tc.budget), nop)

		total := decimal.Zero
		for _, a := range allocations {
			total = total.Add(a.GrantAmount)
		}
		if total.GreaterThan(usd(tc.budget)) {
			t.Errorf("budget %v: allocated %v exceeds budget", tc.budget, total)
		}
	}
}

func TestOptimize_Deterministic(t *testing.T) {
	// GIVEN: identical input, run twice
	// THEN: identical output, including ordering

	make := func() []grants.GroupedOrder {
		return []grants.GroupedOrder{
			candidate("carol", 12),
			candidate("alice", 30),
			candidate("bob", 12),
			candidate("dave", 5),
		}
	}

	first := grants.Optimize(make(), usd(40), nop)
	second := grants.Optimize(make(), usd(40), nop)

	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Email != second[i].Email || !first[i].GrantAmount.Equal(second[i].GrantAmount) {
			t.Errorf("runs differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestOptimize_GreedyPrefixProperty(t *testing.T) {
	// GIVEN: any admitted allocation A
	// THEN: every strictly cheaper candidate was also admitted

	candidates := []grants.GroupedOrder{
		candidate("a", 10),
		candidate("b", 20),
		candidate("c", 30),
		candidate("d", 40),
	}

	allocations := grants.Optimize(candidates, usd(65), nop)

	admitted := make(map[string]decimal.Decimal)
	for _, a := range allocations {
		admitted[a.Email] = a.GrantAmount
	}

	for _, a := range allocations {
		for _, c := range candidates {
			if c.TotalUSDCost.LessThan(a.GrantAmount) {
				if _, ok := admitted[c.Email]; !ok {
					t.Errorf("candidate %s ($%v) cheaper than admitted $%v but not admitted",
						c.UserID, c.TotalUSDCost, a.GrantAmount)
				}
			}
		}
	}
}

func TestOptimize_AllOrNothing(t *testing.T) {
	// GIVEN: a candidate that does not fully fit the remaining budget
	// THEN: it receives nothing — no partial grants ever

	candidates := []grants.GroupedOrder{
		candidate("a", 60),
		candidate("b", 60),
	}

	allocations := grants.Optimize(candidates, usd(100), nop)

	if len(allocations) != 1 {
		t.Fatalf("expected exactly 1 allocation, got %d", len(allocations))
	}
	if !allocations[0].GrantAmount.Equal(usd(60)) {
		t.Errorf("allocation must equal the candidate's full cost, got %v", allocations[0].GrantAmount)
	}
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	// The optimizer sorts a copy; caller order must survive.

	candidates := []grants.GroupedOrder{
		candidate("z", 50),
		candidate("a", 10),
	}

	grants.Optimize(candidates, usd(100), nop)

	if candidates[0].UserID != "z" || candidates[1].UserID != "a" {
		t.Errorf("input slice was reordered: %s, %s", candidates[0].UserID, candidates[1].UserID)
	}
}
