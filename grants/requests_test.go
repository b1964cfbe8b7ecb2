package grants_test

import (
	"testing"

	"github.com/tokenshop/grant-engine/grants"
)

func TestBuildRequests_CentsConversion(t *testing.T) {
	// GIVEN: allocations with sub-cent dollar edges
	// THEN: cents are rounded half away from zero

	cases := []struct {
		dollars float64
		cents   int64
	}{
		{8, 800},
		{8.50, 850},
		{0.01, 1},
		{10.005, 1001},
		{10.004, 1000},
	}

	for _, tc := range cases {
		allocs := []grants.GrantAllocation{{
			Email:       "alice@example.com",
			GrantAmount: usd(tc.dollars),
			ItemName:    "Boba Run",
			Quantity:    1,
		}}

		requests := grants.BuildRequests(allocs, nop)
		if len(requests) != 1 {
			t.Fatalf("expected 1 request, got %d", len(requests))
		}
		if requests[0].AmountCents != tc.cents {
			t.Errorf("$%v: expected %d cents, got %d", tc.dollars, tc.cents, requests[0].AmountCents)
		}
	}
}

func TestBuildRequests_PurposeTruncation(t *testing.T) {
	// The payment system caps purpose at 30 characters; no marker is
	// appended.

	longName := "An Extremely Long Item Name That Exceeds The Limit"
	allocs := []grants.GrantAllocation{{
		Email:       "alice@example.com",
		GrantAmount: usd(10),
		ItemName:    longName,
	}}

	requests := grants.BuildRequests(allocs, nop)

	if got := requests[0].Purpose; len(got) != 30 {
		t.Errorf("expected 30-char purpose, got %d: %q", len(got), got)
	}
	if requests[0].Purpose != longName[:30] {
		t.Errorf("expected prefix truncation, got %q", requests[0].Purpose)
	}

	// Short names pass through unchanged.
	allocs[0].ItemName = "Boba Run"
	requests = grants.BuildRequests(allocs, nop)
	if requests[0].Purpose != "Boba Run" {
		t.Errorf("short name should be untouched, got %q", requests[0].Purpose)
	}
}

func TestBuildRequests_MerchantLock(t *testing.T) {
	// Merchant IDs join with commas; no IDs means a null lock.

	withMids := []grants.GrantAllocation{{
		Email:       "alice@example.com",
		GrantAmount: usd(10),
		ItemName:    "Boba Run",
		HCBMids:     []string{"5814", "5812"},
	}}

	requests := grants.BuildRequests(withMids, nop)
	if requests[0].MerchantLock == nil {
		t.Fatal("expected merchant lock to be set")
	}
	if *requests[0].MerchantLock != "5814,5812" {
		t.Errorf("expected comma-joined lock, got %q", *requests[0].MerchantLock)
	}

	noMids := []grants.GrantAllocation{{
		Email:       "bob@example.com",
		GrantAmount: usd(10),
		ItemName:    "Domain",
	}}

	requests = grants.BuildRequests(noMids, nop)
	if requests[0].MerchantLock != nil {
		t.Errorf("expected null merchant lock, got %q", *requests[0].MerchantLock)
	}
	if requests[0].CategoryLock != nil || requests[0].KeywordLock != nil {
		t.Error("category and keyword locks must never be set")
	}
}

func TestComplement_PartitionsGroups(t *testing.T) {
	// GIVEN: three groups, two admitted
	// THEN: the complement is exactly the one left out, and together they
	//       cover every group

	grouped := []grants.GroupedOrder{
		{UserID: "alice", OrderIDs: []string{"o1", "o2"}},
		{UserID: "bob", OrderIDs: []string{"o3"}},
		{UserID: "carol", OrderIDs: []string{"o4"}},
	}
	allocations := []grants.GrantAllocation{
		{Email: "alice@example.com", OrderIDs: []string{"o1", "o2"}},
		{Email: "carol@example.com", OrderIDs: []string{"o4"}},
	}

	unfulfilled := grants.Complement(grouped, allocations)

	if len(unfulfilled) != 1 {
		t.Fatalf("expected 1 unfulfilled group, got %d", len(unfulfilled))
	}
	if unfulfilled[0].UserID != "bob" {
		t.Errorf("expected bob unfulfilled, got %s", unfulfilled[0].UserID)
	}

	if len(allocations)+len(unfulfilled) != len(grouped) {
		t.Errorf("allocations + unfulfilled must cover all groups: %d + %d != %d",
			len(allocations), len(unfulfilled), len(grouped))
	}
}

func TestComplement_NoAllocations_AllUnfulfilled(t *testing.T) {
	grouped := []grants.GroupedOrder{
		{UserID: "alice", OrderIDs: []string{"o1"}},
		{UserID: "bob", OrderIDs: []string{"o2"}},
	}

	unfulfilled := grants.Complement(grouped, nil)
	if len(unfulfilled) != 2 {
		t.Fatalf("expected everything unfulfilled, got %d", len(unfulfilled))
	}
}
