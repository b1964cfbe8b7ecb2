/*
Package grants implements the budgeted grant allocation engine.

PURPOSE:
  Turns pending HCB redemption orders into funded cash-grant requests
  under a hard budget ceiling. The pipeline:

    pending orders ──┐
                     ├─> filter (allow-list) ─> resolve contacts
    budget ──────────┤          ─> aggregate per (user, item)
                     └─> optimize (greedy smallest-first)
                               ─> build grant requests
                               ─> report + export audit record

KEY CONCEPTS IN THIS FILE (types.go):
  - GroupedOrder:    Per-(user, item) allocation candidate
  - GrantAllocation: A candidate admitted into the funded set
  - GrantRequest:    The payment system's wire shape (integer cents)
  - Collaborator interfaces (BudgetSource, AllowListSource,
    ContactResolver, OrderSource, ExportSink) — injected so tests can
    substitute fakes

DESIGN PRINCIPLES:
  1. Determinism: identical input always produces identical output,
     bit for bit, including ordering
  2. All-or-nothing: a candidate is funded at full cost or not at all
  3. Precision: dollar amounts are decimal.Decimal end to end
  4. Auditability: every run writes a self-contained export record

SEE ALSO:
  - aggregate.go: PendingOrder -> GroupedOrder fold
  - optimize.go:  The greedy allocation pass
  - requests.go:  GrantAllocation -> GrantRequest
  - runner.go:    Orchestration and error taxonomy
*/
package grants

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokenshop/grant-engine/shop"
)

// =============================================================================
// ALLOCATION TYPES
// =============================================================================

// GroupedOrder is the per-(user, item) aggregation unit the optimizer
// operates on. It is derived fresh each run and never persisted.
//
// Invariants: Quantity == len(OrderIDs); TotalUSDCost is the sum of the
// constituent order costs; OrderIDs preserves discovery order.
type GroupedOrder struct {
	UserID           string
	Email            string
	ItemID           string
	ItemName         string
	Quantity         int
	TotalUSDCost     decimal.Decimal
	OrderIDs         []string
	TotalTokensSpent int
	HCBMids          []string
}

// GrantAllocation is a GroupedOrder admitted into the funded set.
// GrantAmount always equals the source group's TotalUSDCost — there are
// no partial grants.
type GrantAllocation struct {
	Email       string
	GrantAmount decimal.Decimal
	ItemName    string
	Quantity    int
	OrderIDs    []string
	HCBMids     []string
}

// GrantRequest is the payment system's input shape. Amounts are integer
// cents; the lock fields are null when unset, matching the external
// API's contract.
type GrantRequest struct {
	AmountCents  int64   `json:"amount_cents"`
	Email        string  `json:"email"`
	MerchantLock *string `json:"merchant_lock"`
	CategoryLock *string `json:"category_lock"`
	KeywordLock  *string `json:"keyword_lock"`
	Purpose      string  `json:"purpose"`
}

// =============================================================================
// RUN RESULT
// =============================================================================

// Result is everything a completed allocation run produced. The runner
// hands it to the report and export sinks unchanged.
type Result struct {
	Budget         decimal.Decimal
	Grouped        []GroupedOrder
	Allocations    []GrantAllocation
	Unfulfilled    []GroupedOrder
	Requests       []GrantRequest
	TotalAllocated decimal.Decimal
	StartedAt      time.Time
}

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// BudgetSource fetches the current spendable budget in dollars.
// A failure here is fatal to the run: no allocation happens without a
// budget ceiling.
type BudgetSource interface {
	FetchBudget(ctx context.Context) (decimal.Decimal, error)
}

// AllowListSource fetches the set of approved user identifiers. A
// failure degrades the run to unfiltered rather than aborting it.
type AllowListSource interface {
	FetchApprovedUserIDs(ctx context.Context) (map[string]struct{}, error)
}

// ContactResolver maps a user identifier to the contact address the
// payment system requires. Returning ("", nil) means the user has no
// resolvable address; their orders are excluded from the run.
type ContactResolver interface {
	ResolveContact(ctx context.Context, userID string) (string, error)
}

// OrderSource provides the pending-order query. shop.Store satisfies it.
type OrderSource interface {
	ListPendingGrantOrders(ctx context.Context) ([]shop.PendingOrder, error)
}

// ExportSink persists the structured audit record of a run and returns
// the key it was stored under. An export failure is fatal: a run whose
// audit trail cannot be written did not happen.
type ExportSink interface {
	Export(ctx context.Context, rec ExportRecord) (string, error)
}
