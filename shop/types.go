/*
Package shop defines the domain model for the token shop.

PURPOSE:
  This package contains the core types shared by the storage layer, the
  HTTP surface, and the grant engine: users, catalog items, redemption
  orders, and payouts. Users earn tokens through payouts and spend them
  by redeeming catalog items; redemptions become pending orders that are
  fulfilled either through a budgeted cash-grant run (HCB items) or a
  third-party mail service.

KEY CONCEPTS IN THIS FILE (types.go):
  - User: A shop account, identified by Slack ID
  - ShopItem: A catalog entry with a token price and (for HCB items) a
    USD cost and merchant locks
  - ShopOrder: One redemption request with a status lifecycle
  - Payout: A token-earning event (the credit side of the balance)
  - PendingOrder: The joined order+item row the grant engine consumes

DESIGN PRINCIPLES:
  1. Precision: USD amounts use decimal.Decimal, never float64
  2. Token balances are derived, never stored (see balance.go)
  3. Order status transitions happen in storage, not in domain types

SEE ALSO:
  - balance.go: Token balance calculation rules
  - errors.go: Domain error types
  - store/sqlite: Persistence
*/
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ITEM TYPES AND ORDER STATUS
// =============================================================================

// ItemType determines how a redeemed item is fulfilled.
type ItemType string

const (
	// ItemTypeHCB items are fulfilled by issuing a cash grant through the
	// HCB payment system during a grant-giver run.
	ItemTypeHCB ItemType = "hcb"

	// ItemTypeThirdParty items are fulfilled by physical mail through the
	// external mail service.
	ItemTypeThirdParty ItemType = "third_party"
)

// OrderStatus is the lifecycle state of a redemption order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderRejected  OrderStatus = "rejected"
)

// =============================================================================
// CORE RECORDS
// =============================================================================

// User is a shop account. The Slack ID is the primary identifier
// throughout the system.
type User struct {
	SlackID        string
	DisplayName    string
	AvatarURL      string
	IsAdmin        bool
	Country        string
	YSWSDbFulfilled bool
}

// ShopItem is a catalog entry. Price is in tokens. USDCost is only set
// for HCB items and is the dollar amount granted per redemption.
// HCBMids carries merchant-lock identifiers restricting where a grant
// may be spent; empty means unrestricted.
type ShopItem struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       int
	USDCost     decimal.Decimal
	Type        ItemType
	HCBMids     []string
}

// ShopOrder is one redemption request. PriceAtOrder captures the token
// price at redemption time so later catalog edits do not rewrite history.
type ShopOrder struct {
	ID           string
	ShopItemID   string
	PriceAtOrder int
	Status       OrderStatus
	Memo         string
	CreatedAt    time.Time
	UserID       string
}

// Payout is a token-earning event, recorded externally and read-only
// here. It is the credit side of the token balance.
type Payout struct {
	ID        string
	Tokens    int
	UserID    string
	Memo      string
	CreatedAt time.Time
}

// =============================================================================
// PENDING ORDER - The allocator's input row
// =============================================================================

// PendingOrder is a pending HCB redemption joined with its item
// metadata, the exact shape the grant engine consumes. The store only
// produces rows with a strictly positive USDCost and non-empty user and
// item identifiers.
type PendingOrder struct {
	OrderID      string
	UserID       string
	ItemID       string
	ItemName     string
	USDCost      decimal.Decimal
	PriceAtOrder int
	CreatedAt    time.Time
	HCBMids      []string
}
