/*
store.go - Storage interface definitions

PURPOSE:
  Defines the persistence contract the rest of the system depends on.
  Implementations live elsewhere (store/sqlite for production,
  store.Memory for tests). Keeping the interface here lets domain and
  API code depend on shop without importing a driver.

INTERFACE SEGMENTS:
  UserStore:   Account records and derived balances
  ItemStore:   Catalog management
  OrderStore:  Redemption lifecycle + the grant engine's pending query
  PayoutStore: Token-earning records

SEE ALSO:
  - store/sqlite/sqlite.go: SQLite implementation
  - store/memory.go: In-memory implementation
  - grants/runner.go: Consumes OrderStore through a narrower interface
*/
package shop

import "context"

// UserStore manages account records.
type UserStore interface {
	// UpsertUser creates or updates a user keyed by Slack ID.
	UpsertUser(ctx context.Context, u User) error

	// GetUser returns a user, or ErrUserNotFound.
	GetUser(ctx context.Context, slackID string) (*User, error)

	// TokenBalance returns the user's derived spendable balance.
	TokenBalance(ctx context.Context, slackID string) (int, error)

	// ListUsersWithTokens returns every user with their derived balance.
	ListUsersWithTokens(ctx context.Context) ([]UserWithTokens, error)
}

// ItemStore manages the catalog.
type ItemStore interface {
	CreateItem(ctx context.Context, item ShopItem) error

	// GetItem returns an item, or ErrItemNotFound.
	GetItem(ctx context.Context, id string) (*ShopItem, error)

	ListItems(ctx context.Context) ([]ShopItem, error)
}

// OrderStore manages redemption orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o ShopOrder) error

	// GetOrder returns an order, or ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*ShopOrder, error)

	ListOrdersByUser(ctx context.Context, userID string) ([]ShopOrder, error)
	ListOrdersByStatus(ctx context.Context, status OrderStatus) ([]ShopOrder, error)

	// SetOrderStatus transitions an order out of pending. Returns
	// ErrOrderNotPending if it already left that state.
	SetOrderStatus(ctx context.Context, id string, status OrderStatus, memo string) error

	// ListPendingGrantOrders returns pending orders for HCB items with a
	// positive USD cost, joined with item metadata, ordered by creation
	// time. This is the grant engine's input query.
	ListPendingGrantOrders(ctx context.Context) ([]PendingOrder, error)
}

// PayoutStore manages token-earning records.
type PayoutStore interface {
	CreatePayout(ctx context.Context, p Payout) error
	ListPayoutsByUser(ctx context.Context, userID string) ([]Payout, error)
}

// Store is the full persistence contract.
type Store interface {
	UserStore
	ItemStore
	OrderStore
	PayoutStore
}
