/*
Package sqlite provides a SQLite-backed implementation of the shop
storage interfaces.

PURPOSE:
  Implements shop.Store using SQLite. In production the same patterns
  apply to PostgreSQL — only minor SQL dialect differences (the original
  deployment ran Postgres with an identical schema).

KEY TABLES:
  users:       Shop accounts keyed by Slack ID
  shop_items:  Catalog entries (token price, USD cost, merchant locks)
  shop_orders: Redemption orders with a pending/fulfilled/rejected status
  payouts:     Token-earning records (the credit side of balances)

DERIVED DATA:
  Token balances are computed per query from payouts minus the
  price-at-order of pending and fulfilled orders, floored at zero. There
  is no balance column to drift.

THE GRANT QUERY:
  ListPendingGrantOrders is the grant engine's exact input predicate:
  status = pending AND item type = hcb AND usd_cost > 0, joined with
  item metadata, ordered by creation time.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/shop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - shop/store.go: Interface definitions
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tokenshop/grant-engine/shop"
)

// Store implements shop.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ shop.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Shop accounts, keyed by Slack ID
	CREATE TABLE IF NOT EXISTS users (
		slack_id TEXT PRIMARY KEY,
		display_name TEXT,
		avatar_url TEXT NOT NULL DEFAULT '',
		is_admin INTEGER NOT NULL DEFAULT 0,
		country TEXT,
		ysws_db_fulfilled INTEGER NOT NULL DEFAULT 0
	);

	-- Catalog
	CREATE TABLE IF NOT EXISTS shop_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		price INTEGER NOT NULL,
		usd_cost TEXT,
		type TEXT,
		hcb_mids_json TEXT
	);

	-- Redemption orders
	CREATE TABLE IF NOT EXISTS shop_orders (
		id TEXT PRIMARY KEY,
		shop_item_id TEXT NOT NULL REFERENCES shop_items(id),
		price_at_order INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		memo TEXT,
		created_at TEXT NOT NULL,
		user_id TEXT NOT NULL REFERENCES users(slack_id)
	);

	CREATE INDEX IF NOT EXISTS idx_shop_orders_user_id
		ON shop_orders(user_id);
	CREATE INDEX IF NOT EXISTS idx_shop_orders_shop_item_id
		ON shop_orders(shop_item_id);
	CREATE INDEX IF NOT EXISTS idx_shop_orders_status
		ON shop_orders(status);
	CREATE INDEX IF NOT EXISTS idx_shop_orders_created_at
		ON shop_orders(created_at);

	-- Token-earning records
	CREATE TABLE IF NOT EXISTS payouts (
		id TEXT PRIMARY KEY,
		tokens INTEGER NOT NULL,
		user_id TEXT NOT NULL REFERENCES users(slack_id),
		memo TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payouts_user_id
		ON payouts(user_id);
	CREATE INDEX IF NOT EXISTS idx_payouts_created_at
		ON payouts(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

// UpsertUser creates or updates a user keyed by Slack ID.
func (s *Store) UpsertUser(ctx context.Context, u shop.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (slack_id, display_name, avatar_url, is_admin, country, ysws_db_fulfilled)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slack_id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			is_admin = excluded.is_admin,
			country = excluded.country,
			ysws_db_fulfilled = excluded.ysws_db_fulfilled`,
		u.SlackID, u.DisplayName, u.AvatarURL, boolToInt(u.IsAdmin), u.Country, boolToInt(u.YSWSDbFulfilled))
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", u.SlackID, err)
	}
	return nil
}

// GetUser returns a user, or shop.ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, slackID string) (*shop.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT slack_id, display_name, avatar_url, is_admin, country, ysws_db_fulfilled
		FROM users WHERE slack_id = ?`, slackID)

	var u shop.User
	var isAdmin, fulfilled int
	var displayName, country sql.NullString
	err := row.Scan(&u.SlackID, &displayName, &u.AvatarURL, &isAdmin, &country, &fulfilled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shop.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", slackID, err)
	}

	u.DisplayName = displayName.String
	u.Country = country.String
	u.IsAdmin = isAdmin != 0
	u.YSWSDbFulfilled = fulfilled != 0
	return &u, nil
}

// balanceSQL derives the spendable token balance for one user.
// Pending orders count as spent; the balance never reports negative.
const balanceSQL = `
	MAX(
		COALESCE((SELECT SUM(tokens) FROM payouts WHERE user_id = u.slack_id), 0) -
		COALESCE((SELECT SUM(price_at_order) FROM shop_orders
			WHERE user_id = u.slack_id AND status IN ('pending', 'fulfilled')), 0),
		0
	)`

// TokenBalance returns the user's derived spendable balance.
func (s *Store) TokenBalance(ctx context.Context, slackID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+balanceSQL+` FROM users u WHERE u.slack_id = ?`, slackID)

	var tokens int
	err := row.Scan(&tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, shop.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("computing balance for %s: %w", slackID, err)
	}
	return tokens, nil
}

// ListUsersWithTokens returns every user with their derived balance.
func (s *Store) ListUsersWithTokens(ctx context.Context) ([]shop.UserWithTokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.slack_id, u.display_name, u.avatar_url, u.is_admin, u.country, u.ysws_db_fulfilled,
			`+balanceSQL+`
		FROM users u
		ORDER BY u.slack_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var result []shop.UserWithTokens
	for rows.Next() {
		var u shop.UserWithTokens
		var isAdmin, fulfilled int
		var displayName, country sql.NullString
		if err := rows.Scan(&u.SlackID, &displayName, &u.AvatarURL, &isAdmin, &country, &fulfilled, &u.Tokens); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.DisplayName = displayName.String
		u.Country = country.String
		u.IsAdmin = isAdmin != 0
		u.YSWSDbFulfilled = fulfilled != 0
		result = append(result, u)
	}
	return result, rows.Err()
}

// =============================================================================
// SHOP ITEMS
// =============================================================================

// CreateItem inserts a catalog entry.
func (s *Store) CreateItem(ctx context.Context, item shop.ShopItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mids, err := marshalMids(item.HCBMids)
	if err != nil {
		return err
	}

	var usdCost any
	if item.USDCost.IsPositive() {
		usdCost = item.USDCost.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shop_items (id, name, description, image_url, price, usd_cost, type, hcb_mids_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Description, item.ImageURL, item.Price, usdCost, string(item.Type), mids)
	if err != nil {
		return fmt.Errorf("creating item %s: %w", item.ID, err)
	}
	return nil
}

// GetItem returns an item, or shop.ErrItemNotFound.
func (s *Store) GetItem(ctx context.Context, id string) (*shop.ShopItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, image_url, price, usd_cost, type, hcb_mids_json
		FROM shop_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shop.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	return item, nil
}

// ListItems returns the full catalog.
func (s *Store) ListItems(ctx context.Context) ([]shop.ShopItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, image_url, price, usd_cost, type, hcb_mids_json
		FROM shop_items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []shop.ShopItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*shop.ShopItem, error) {
	var item shop.ShopItem
	var usdCost, itemType, mids sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.ImageURL,
		&item.Price, &usdCost, &itemType, &mids); err != nil {
		return nil, err
	}

	if usdCost.Valid {
		cost, err := decimal.NewFromString(usdCost.String)
		if err != nil {
			return nil, fmt.Errorf("parsing usd_cost %q: %w", usdCost.String, err)
		}
		item.USDCost = cost
	}
	item.Type = shop.ItemType(itemType.String)

	if mids.Valid && mids.String != "" {
		if err := json.Unmarshal([]byte(mids.String), &item.HCBMids); err != nil {
			return nil, fmt.Errorf("parsing hcb_mids: %w", err)
		}
	}
	return &item, nil
}

func marshalMids(mids []string) (any, error) {
	if len(mids) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(mids)
	if err != nil {
		return nil, fmt.Errorf("marshaling hcb mids: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// ORDERS
// =============================================================================

// CreateOrder inserts a redemption order.
func (s *Store) CreateOrder(ctx context.Context, o shop.ShopOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shop_orders (id, shop_item_id, price_at_order, status, memo, created_at, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ShopItemID, o.PriceAtOrder, string(o.Status), o.Memo,
		o.CreatedAt.UTC().Format(time.RFC3339Nano), o.UserID)
	if err != nil {
		return fmt.Errorf("creating order %s: %w", o.ID, err)
	}
	return nil
}

// GetOrder returns an order, or shop.ErrOrderNotFound.
func (s *Store) GetOrder(ctx context.Context, id string) (*shop.ShopOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, shop_item_id, price_at_order, status, memo, created_at, user_id
		FROM shop_orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shop.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}
	return o, nil
}

// ListOrdersByUser returns a user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]shop.ShopOrder, error) {
	return s.listOrders(ctx, `
		SELECT id, shop_item_id, price_at_order, status, memo, created_at, user_id
		FROM shop_orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListOrdersByStatus returns orders in one status, oldest first.
func (s *Store) ListOrdersByStatus(ctx context.Context, status shop.OrderStatus) ([]shop.ShopOrder, error) {
	return s.listOrders(ctx, `
		SELECT id, shop_item_id, price_at_order, status, memo, created_at, user_id
		FROM shop_orders WHERE status = ? ORDER BY created_at`, string(status))
}

func (s *Store) listOrders(ctx context.Context, query string, arg any) ([]shop.ShopOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []shop.ShopOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(row scanner) (*shop.ShopOrder, error) {
	var o shop.ShopOrder
	var status, createdAt string
	var memo sql.NullString
	if err := row.Scan(&o.ID, &o.ShopItemID, &o.PriceAtOrder, &status, &memo, &createdAt, &o.UserID); err != nil {
		return nil, err
	}
	o.Status = shop.OrderStatus(status)
	o.Memo = memo.String

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	o.CreatedAt = t
	return &o, nil
}

// SetOrderStatus transitions a pending order to fulfilled or rejected.
// The WHERE clause on status makes the transition race-free: a second
// caller finds zero rows updated.
func (s *Store) SetOrderStatus(ctx context.Context, id string, status shop.OrderStatus, memo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE shop_orders
		SET status = ?, memo = CASE WHEN ? != '' THEN ? ELSE memo END
		WHERE id = ? AND status = 'pending'`,
		string(status), memo, memo, id)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating order %s: %w", id, err)
	}
	if n == 0 {
		// Distinguish a missing order from one already transitioned.
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM shop_orders WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking order %s: %w", id, err)
		}
		if exists == 0 {
			return shop.ErrOrderNotFound
		}
		return shop.ErrOrderNotPending
	}
	return nil
}

// ListPendingGrantOrders returns pending orders for HCB items with a
// positive USD cost, joined with item metadata, ordered by creation
// time. This is the grant engine's input query.
func (s *Store) ListPendingGrantOrders(ctx context.Context) ([]shop.PendingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.user_id, i.id, i.name, i.usd_cost, o.price_at_order, o.created_at, i.hcb_mids_json
		FROM shop_orders o
		INNER JOIN shop_items i ON o.shop_item_id = i.id
		WHERE o.status = 'pending'
		  AND i.type = 'hcb'
		  AND i.usd_cost IS NOT NULL
		  AND CAST(i.usd_cost AS REAL) > 0
		ORDER BY o.created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing pending grant orders: %w", err)
	}
	defer rows.Close()

	var pending []shop.PendingOrder
	for rows.Next() {
		var p shop.PendingOrder
		var usdCost, createdAt string
		var mids sql.NullString
		if err := rows.Scan(&p.OrderID, &p.UserID, &p.ItemID, &p.ItemName,
			&usdCost, &p.PriceAtOrder, &createdAt, &mids); err != nil {
			return nil, fmt.Errorf("scanning pending order: %w", err)
		}

		cost, err := decimal.NewFromString(usdCost)
		if err != nil {
			return nil, fmt.Errorf("parsing usd_cost %q: %w", usdCost, err)
		}
		p.USDCost = cost

		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		p.CreatedAt = t

		if mids.Valid && mids.String != "" {
			if err := json.Unmarshal([]byte(mids.String), &p.HCBMids); err != nil {
				return nil, fmt.Errorf("parsing hcb_mids: %w", err)
			}
		}

		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// =============================================================================
// PAYOUTS
// =============================================================================

// CreatePayout inserts a token-earning record.
func (s *Store) CreatePayout(ctx context.Context, p shop.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payouts (id, tokens, user_id, memo, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Tokens, p.UserID, p.Memo, p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating payout %s: %w", p.ID, err)
	}
	return nil
}

// ListPayoutsByUser returns a user's payouts, newest first.
func (s *Store) ListPayoutsByUser(ctx context.Context, userID string) ([]shop.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tokens, user_id, memo, created_at
		FROM payouts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing payouts: %w", err)
	}
	defer rows.Close()

	var payouts []shop.Payout
	for rows.Next() {
		var p shop.Payout
		var memo sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Tokens, &p.UserID, &memo, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning payout: %w", err)
		}
		p.Memo = memo.String
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		p.CreatedAt = t
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
