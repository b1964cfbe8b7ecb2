// Package store provides shop.Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tokenshop/grant-engine/shop"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	users   map[string]shop.User
	items   map[string]shop.ShopItem
	orders  map[string]shop.ShopOrder
	payouts map[string]shop.Payout

	// Insertion order, so listings are deterministic without timestamps.
	orderSeq  []string
	payoutSeq []string
}

var _ shop.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]shop.User),
		items:   make(map[string]shop.ShopItem),
		orders:  make(map[string]shop.ShopOrder),
		payouts: make(map[string]shop.Payout),
	}
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) UpsertUser(_ context.Context, u shop.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.SlackID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, slackID string) (*shop.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[slackID]
	if !ok {
		return nil, shop.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) TokenBalance(_ context.Context, slackID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.users[slackID]; !ok {
		return 0, shop.ErrUserNotFound
	}
	return m.balanceLocked(slackID), nil
}

func (m *Memory) balanceLocked(slackID string) int {
	var payouts []shop.Payout
	for _, p := range m.payouts {
		if p.UserID == slackID {
			payouts = append(payouts, p)
		}
	}
	var orders []shop.ShopOrder
	for _, o := range m.orders {
		if o.UserID == slackID {
			orders = append(orders, o)
		}
	}
	return shop.TokenBalance(payouts, orders)
}

func (m *Memory) ListUsersWithTokens(_ context.Context) ([]shop.UserWithTokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]shop.UserWithTokens, 0, len(m.users))
	for id, u := range m.users {
		result = append(result, shop.UserWithTokens{User: u, Tokens: m.balanceLocked(id)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SlackID < result[j].SlackID })
	return result, nil
}

// =============================================================================
// SHOP ITEMS
// =============================================================================

func (m *Memory) CreateItem(_ context.Context, item shop.ShopItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *Memory) GetItem(_ context.Context, id string) (*shop.ShopItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, shop.ErrItemNotFound
	}
	return &item, nil
}

func (m *Memory) ListItems(_ context.Context) ([]shop.ShopItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]shop.ShopItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

// =============================================================================
// ORDERS
// =============================================================================

func (m *Memory) CreateOrder(_ context.Context, o shop.ShopOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	m.orderSeq = append(m.orderSeq, o.ID)
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*shop.ShopOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, shop.ErrOrderNotFound
	}
	return &o, nil
}

func (m *Memory) ListOrdersByUser(_ context.Context, userID string) ([]shop.ShopOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []shop.ShopOrder
	// Newest first: walk insertion order backwards.
	for i := len(m.orderSeq) - 1; i >= 0; i-- {
		if o := m.orders[m.orderSeq[i]]; o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *Memory) ListOrdersByStatus(_ context.Context, status shop.OrderStatus) ([]shop.ShopOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []shop.ShopOrder
	for _, id := range m.orderSeq {
		if o := m.orders[id]; o.Status == status {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *Memory) SetOrderStatus(_ context.Context, id string, status shop.OrderStatus, memo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return shop.ErrOrderNotFound
	}
	if o.Status != shop.OrderPending {
		return shop.ErrOrderNotPending
	}

	o.Status = status
	if memo != "" {
		o.Memo = memo
	}
	m.orders[id] = o
	return nil
}

func (m *Memory) ListPendingGrantOrders(_ context.Context) ([]shop.PendingOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []shop.PendingOrder
	for _, id := range m.orderSeq {
		o := m.orders[id]
		if o.Status != shop.OrderPending {
			continue
		}
		item, ok := m.items[o.ShopItemID]
		if !ok || item.Type != shop.ItemTypeHCB || !item.USDCost.IsPositive() {
			continue
		}
		pending = append(pending, shop.PendingOrder{
			OrderID:      o.ID,
			UserID:       o.UserID,
			ItemID:       item.ID,
			ItemName:     item.Name,
			USDCost:      item.USDCost,
			PriceAtOrder: o.PriceAtOrder,
			CreatedAt:    o.CreatedAt,
			HCBMids:      item.HCBMids,
		})
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// =============================================================================
// PAYOUTS
// =============================================================================

func (m *Memory) CreatePayout(_ context.Context, p shop.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payouts[p.ID] = p
	m.payoutSeq = append(m.payoutSeq, p.ID)
	return nil
}

func (m *Memory) ListPayoutsByUser(_ context.Context, userID string) ([]shop.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var payouts []shop.Payout
	for i := len(m.payoutSeq) - 1; i >= 0; i-- {
		if p := m.payouts[m.payoutSeq[i]]; p.UserID == userID {
			payouts = append(payouts, p)
		}
	}
	return payouts, nil
}
