package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenshop/grant-engine/shop"
	"github.com/tokenshop/grant-engine/store"
	"github.com/tokenshop/grant-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newSeededStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, store.Seed(context.Background(), s))
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := shop.User{
		SlackID:     "U01TEST",
		DisplayName: "tester",
		AvatarURL:   "https://example.com/t.png",
		IsAdmin:     true,
		Country:     "CA",
	}
	require.NoError(t, s.UpsertUser(ctx, u))

	got, err := s.GetUser(ctx, "U01TEST")
	require.NoError(t, err)
	assert.Equal(t, u, *got)

	// Upsert overwrites in place.
	u.DisplayName = "renamed"
	require.NoError(t, s.UpsertUser(ctx, u))
	got, err = s.GetUser(ctx, "U01TEST")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.DisplayName)

	_, err = s.GetUser(ctx, "UNOBODY")
	assert.ErrorIs(t, err, shop.ErrUserNotFound)
}

func TestItemRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := shop.ShopItem{
		ID:          "item-test",
		Name:        "Test Item",
		Description: "desc",
		ImageURL:    "https://example.com/i.png",
		Price:       75,
		USDCost:     decimal.RequireFromString("12.50"),
		Type:        shop.ItemTypeHCB,
		HCBMids:     []string{"5814", "5812"},
	}
	require.NoError(t, s.CreateItem(ctx, item))

	got, err := s.GetItem(ctx, "item-test")
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.True(t, got.USDCost.Equal(item.USDCost), "decimal cost must survive storage")
	assert.Equal(t, item.HCBMids, got.HCBMids)

	_, err = s.GetItem(ctx, "no-such-item")
	assert.ErrorIs(t, err, shop.ErrItemNotFound)
}

func TestTokenBalance(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	// alice: 200 earned, two pending 50-token orders reserved
	balance, err := s.TokenBalance(ctx, "U01ALICE")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	// bob: 90 earned, one pending 30-token order
	balance, err = s.TokenBalance(ctx, "U02BOB")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	_, err = s.TokenBalance(ctx, "UNOBODY")
	assert.ErrorIs(t, err, shop.ErrUserNotFound)
}

func TestTokenBalance_FloorsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, shop.User{SlackID: "U01POOR"}))
	require.NoError(t, s.CreateItem(ctx, shop.ShopItem{ID: "item-x", Name: "X", Price: 10, Type: shop.ItemTypeThirdParty}))
	require.NoError(t, s.CreateOrder(ctx, shop.ShopOrder{
		ID: "o1", ShopItemID: "item-x", PriceAtOrder: 500,
		Status: shop.OrderFulfilled, UserID: "U01POOR", CreatedAt: time.Now(),
	}))

	balance, err := s.TokenBalance(ctx, "U01POOR")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestListPendingGrantOrders(t *testing.T) {
	// The seed has four pending orders but the sticker order is
	// third_party: only the three HCB orders feed the grant engine,
	// oldest first.

	s := newSeededStore(t)

	pending, err := s.ListPendingGrantOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 3)

	assert.Equal(t, "order-1", pending[0].OrderID)
	assert.Equal(t, "order-2", pending[1].OrderID)
	assert.Equal(t, "order-3", pending[2].OrderID)

	boba := pending[0]
	assert.Equal(t, "U01ALICE", boba.UserID)
	assert.Equal(t, "Boba Run", boba.ItemName)
	assert.True(t, boba.USDCost.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, []string{"5814"}, boba.HCBMids)
	assert.Equal(t, 50, boba.PriceAtOrder)
}

func TestListPendingGrantOrders_ExcludesTransitionedOrders(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetOrderStatus(ctx, "order-1", shop.OrderFulfilled, "grant sent"))
	require.NoError(t, s.SetOrderStatus(ctx, "order-2", shop.OrderRejected, ""))

	pending, err := s.ListPendingGrantOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "order-3", pending[0].OrderID)
}

func TestSetOrderStatus(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetOrderStatus(ctx, "order-1", shop.OrderFulfilled, "grant sent"))

	o, err := s.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, shop.OrderFulfilled, o.Status)
	assert.Equal(t, "grant sent", o.Memo)

	// Already transitioned.
	err = s.SetOrderStatus(ctx, "order-1", shop.OrderRejected, "")
	assert.ErrorIs(t, err, shop.ErrOrderNotPending)

	// Unknown order.
	err = s.SetOrderStatus(ctx, "no-such-order", shop.OrderFulfilled, "")
	assert.ErrorIs(t, err, shop.ErrOrderNotFound)
}

func TestSetOrderStatus_EmptyMemoKeepsExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, shop.User{SlackID: "U01A"}))
	require.NoError(t, s.CreateItem(ctx, shop.ShopItem{ID: "i1", Name: "I", Price: 1, Type: shop.ItemTypeThirdParty}))
	require.NoError(t, s.CreateOrder(ctx, shop.ShopOrder{
		ID: "o1", ShopItemID: "i1", PriceAtOrder: 1, Status: shop.OrderPending,
		Memo: "original memo", UserID: "U01A", CreatedAt: time.Now(),
	}))

	require.NoError(t, s.SetOrderStatus(ctx, "o1", shop.OrderRejected, ""))

	o, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "original memo", o.Memo)
}

func TestListOrders(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	aliceOrders, err := s.ListOrdersByUser(ctx, "U01ALICE")
	require.NoError(t, err)
	require.Len(t, aliceOrders, 2)
	// Newest first.
	assert.Equal(t, "order-2", aliceOrders[0].ID)

	pending, err := s.ListOrdersByStatus(ctx, shop.OrderPending)
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	fulfilled, err := s.ListOrdersByStatus(ctx, shop.OrderFulfilled)
	require.NoError(t, err)
	assert.Empty(t, fulfilled)
}

func TestListUsersWithTokens(t *testing.T) {
	s := newSeededStore(t)

	users, err := s.ListUsersWithTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, "U01ALICE", users[0].SlackID)
	assert.Equal(t, 100, users[0].Tokens)
	assert.Equal(t, "U03CAROL", users[2].SlackID)
	assert.Equal(t, 280, users[2].Tokens)
}

func TestPayouts(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	payouts, err := s.ListPayoutsByUser(ctx, "U01ALICE")
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, 200, payouts[0].Tokens)

	require.NoError(t, s.CreatePayout(ctx, shop.Payout{
		ID: "payout-extra", Tokens: 25, UserID: "U01ALICE", Memo: "bonus", CreatedAt: time.Now(),
	}))

	payouts, err = s.ListPayoutsByUser(ctx, "U01ALICE")
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	// Newest first.
	assert.Equal(t, "payout-extra", payouts[0].ID)

	balance, err := s.TokenBalance(ctx, "U01ALICE")
	require.NoError(t, err)
	assert.Equal(t, 125, balance)
}
