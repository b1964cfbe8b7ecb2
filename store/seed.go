/*
seed.go - Demo fixtures for local development

PURPOSE:
  Loads a small, deterministic data set into any shop.Store: a few
  users with payouts, a mixed catalog (HCB and third-party items), and
  pending redemptions. Useful for poking at the API locally and for
  dry-running the grant giver against known data.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokenshop/grant-engine/shop"
)

// Seed loads the demo fixtures. Idempotency is not a goal; call it on
// an empty store.
func Seed(ctx context.Context, s shop.Store) error {
	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

	users := []shop.User{
		{SlackID: "U01ALICE", DisplayName: "alice", AvatarURL: "https://example.com/a.png"},
		{SlackID: "U02BOB", DisplayName: "bob", AvatarURL: "https://example.com/b.png"},
		{SlackID: "U03CAROL", DisplayName: "carol", AvatarURL: "https://example.com/c.png", IsAdmin: true},
	}
	for _, u := range users {
		if err := s.UpsertUser(ctx, u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.SlackID, err)
		}
	}

	items := []shop.ShopItem{
		{
			ID: "item-boba", Name: "Boba Run", Description: "A bubble tea on us",
			ImageURL: "https://example.com/boba.png", Price: 50,
			USDCost: decimal.NewFromInt(8), Type: shop.ItemTypeHCB,
			HCBMids: []string{"5814"},
		},
		{
			ID: "item-domain", Name: "Domain for a Year", Description: "One year of any domain",
			ImageURL: "https://example.com/domain.png", Price: 120,
			USDCost: decimal.NewFromInt(15), Type: shop.ItemTypeHCB,
		},
		{
			ID: "item-stickers", Name: "Sticker Pack", Description: "Mailed to your door",
			ImageURL: "https://example.com/stickers.png", Price: 30,
			Type: shop.ItemTypeThirdParty,
		},
	}
	for _, item := range items {
		if err := s.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("seeding item %s: %w", item.ID, err)
		}
	}

	payouts := []shop.Payout{
		{ID: "payout-1", Tokens: 200, UserID: "U01ALICE", Memo: "project ship", CreatedAt: base},
		{ID: "payout-2", Tokens: 90, UserID: "U02BOB", Memo: "project ship", CreatedAt: base.Add(time.Hour)},
		{ID: "payout-3", Tokens: 400, UserID: "U03CAROL", Memo: "project ship", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, p := range payouts {
		if err := s.CreatePayout(ctx, p); err != nil {
			return fmt.Errorf("seeding payout %s: %w", p.ID, err)
		}
	}

	orders := []shop.ShopOrder{
		{ID: "order-1", ShopItemID: "item-boba", PriceAtOrder: 50, Status: shop.OrderPending, CreatedAt: base.Add(24 * time.Hour), UserID: "U01ALICE"},
		{ID: "order-2", ShopItemID: "item-boba", PriceAtOrder: 50, Status: shop.OrderPending, CreatedAt: base.Add(25 * time.Hour), UserID: "U01ALICE"},
		{ID: "order-3", ShopItemID: "item-domain", PriceAtOrder: 120, Status: shop.OrderPending, CreatedAt: base.Add(26 * time.Hour), UserID: "U03CAROL"},
		{ID: "order-4", ShopItemID: "item-stickers", PriceAtOrder: 30, Status: shop.OrderPending, CreatedAt: base.Add(27 * time.Hour), UserID: "U02BOB"},
	}
	for _, o := range orders {
		if err := s.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("seeding order %s: %w", o.ID, err)
		}
	}

	return nil
}
