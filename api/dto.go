/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/tokenshop/grant-engine/shop"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ShopItemDTO represents a catalog entry in API responses. The USD cost
// and merchant locks are internal fulfillment details and are only
// included for admins.
type ShopItemDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Price       int      `json:"price"`
	USDCost     string   `json:"usd_cost,omitempty"`
	Type        string   `json:"type,omitempty"`
	HCBMids     []string `json:"hcb_mids,omitempty"`
}

// CreateItemRequest is the admin request to add a catalog entry.
type CreateItemRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Price       int      `json:"price"`
	USDCost     string   `json:"usd_cost,omitempty"`
	Type        string   `json:"type"`
	HCBMids     []string `json:"hcb_mids,omitempty"`
}

// CreateOrderRequest is a redemption request.
type CreateOrderRequest struct {
	ShopItemID string `json:"shop_item_id"`
}

// OrderDTO represents an order in API responses.
type OrderDTO struct {
	ID           string `json:"id"`
	ShopItemID   string `json:"shop_item_id"`
	PriceAtOrder int    `json:"price_at_order"`
	Status       string `json:"status"`
	Memo         string `json:"memo,omitempty"`
	CreatedAt    string `json:"created_at"`
	UserID       string `json:"user_id"`
}

// CreateOrderResponse confirms a redemption and reports the balance
// left after the tokens were reserved.
type CreateOrderResponse struct {
	Order           OrderDTO `json:"order"`
	RemainingTokens int      `json:"remaining_tokens"`
}

// BalanceDTO reports a user's spendable token balance.
type BalanceDTO struct {
	UserID string `json:"user_id"`
	Tokens int    `json:"tokens"`
}

// UserWithTokensDTO is the admin listing of users and balances.
type UserWithTokensDTO struct {
	SlackID     string `json:"slack_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsAdmin     bool   `json:"is_admin"`
	Tokens      int    `json:"tokens"`
}

// CreatePayoutRequest is the admin request to credit tokens.
type CreatePayoutRequest struct {
	UserID string `json:"user_id"`
	Tokens int    `json:"tokens"`
	Memo   string `json:"memo,omitempty"`
}

// RejectOrderRequest optionally carries a reason recorded on the order.
type RejectOrderRequest struct {
	Memo string `json:"memo,omitempty"`
}

// FulfillOrderRequest carries the mailing address for third-party
// items. HCB items need no body; their grants go out in batch runs.
type FulfillOrderRequest struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	Email        string `json:"email,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func orderDTO(o shop.ShopOrder) OrderDTO {
	return OrderDTO{
		ID:           o.ID,
		ShopItemID:   o.ShopItemID,
		PriceAtOrder: o.PriceAtOrder,
		Status:       string(o.Status),
		Memo:         o.Memo,
		CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
		UserID:       o.UserID,
	}
}

func itemDTO(item shop.ShopItem, admin bool) ShopItemDTO {
	dto := ShopItemDTO{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		Price:       item.Price,
	}
	if admin {
		if item.USDCost.IsPositive() {
			dto.USDCost = item.USDCost.StringFixed(2)
		}
		dto.Type = string(item.Type)
		dto.HCBMids = item.HCBMids
	}
	return dto
}
