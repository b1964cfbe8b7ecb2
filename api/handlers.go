/*
handlers.go - HTTP API handlers for the token shop

PURPOSE:
  Exposes the shop via REST API: catalog browsing, token redemption
  with balance checks, order history, and admin fulfillment. Handles
  HTTP request/response and JSON serialization; domain rules live in
  shop and the store.

ENDPOINTS:
  Shop:
    GET    /api/shop/items               List catalog
    GET    /api/shop/items/{id}          Get one item
    POST   /api/orders                   Redeem an item (balance-checked)

  Users:
    GET    /api/users/{id}/orders        Order history (self or admin)
    GET    /api/users/{id}/balance       Token balance (self or admin)

  Admin:
    GET    /api/admin/orders?status=     List orders by status
    GET    /api/admin/users              Users with balances
    POST   /api/admin/orders/{id}/fulfill  Mark fulfilled (mails third-party items)
    POST   /api/admin/orders/{id}/reject   Mark rejected
    POST   /api/admin/payouts            Credit tokens
    POST   /api/admin/items              Add a catalog entry

IDENTITY:
  The OAuth/session layer is an external collaborator; it authenticates
  the caller and forwards the Slack ID in the X-User-ID header. The
  admin gate is the user's is_admin flag.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient tokens
  - 401: Missing identity header
  - 403: Non-admin on admin routes
  - 404: Unknown user/item/order
  - 409: Order already left pending
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokenshop/grant-engine/mailapi"
	"github.com/tokenshop/grant-engine/shop"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store shop.Store

	// Mail is the third-party fulfillment client; nil disables mail
	// fulfillment (orders can still be marked fulfilled manually).
	Mail *mailapi.Client

	Log zerolog.Logger
}

// NewHandler creates a new handler with the given store.
func NewHandler(store shop.Store, mail *mailapi.Client, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Mail: mail, Log: log}
}

// caller returns the authenticated user, writing the error response
// itself when identity is missing or unknown.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) *shop.User {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return nil
	}

	u, err := h.Store.GetUser(r.Context(), userID)
	if errors.Is(err, shop.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "Unknown user", nil)
		return nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return nil
	}
	return u
}

// admin is caller plus the is_admin gate.
func (h *Handler) admin(w http.ResponseWriter, r *http.Request) *shop.User {
	u := h.caller(w, r)
	if u == nil {
		return nil
	}
	if !u.IsAdmin {
		writeError(w, http.StatusForbidden, "Admin access required", nil)
		return nil
	}
	return u
}

// =============================================================================
// SHOP HANDLERS
// =============================================================================

// ListItems returns the catalog. Admins also see fulfillment details.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}

	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ShopItemDTO, len(items))
	for i, item := range items {
		dtos[i] = itemDTO(item, u.IsAdmin)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetItem returns a single catalog entry.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}

	item, err := h.Store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, shop.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "Shop item not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get item", err)
		return
	}
	writeJSON(w, http.StatusOK, itemDTO(*item, u.IsAdmin))
}

// CreateOrder redeems an item: checks the caller's balance and creates
// a pending order at the item's current token price.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ShopItemID == "" {
		writeError(w, http.StatusBadRequest, "Shop item ID is required", nil)
		return
	}

	item, err := h.Store.GetItem(r.Context(), req.ShopItemID)
	if errors.Is(err, shop.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "Shop item not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get item", err)
		return
	}

	tokens, err := h.Store.TokenBalance(r.Context(), u.SlackID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	if tokens < item.Price {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "Insufficient tokens",
			"required":  item.Price,
			"available": tokens,
		})
		return
	}

	order := shop.ShopOrder{
		ID:           uuid.NewString(),
		ShopItemID:   item.ID,
		PriceAtOrder: item.Price,
		Status:       shop.OrderPending,
		CreatedAt:    time.Now().UTC(),
		UserID:       u.SlackID,
	}
	if err := h.Store.CreateOrder(r.Context(), order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}

	h.Log.Info().
		Str("order_id", order.ID).
		Str("user_id", u.SlackID).
		Str("item_id", item.ID).
		Msg("order created")

	writeJSON(w, http.StatusCreated, CreateOrderResponse{
		Order:           orderDTO(order),
		RemainingTokens: tokens - item.Price,
	})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUserOrders returns a user's order history. Self or admin only.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}

	target := chi.URLParam(r, "id")
	if target != u.SlackID && !u.IsAdmin {
		writeError(w, http.StatusForbidden, "Cannot view another user's orders", nil)
		return
	}

	orders, err := h.Store.ListOrdersByUser(r.Context(), target)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = orderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns a user's spendable token balance. Self or admin only.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}

	target := chi.URLParam(r, "id")
	if target != u.SlackID && !u.IsAdmin {
		writeError(w, http.StatusForbidden, "Cannot view another user's balance", nil)
		return
	}

	tokens, err := h.Store.TokenBalance(r.Context(), target)
	if errors.Is(err, shop.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{UserID: target, Tokens: tokens})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListOrders returns orders filtered by status (default pending).
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if h.admin(w, r) == nil {
		return
	}

	status := shop.OrderStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = shop.OrderPending
	}
	switch status {
	case shop.OrderPending, shop.OrderFulfilled, shop.OrderRejected:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status filter", nil)
		return
	}

	orders, err := h.Store.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = orderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListUsers returns every user with their derived balance.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if h.admin(w, r) == nil {
		return
	}

	users, err := h.Store.ListUsersWithTokens(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserWithTokensDTO, len(users))
	for i, u := range users {
		dtos[i] = UserWithTokensDTO{
			SlackID:     u.SlackID,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
			IsAdmin:     u.IsAdmin,
			Tokens:      u.Tokens,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// FulfillOrder marks a pending order fulfilled. Third-party items are
// first submitted to the mail service; the returned mail order ID is
// recorded on the order's memo.
func (h *Handler) FulfillOrder(w http.ResponseWriter, r *http.Request) {
	if h.admin(w, r) == nil {
		return
	}

	id := chi.URLParam(r, "id")
	order, err := h.Store.GetOrder(r.Context(), id)
	if errors.Is(err, shop.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}

	item, err := h.Store.GetItem(r.Context(), order.ShopItemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get item", err)
		return
	}

	memo := ""
	if item.Type == shop.ItemTypeThirdParty && h.Mail != nil {
		var req FulfillOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Mailing address required for third-party items", err)
			return
		}

		mailOrderID, err := h.Mail.SendOrder(r.Context(), mailapi.OrderPayload{
			Address: mailapi.Address{
				FirstName:    req.FirstName,
				LastName:     req.LastName,
				AddressLine1: req.AddressLine1,
				AddressLine2: req.AddressLine2,
				City:         req.City,
				State:        req.State,
				PostalCode:   req.PostalCode,
				Country:      req.Country,
				Email:        req.Email,
			},
			OrderText: fmt.Sprintf("%s x1 (%s)", item.Name, order.ID),
		})
		if err != nil {
			writeError(w, http.StatusBadGateway, "Mail service rejected the order", err)
			return
		}
		memo = "mail order " + mailOrderID
	}

	if err := h.setStatus(w, r, id, shop.OrderFulfilled, memo); err != nil {
		return
	}

	h.Log.Info().Str("order_id", id).Msg("order fulfilled")
	writeJSON(w, http.StatusOK, map[string]string{"status": string(shop.OrderFulfilled)})
}

// RejectOrder marks a pending order rejected, releasing its tokens.
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	if h.admin(w, r) == nil {
		return
	}

	var req RejectOrderRequest
	// Body is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)

	id := chi.URLParam(r, "id")
	if err := h.setStatus(w, r, id, shop.OrderRejected, req.Memo); err != nil {
		return
	}

	h.Log.Info().Str("order_id", id).Msg("order rejected")
	writeJSON(w, http.StatusOK, map[string]string{"status": string(shop.OrderRejected)})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, id string, status shop.OrderStatus, memo string) error {
	err := h.Store.SetOrderStatus(r.Context(), id, status, memo)
	switch {
	case errors.Is(err, shop.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found", nil)
	case errors.Is(err, shop.ErrOrderNotPending):
		writeError(w, http.StatusConflict, "Order is not pending", nil)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to update order", err)
	}
	return err
}

// CreatePayout credits tokens to a user.
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	if h.admin(w, r) == nil {
		return
	}

	var req CreatePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.Tokens <= 0 {
		writeError(w, http.StatusBadRequest, "user_id and a positive tokens amount are required", nil)
		return
	}

	payout := shop.Payout{
		ID:        uuid.NewString(),
		Tokens:    req.Tokens,
		UserID:    req.UserID,
		Memo:      req.Memo,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreatePayout(r.Context(), payout); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payout", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": payout.ID})
}

// CreateItem adds a catalog entry.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if h.admin(w, r) == nil {
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "name and a positive price are required", nil)
		return
	}

	itemType := shop.ItemType(req.Type)
	switch itemType {
	case shop.ItemTypeHCB, shop.ItemTypeThirdParty:
	default:
		writeError(w, http.StatusBadRequest, "type must be hcb or third_party", nil)
		return
	}

	usdCost := decimal.Zero
	if req.USDCost != "" {
		cost, err := decimal.NewFromString(req.USDCost)
		if err != nil || !cost.IsPositive() {
			writeError(w, http.StatusBadRequest, "usd_cost must be a positive decimal", err)
			return
		}
		usdCost = cost
	}
	if itemType == shop.ItemTypeHCB && !usdCost.IsPositive() {
		writeError(w, http.StatusBadRequest, "hcb items require a positive usd_cost", nil)
		return
	}

	item := shop.ShopItem{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		USDCost:     usdCost,
		Type:        itemType,
		HCBMids:     req.HCBMids,
	}
	if err := h.Store.CreateItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create item", err)
		return
	}

	writeJSON(w, http.StatusCreated, itemDTO(item, true))
}
