package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/pricing"
	"github.com/lbksmart/storefront/internal/service"
	"github.com/lbksmart/storefront/internal/suggestion"
	"github.com/lbksmart/storefront/pkg/httputil"
	"github.com/lbksmart/storefront/pkg/middleware"
	"github.com/lbksmart/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	carts       *service.CartStore
	suggestions *suggestion.Engine
	logger      *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts *service.CartStore, suggestions *suggestion.Engine, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:       carts,
		suggestions: suggestions,
		logger:      logger,
	}
}

// --- Request DTOs ---

// UpdateQuantityRequest is the JSON body of PATCH /cart/items/{index}/quantity.
type UpdateQuantityRequest struct {
	Delta int `json:"delta" validate:"required,gte=-99,lte=99"`
}

// EditVariantsRequest is the JSON body of PUT /cart/items/{index}/variants.
type EditVariantsRequest struct {
	Variants domain.Variants `json:"variants"`
}

// ShippingRequest is the JSON body of PUT /cart/shipping.
type ShippingRequest struct {
	Method pricing.Method `json:"method"`
}

// --- Response DTOs ---

// CartView is a cart with its derived amounts and current suggestions.
type CartView struct {
	SessionID      string                  `json:"session_id"`
	Items          []domain.LineItem       `json:"items"`
	ItemCount      int                     `json:"item_count"`
	ShippingMethod pricing.Method          `json:"shipping_method"`
	Subtotal       int64                   `json:"subtotal"`
	Shipping       int64                   `json:"shipping"`
	Total          int64                   `json:"total"`
	Quote          pricing.Quote           `json:"quote"`
	Suggestions    []suggestion.Suggestion `json:"suggestions"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), middleware.SessionFromContext(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, h.view(r.Context(), cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Clear(r.Context(), middleware.SessionFromContext(r))
	h.respond(w, r, cart, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), middleware.SessionFromContext(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: h.view(r.Context(), cart)})
}

// UpdateItemQuantity handles PATCH /api/v1/cart/items/{index}/quantity
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	idx, ok := httputil.ParseIndex(w, chi.URLParam(r, "index"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), middleware.SessionFromContext(r), idx, req.Delta)
	h.respond(w, r, cart, err)
}

// EditItemVariants handles PUT /api/v1/cart/items/{index}/variants
func (h *CartHandler) EditItemVariants(w http.ResponseWriter, r *http.Request) {
	idx, ok := httputil.ParseIndex(w, chi.URLParam(r, "index"))
	if !ok {
		return
	}

	var req EditVariantsRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.carts.EditVariants(r.Context(), middleware.SessionFromContext(r), idx, req.Variants)
	h.respond(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/items/{index}?confirm=true
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	idx, ok := httputil.ParseIndex(w, chi.URLParam(r, "index"))
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	cart, err := h.carts.RemoveItem(r.Context(), middleware.SessionFromContext(r), idx, confirmed)
	h.respond(w, r, cart, err)
}

// SetShipping handles PUT /api/v1/cart/shipping
func (h *CartHandler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.carts.SetShippingMethod(r.Context(), middleware.SessionFromContext(r), req.Method)
	h.respond(w, r, cart, err)
}

// GetSuggestions handles GET /api/v1/cart/suggestions
func (h *CartHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	out, err := h.suggestions.For(r.Context(), middleware.SessionFromContext(r), h.carts)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, out)
}

// --- Helpers ---

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, h.view(r.Context(), cart))
}

// view renders cart. Suggestions are advisory, so a failure to compute them
// leaves the list empty.
func (h *CartHandler) view(ctx context.Context, cart *domain.Cart) CartView {
	quote := cart.Quote()
	v := CartView{
		SessionID:      cart.SessionID,
		Items:          cart.Items,
		ItemCount:      cart.ItemCount(),
		ShippingMethod: cart.ShippingMethod,
		Subtotal:       quote.Subtotal,
		Shipping:       quote.Shipping,
		Total:          quote.Total,
		Quote:          quote,
		Suggestions:    []suggestion.Suggestion{},
		UpdatedAt:      cart.UpdatedAt,
	}
	if v.Items == nil {
		v.Items = []domain.LineItem{}
	}

	s, err := h.suggestions.For(ctx, cart.SessionID, h.carts)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to compute suggestions",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
		return v
	}
	v.Suggestions = s
	return v
}
