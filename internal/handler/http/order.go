package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lbksmart/storefront/internal/service"
	"github.com/lbksmart/storefront/pkg/httputil"
	"github.com/lbksmart/storefront/pkg/middleware"
	"github.com/lbksmart/storefront/pkg/pagination"
)

// OrderHandler serves the order log of the calling session.
type OrderHandler struct {
	orders *service.OrderAssembler
	logger *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderAssembler, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// ListOrders handles GET /api/v1/orders?page=&per_page=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.List(r.Context(), middleware.SessionFromContext(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, result)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), middleware.SessionFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, order)
}
