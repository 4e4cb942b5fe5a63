package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lbksmart/storefront/internal/checkout"
	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/service"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/httputil"
	"github.com/lbksmart/storefront/pkg/middleware"
)

// CheckoutHandler handles the one-shot checkout and the prompted checkout,
// where one request waits for the client form and another answers it.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	prompts  *checkout.Prompts
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, prompts: checkout.NewPrompts(), logger: logger}
}

// CheckoutRequest carries the client form, or cancelled=true when the
// shopper dismissed it. The form is validated by the checkout pipeline.
type CheckoutRequest struct {
	Cancelled bool `json:"cancelled"`
	domain.ClientInfo
}

// collector turns the request into the form outcome.
func (req CheckoutRequest) collector() checkout.Collector {
	if req.Cancelled {
		return checkout.Cancelled()
	}
	return checkout.Submitted(req.ClientInfo)
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	h.run(w, r, req.collector())
}

// StartPromptedCheckout handles POST /api/v1/checkout/prompt. The request
// stays open until the form is answered, the client goes away or the
// request times out; the last two count as a cancel.
func (h *CheckoutHandler) StartPromptedCheckout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	p := h.prompts.Open(session)
	defer h.prompts.Close(session, p)

	h.run(w, r, p)
}

// AnswerPrompt handles POST /api/v1/checkout/prompt/answer with the same
// body as POST /api/v1/checkout.
func (h *CheckoutHandler) AnswerPrompt(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	err := h.prompts.Answer(middleware.SessionFromContext(r), req.ClientInfo, req.Cancelled)
	if errors.Is(err, checkout.ErrNoPending) {
		httputil.WriteError(w, r, apperrors.Conflict("no checkout is waiting for client details"), h.logger)
		return
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]bool{"accepted": true}})
}

func (h *CheckoutHandler) run(w http.ResponseWriter, r *http.Request, collector checkout.Collector) {
	result, err := h.checkout.Checkout(r.Context(), middleware.SessionFromContext(r), collector)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Cancelled {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}
