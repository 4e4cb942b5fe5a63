package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lbksmart/storefront/internal/checkout"
	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/event"
	"github.com/lbksmart/storefront/internal/message"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/validator"
)

// Dispatcher hands a formatted order to the messaging sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, d event.Dispatch) error
}

// OrderBackup copies a placed order somewhere durable.
type OrderBackup interface {
	Backup(ctx context.Context, o *domain.Order) error
}

// CheckoutResult is the outcome of a checkout. A cancelled checkout carries
// no order and leaves the cart untouched.
type CheckoutResult struct {
	Cancelled   bool          `json:"cancelled"`
	Order       *domain.Order `json:"order,omitempty"`
	Message     string        `json:"message,omitempty"`
	DispatchURL string        `json:"dispatch_url,omitempty"`
}

// CheckoutService runs the checkout pipeline: collect, validate, assemble,
// format, dispatch and clear.
type CheckoutService struct {
	carts      *CartStore
	orders     *OrderAssembler
	formatter  *message.Formatter
	dispatcher Dispatcher
	backup     OrderBackup
	baseURL    string
	logger     *slog.Logger

	inflight sync.Map
}

// NewCheckoutService creates the checkout service. backup may be nil.
func NewCheckoutService(
	carts *CartStore,
	orders *OrderAssembler,
	formatter *message.Formatter,
	dispatcher Dispatcher,
	backup OrderBackup,
	baseURL string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:      carts,
		orders:     orders,
		formatter:  formatter,
		dispatcher: dispatcher,
		backup:     backup,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Checkout places the session's cart as an order. The empty-cart check runs
// before the client is asked for anything. Only one checkout per session
// runs at a time; a second one fails with CONFLICT.
func (s *CheckoutService) Checkout(ctx context.Context, session string, collector checkout.Collector) (*CheckoutResult, error) {
	if _, busy := s.inflight.LoadOrStore(session, struct{}{}); busy {
		return nil, apperrors.Conflict("a checkout is already in progress for this session")
	}
	defer s.inflight.Delete(session)

	cart, err := s.carts.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	client, err := collector.Collect(ctx)
	if err != nil {
		if errors.Is(err, checkout.ErrCancelled) {
			checkoutsCancelled.Inc()
			s.logger.InfoContext(ctx, "checkout cancelled", slog.String("session_id", session))
			return &CheckoutResult{Cancelled: true}, nil
		}
		return nil, fmt.Errorf("collect client info: %w", err)
	}
	if err := validator.Validate(client); err != nil {
		return nil, err
	}

	order, err := s.orders.Assemble(ctx, session, cart, client)
	if err != nil {
		return nil, err
	}

	party := order.Party()
	text := s.formatter.Format(order, party)
	link := message.Link(s.baseURL, party.Phone, text)

	if err := s.dispatcher.Dispatch(ctx, event.Dispatch{
		OrderID:     order.ID,
		SessionID:   session,
		Responsible: party.ID,
		Phone:       party.Phone,
		Link:        link,
		Text:        text,
	}); err != nil {
		dispatchFailures.WithLabelValues("dispatch").Inc()
		s.logger.WarnContext(ctx, "order dispatch failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.backup != nil {
		if err := s.backup.Backup(ctx, order); err != nil {
			dispatchFailures.WithLabelValues("backup").Inc()
			s.logger.WarnContext(ctx, "order backup failed",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	// The order is already placed; a failed clear must not undo it. Only the
	// ordered lines leave the cart so items added meanwhile survive.
	if _, err := s.carts.RemoveOrdered(ctx, session, cart.Items); err != nil {
		dispatchFailures.WithLabelValues("clear_cart").Inc()
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	return &CheckoutResult{Order: order, Message: text, DispatchURL: link}, nil
}
