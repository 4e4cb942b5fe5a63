package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/repository"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/pagination"
)

// OrderIDPrefix starts every order id.
const OrderIDPrefix = "CMD-"

// OrderEvents is the part of the event producer the assembler needs.
type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, o *domain.Order) error
}

// OrderAssembler turns a cart snapshot into an immutable order and appends
// it to the order log.
type OrderAssembler struct {
	log    repository.OrderLog
	events OrderEvents
	logger *slog.Logger
	now    func() time.Time
	newID  func() (uuid.UUID, error)
}

// NewOrderAssembler creates an order assembler.
func NewOrderAssembler(log repository.OrderLog, events OrderEvents, logger *slog.Logger) *OrderAssembler {
	return &OrderAssembler{
		log:    log,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewV7,
	}
}

// Assemble builds the order for cart and client and appends it to the log.
// The responsible party is chosen from the first line's category only. An
// empty cart fails with EMPTY_CART and nothing is persisted.
func (a *OrderAssembler) Assemble(ctx context.Context, session string, cart *domain.Cart, client domain.ClientInfo) (*domain.Order, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	id, err := a.newID()
	if err != nil {
		return nil, fmt.Errorf("generate order id: %w", err)
	}

	party := domain.RouteItems(cart.Items)
	quote := cart.Quote()

	o := &domain.Order{
		ID:          OrderIDPrefix + id.String(),
		SessionID:   session,
		CreatedAt:   a.now(),
		Responsible: party.ID,
		Client:      client,
		Items:       domain.CloneItems(cart.Items),
		Delivery: domain.Delivery{
			Method: quote.Method,
			Label:  quote.Label,
			Delay:  quote.Delay,
			Cost:   quote.Shipping,
		},
		Financial: domain.Financial{
			Subtotal: quote.Subtotal,
			Delivery: quote.Shipping,
			Total:    quote.Total,
		},
		Payment: domain.Payment{
			Method: client.PaymentMethod,
			Status: domain.PaymentStatusPending,
		},
	}

	if err := a.log.Append(ctx, o); err != nil {
		return nil, fmt.Errorf("append order: %w", err)
	}
	ordersPlaced.WithLabelValues(o.Responsible).Inc()

	a.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", o.ID),
		slog.String("responsible", o.Responsible),
		slog.Int("lines", len(o.Items)),
		slog.Int64("total", o.Financial.Total),
	)

	if err := a.events.PublishOrderPlaced(ctx, o); err != nil {
		a.logger.WarnContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	return o, nil
}

// Get returns an order of session. Orders of other sessions are reported as
// not found.
func (a *OrderAssembler) Get(ctx context.Context, session, id string) (*domain.Order, error) {
	o, err := a.log.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SessionID != session {
		return nil, apperrors.NotFound("order", id)
	}
	return o, nil
}

// List returns one page of the session's orders, newest first.
func (a *OrderAssembler) List(ctx context.Context, session string, page pagination.Params) (pagination.Result[domain.Order], error) {
	orders, total, err := a.log.ListBySession(ctx, session, page)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(orders, total, page), nil
}
