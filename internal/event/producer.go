package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lbksmart/storefront/internal/domain"
	pkgkafka "github.com/lbksmart/storefront/pkg/kafka"
	"github.com/lbksmart/storefront/pkg/logger"
)

// Kafka topic constants for storefront events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicOrderPlaced     = "storefront.order.placed"
	TopicOrderDispatched = "storefront.order.dispatched"
)

// Aggregate type constants.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID      string `json:"session_id"`
	ItemCount      int    `json:"item_count"`
	LineCount      int    `json:"line_count"`
	ShippingMethod string `json:"shipping_method"`
	Subtotal       int64  `json:"subtotal"`
	Total          int64  `json:"total"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID       string `json:"order_id"`
	SessionID     string `json:"session_id"`
	Responsible   string `json:"responsible"`
	ItemCount     int    `json:"item_count"`
	Subtotal      int64  `json:"subtotal"`
	Delivery      int64  `json:"delivery"`
	Total         int64  `json:"total"`
	PaymentMethod string `json:"payment_method"`
}

// Dispatch is an order message ready to hand to the messaging app.
type Dispatch struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	Responsible string `json:"responsible"`
	Phone       string `json:"phone"`
	Link        string `json:"link"`
	Text        string `json:"text"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		SessionID:      cart.SessionID,
		ItemCount:      cart.ItemCount(),
		LineCount:      len(cart.Items),
		ShippingMethod: string(cart.ShippingMethod),
		Subtotal:       cart.Subtotal(),
		Total:          cart.Total(),
	}
	return p.publish(ctx, TopicCartUpdated, cart.SessionID, AggregateTypeCart, cart.SessionID, data)
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	var units int
	for _, it := range o.Items {
		units += it.Quantity
	}
	data := OrderPlacedData{
		OrderID:       o.ID,
		SessionID:     o.SessionID,
		Responsible:   o.Responsible,
		ItemCount:     units,
		Subtotal:      o.Financial.Subtotal,
		Delivery:      o.Financial.Delivery,
		Total:         o.Financial.Total,
		PaymentMethod: string(o.Payment.Method),
	}
	return p.publish(ctx, TopicOrderPlaced, o.ID, AggregateTypeOrder, o.SessionID, data)
}

// Dispatch publishes an order.dispatched event carrying the message link.
func (p *Producer) Dispatch(ctx context.Context, d Dispatch) error {
	return p.publish(ctx, TopicOrderDispatched, d.OrderID, AggregateTypeOrder, d.SessionID, d)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType, session string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).WithSessionID(session)

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// Nop stands in for Producer when no Kafka brokers are configured.
type Nop struct {
	Logger *slog.Logger
}

func (n Nop) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	n.skip(ctx, TopicCartUpdated, cart.SessionID)
	return nil
}

func (n Nop) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	n.skip(ctx, TopicOrderPlaced, o.ID)
	return nil
}

func (n Nop) Dispatch(ctx context.Context, d Dispatch) error {
	n.skip(ctx, TopicOrderDispatched, d.OrderID)
	return nil
}

func (n Nop) skip(ctx context.Context, topic, id string) {
	if n.Logger != nil {
		n.Logger.DebugContext(ctx, "event publishing disabled", slog.String("topic", topic), slog.String("aggregate_id", id))
	}
}
