package repository

import (
	"context"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/pkg/pagination"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves the cart of a session. A missing cart is ErrNotFound.
	Get(ctx context.Context, session string) (*domain.Cart, error)

	// Save overwrites the stored cart of cart.SessionID wholesale. Carts are
	// never deleted; they expire with the store's TTL.
	Save(ctx context.Context, cart *domain.Cart) error
}

// OrderLog is the append-only store of assembled orders.
type OrderLog interface {
	// Append records a new order. Orders are never updated.
	Append(ctx context.Context, order *domain.Order) error

	// Get retrieves an order by id.
	Get(ctx context.Context, id string) (*domain.Order, error)

	// ListBySession returns one page of a session's orders, newest first,
	// with the session's total order count.
	ListBySession(ctx context.Context, session string, page pagination.Params) ([]domain.Order, int, error)
}
