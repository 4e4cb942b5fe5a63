package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/pkg/database"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
)

const cartKeyPrefix = "lbk_smart_cart:"

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a Redis-backed cart repository. Carts expire
// ttl after their last write; zero keeps them forever.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the cart of session.
func (r *CartRepository) Get(ctx context.Context, session string) (_ *domain.Cart, err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "GetCart", "GET")
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, cartKeyPrefix+session).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", session)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	cart.SessionID = session
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}

	return &cart, nil
}

// Save persists the cart with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) (err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "SaveCart", "SET")
	defer func() { end(err) }()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKeyPrefix+cart.SessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}
