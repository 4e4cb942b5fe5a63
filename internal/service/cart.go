package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/pricing"
	"github.com/lbksmart/storefront/internal/repository"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/validator"
)

// CartEvents is the part of the event producer the cart store needs.
type CartEvents interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
}

// StaleNotifier receives the "suggestions stale" signal after each mutation.
type StaleNotifier interface {
	MarkStale(session string)
}

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	Product  domain.Product  `json:"product"`
	Variants domain.Variants `json:"variants"`
	// Quantity defaults to 1 when zero.
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// CartStore owns the cart of every session. Each mutation loads, applies
// and persists the cart while holding the session's lock, so concurrent
// requests for one session never interleave.
type CartStore struct {
	repo   repository.CartRepository
	events CartEvents
	stale  StaleNotifier
	logger *slog.Logger
	now    func() time.Time
	locks  *sessionLocks
}

// NewCartStore creates the cart store. It is built once at startup and
// shared by every consumer.
func NewCartStore(repo repository.CartRepository, events CartEvents, stale StaleNotifier, logger *slog.Logger) *CartStore {
	return &CartStore{
		repo:   repo,
		events: events,
		stale:  stale,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  newSessionLocks(),
	}
}

// Get returns a deep copy of the session's cart.
func (s *CartStore) Get(ctx context.Context, session string) (*domain.Cart, error) {
	if session == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	unlock := s.locks.lock(session)
	defer unlock()

	return s.load(ctx, session).Clone(), nil
}

// AddItem merges the product into the line holding the same product and
// variants, or appends a new line.
func (s *CartStore) AddItem(ctx context.Context, session string, in AddItemInput) (*domain.Cart, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		if idx := c.FindItemIndex(in.Product.ID, in.Variants); idx >= 0 {
			c.Items[idx].Quantity += qty
			return true, nil
		}
		c.Items = append(c.Items, domain.NewLineItem(in.Product, in.Variants, qty, s.now()))
		return true, nil
	})
}

// UpdateQuantity adds delta to the line at index. An unknown index is a
// silent no-op, a result below 1 removes the line and a result above the
// line's maximum is rejected with CAPACITY_EXCEEDED.
func (s *CartStore) UpdateQuantity(ctx context.Context, session string, index, delta int) (*domain.Cart, error) {
	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		if !c.InRange(index) {
			return false, nil
		}
		item := &c.Items[index]
		next := item.Quantity + delta
		switch {
		case next < 1:
			c.Items = append(c.Items[:index], c.Items[index+1:]...)
		case item.MaxQuantity > 0 && next > item.MaxQuantity:
			return false, apperrors.CapacityExceeded(item.MaxQuantity)
		default:
			item.Quantity = next
		}
		return true, nil
	})
}

// EditVariants replaces the whole variant map of the line at index. Select
// fields of the category template only accept their listed values. When the
// new variants equal another line of the same product, both lines merge
// into the earlier one, unless the merged quantity would exceed the line's
// maximum, which fails with CAPACITY_EXCEEDED and changes nothing.
func (s *CartStore) EditVariants(ctx context.Context, session string, index int, variants domain.Variants) (*domain.Cart, error) {
	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		if !c.InRange(index) {
			return false, apperrors.OutOfRange(index, len(c.Items))
		}
		item := &c.Items[index]
		for _, f := range domain.VariantTemplateFor(item.Category).Fields {
			if v, ok := variants[f.Name]; ok && !f.Accepts(v) {
				return false, apperrors.InvalidInput(fmt.Sprintf("invalid value %q for %s", v, f.Name))
			}
		}
		item.Variants = variants.Clone()

		for j := range c.Items {
			if j == index || !c.Items[j].Matches(item.ProductID, item.Variants) {
				continue
			}
			keep, drop := min(j, index), max(j, index)
			merged := c.Items[keep].Quantity + c.Items[drop].Quantity
			if limit := c.Items[keep].MaxQuantity; limit > 0 && merged > limit {
				return false, apperrors.CapacityExceeded(limit)
			}
			c.Items[keep].Variants = item.Variants
			c.Items[keep].Quantity = merged
			c.Items = append(c.Items[:drop], c.Items[drop+1:]...)
			break
		}
		return true, nil
	})
}

// RemoveItem deletes the line at index. The caller must have asked the
// shopper; unconfirmed removals fail with CONFIRMATION_REQUIRED.
func (s *CartStore) RemoveItem(ctx context.Context, session string, index int, confirmed bool) (*domain.Cart, error) {
	if !confirmed {
		return nil, apperrors.ConfirmationRequired("removing an item must be confirmed")
	}
	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		if !c.InRange(index) {
			return false, apperrors.OutOfRange(index, len(c.Items))
		}
		c.Items = append(c.Items[:index], c.Items[index+1:]...)
		return true, nil
	})
}

// SetShippingMethod selects the delivery method used for pricing.
func (s *CartStore) SetShippingMethod(ctx context.Context, session string, method pricing.Method) (*domain.Cart, error) {
	if !method.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown shipping method %q", method))
	}
	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		c.ShippingMethod = method
		return true, nil
	})
}

// Clear empties the cart and persists the empty state.
func (s *CartStore) Clear(ctx context.Context, session string) (*domain.Cart, error) {
	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		c.Items = []domain.LineItem{}
		return true, nil
	})
}

// RemoveOrdered takes the ordered lines out of the cart. Each ordered line
// reduces the quantity of the line with the same product and variants and
// removes it once nothing is left. Lines added or grown after the order
// snapshot was taken stay in the cart.
func (s *CartStore) RemoveOrdered(ctx context.Context, session string, ordered []domain.LineItem) (*domain.Cart, error) {
	return s.mutate(ctx, session, func(c *domain.Cart) (bool, error) {
		changed := false
		for _, o := range ordered {
			idx := c.FindItemIndex(o.ProductID, o.Variants)
			if idx < 0 {
				continue
			}
			changed = true
			if c.Items[idx].Quantity > o.Quantity {
				c.Items[idx].Quantity -= o.Quantity
				continue
			}
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		}
		return changed, nil
	})
}

// mutate is the single entry point for cart writes. apply reports whether
// it changed the cart; unchanged carts are not persisted. An error from
// apply leaves the stored cart untouched.
func (s *CartStore) mutate(ctx context.Context, session string, apply func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	if session == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	unlock := s.locks.lock(session)
	defer unlock()

	cart := s.load(ctx, session)
	changed, err := apply(cart)
	if err != nil {
		if apperrors.IsValidation(err) {
			s.logger.DebugContext(ctx, "cart mutation rejected",
				slog.String("session_id", session),
				slog.String("reason", err.Error()),
			)
		}
		return nil, err
	}
	if !changed {
		return cart.Clone(), nil
	}

	cart.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.stale.MarkStale(session)
	if err := s.events.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.WarnContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", session),
			slog.String("error", err.Error()),
		)
	}

	return cart.Clone(), nil
}

// load never fails: a missing cart is empty and an unreadable one is
// logged and treated as empty.
func (s *CartStore) load(ctx context.Context, session string) *domain.Cart {
	cart, err := s.repo.Get(ctx, session)
	if err == nil {
		return cart
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "unreadable cart treated as empty",
			slog.String("session_id", session),
			slog.String("error", err.Error()),
		)
	}
	return domain.NewCart(session)
}

// sessionLocks hands out one mutex per session and forgets it once no
// goroutine holds or waits for it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(session string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[session]
	if !ok {
		sl = &sessionLock{}
		l.locks[session] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, session)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
