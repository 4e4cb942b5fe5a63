package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/event"
	"github.com/lbksmart/storefront/internal/repository"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/pagination"
)

// --- Mock Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, session string) (*domain.Cart, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

// memCartRepository stores carts as JSON, like the Redis repository.
type memCartRepository struct {
	mu    sync.Mutex
	carts map[string][]byte
	saves int
}

func newMemCartRepository() *memCartRepository {
	return &memCartRepository{carts: make(map[string][]byte)}
}

func (r *memCartRepository) Get(_ context.Context, session string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.carts[session]
	if !ok {
		return nil, apperrors.NotFound("cart", session)
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *memCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.SessionID] = raw
	r.saves++
	return nil
}

func (r *memCartRepository) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// --- Mock OrderLog ---

type mockOrderLog struct {
	mock.Mock
}

func (m *mockOrderLog) Append(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderLog) Get(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderLog) ListBySession(ctx context.Context, session string, page pagination.Params) ([]domain.Order, int, error) {
	args := m.Called(ctx, session, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Mock Events ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockEvents) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockEvents) Dispatch(ctx context.Context, d event.Dispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// quietEvents accepts every event.
func quietEvents() *mockEvents {
	m := new(mockEvents)
	m.On("PublishCartUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

type staleRecorder struct {
	mu       sync.Mutex
	sessions []string
}

func (s *staleRecorder) MarkStale(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
}

func (s *staleRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// --- Test Helpers ---

const session = "session-0001"

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCartStore(repo repository.CartRepository, events CartEvents) (*CartStore, *staleRecorder) {
	stale := &staleRecorder{}
	s := NewCartStore(repo, events, stale, newTestLogger())
	s.now = func() time.Time { return fixedNow }
	return s, stale
}

func boolPtr(b bool) *bool { return &b }

func robe() domain.Product {
	return domain.Product{
		ID:       "prod-robe",
		Name:     "Robe wax",
		Category: domain.CategoryHabillement,
		Price:    12500,
		InStock:  boolPtr(true),
	}
}

func chargeur() domain.Product {
	return domain.Product{
		ID:            "prod-chargeur",
		Name:          "Chargeur USB-C",
		Category:      domain.CategoryElectronique,
		Price:         8000,
		StockQuantity: 3,
		Dimensions:    &domain.Dimensions{Width: 10, Height: 10, Depth: 10},
	}
}

func validClient() domain.ClientInfo {
	return domain.ClientInfo{
		Name:          "Amani Mwamba",
		Phone:         "+243990000111",
		Address:       "Av. Kasavubu 12, Kolwezi",
		PaymentMethod: domain.PaymentMobileMoney,
	}
}

func addItem(t *testing.T, s *CartStore, p domain.Product, v domain.Variants, qty int) *domain.Cart {
	t.Helper()
	c, err := s.AddItem(context.Background(), session, AddItemInput{Product: p, Variants: v, Quantity: qty})
	require.NoError(t, err)
	return c
}
