package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lbksmart/storefront/internal/checkout"
	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/event"
	"github.com/lbksmart/storefront/internal/message"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/validator"
)

type mockBackup struct {
	mock.Mock
}

func (m *mockBackup) Backup(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

type checkoutFixture struct {
	svc    *CheckoutService
	carts  *CartStore
	repo   *memCartRepository
	log    *mockOrderLog
	events *mockEvents
}

func newCheckoutFixture(t *testing.T, dispatchErr error, backup OrderBackup) *checkoutFixture {
	t.Helper()
	repo := newMemCartRepository()
	events := new(mockEvents)
	events.On("PublishCartUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("Dispatch", mock.Anything, mock.Anything).Return(dispatchErr).Maybe()

	carts, _ := newTestCartStore(repo, events)
	log := new(mockOrderLog)
	log.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	orders := newTestAssembler(log, events)

	svc := NewCheckoutService(carts, orders, message.NewFormatter("FC", time.UTC), events, backup, message.DefaultBaseURL, newTestLogger())
	return &checkoutFixture{svc: svc, carts: carts, repo: repo, log: log, events: events}
}

func (f *checkoutFixture) cart(t *testing.T) *domain.Cart {
	t.Helper()
	c, err := f.carts.Get(context.Background(), session)
	require.NoError(t, err)
	return c
}

func TestCheckout_EmptyCartNeverCollects(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil)
	collected := false
	collector := checkout.CollectorFunc(func(context.Context) (domain.ClientInfo, error) {
		collected = true
		return validClient(), nil
	})

	_, err := f.svc.Checkout(context.Background(), session, collector)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	assert.False(t, collected)
	f.log.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCheckout_CancelLeavesCartUntouched(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil)
	addItem(t, f.carts, robe(), domain.Variants{"taille": "m"}, 2)

	res, err := f.svc.Checkout(context.Background(), session, checkout.Cancelled())
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Nil(t, res.Order)

	assert.Len(t, f.cart(t).Items, 1)
	f.log.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestCheckout_InvalidClient(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil)
	addItem(t, f.carts, robe(), nil, 1)

	client := validClient()
	client.Address = ""
	_, err := f.svc.Checkout(context.Background(), session, checkout.Submitted(client))

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "address")
	assert.Len(t, f.cart(t).Items, 1)
	f.log.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCheckout_CollectorError(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil)
	addItem(t, f.carts, robe(), nil, 1)

	_, err := f.svc.Checkout(context.Background(), session, checkout.CollectorFunc(func(context.Context) (domain.ClientInfo, error) {
		return domain.ClientInfo{}, errors.New("form lost")
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collect client info")
}

func TestCheckout_Success(t *testing.T) {
	backup := new(mockBackup)
	backup.On("Backup", mock.Anything, mock.Anything).Return(nil)
	f := newCheckoutFixture(t, nil, backup)

	electro := chargeur()
	addItem(t, f.carts, electro, nil, 1)

	res, err := f.svc.Checkout(context.Background(), session, checkout.Submitted(validClient()))
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.False(t, res.Cancelled)

	assert.Equal(t, domain.PartyLaurent.ID, res.Order.Responsible)
	assert.True(t, strings.HasPrefix(res.Message, "🛒 COMMANDE LAURENT KABESHA SMART\n"))
	assert.True(t, strings.HasPrefix(res.DispatchURL, "https://wa.me/243822937321?text="))

	u, err := url.Parse(res.DispatchURL)
	require.NoError(t, err)
	assert.Equal(t, res.Message, u.Query().Get("text"))

	f.log.AssertNumberOfCalls(t, "Append", 1)
	f.events.AssertCalled(t, "Dispatch", mock.Anything, mock.MatchedBy(func(d event.Dispatch) bool {
		return d.OrderID == res.Order.ID && d.Link == res.DispatchURL && d.Phone == domain.PartyLaurent.Phone
	}))
	backup.AssertCalled(t, "Backup", mock.Anything, res.Order)

	assert.Empty(t, f.cart(t).Items)
}

func TestCheckout_DispatchAndBackupFailuresAreNotFatal(t *testing.T) {
	backup := new(mockBackup)
	backup.On("Backup", mock.Anything, mock.Anything).Return(errors.New("webhook down"))
	f := newCheckoutFixture(t, errors.New("no brokers"), backup)
	addItem(t, f.carts, robe(), nil, 1)

	res, err := f.svc.Checkout(context.Background(), session, checkout.Submitted(validClient()))
	require.NoError(t, err)
	assert.NotNil(t, res.Order)
	assert.Empty(t, f.cart(t).Items)
}

func TestCheckout_OnePerSession(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil)
	addItem(t, f.carts, robe(), nil, 1)

	prompt := checkout.NewPrompt()
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Checkout(context.Background(), session, prompt)
		done <- err
	}()
	require.Eventually(t, prompt.Pending, time.Second, time.Millisecond)

	_, err := f.svc.Checkout(context.Background(), session, checkout.Submitted(validClient()))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, prompt.Submit(validClient()))
	require.NoError(t, <-done)
	f.log.AssertNumberOfCalls(t, "Append", 1)
}

func TestCheckout_KeepsItemsAddedDuringCheckout(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil)
	addItem(t, f.carts, robe(), domain.Variants{"taille": "m"}, 1)

	collector := checkout.CollectorFunc(func(ctx context.Context) (domain.ClientInfo, error) {
		_, err := f.carts.AddItem(ctx, session, AddItemInput{Product: chargeur()})
		return validClient(), err
	})

	res, err := f.svc.Checkout(context.Background(), session, collector)
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "prod-robe", res.Order.Items[0].ProductID)

	left := f.cart(t).Items
	require.Len(t, left, 1)
	assert.Equal(t, "prod-chargeur", left[0].ProductID)
}
