package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/pricing"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/pagination"
)

func newTestAssembler(log *mockOrderLog, events OrderEvents) *OrderAssembler {
	a := NewOrderAssembler(log, events, newTestLogger())
	a.now = func() time.Time { return fixedNow }
	return a
}

func cartWith(items ...domain.LineItem) *domain.Cart {
	c := domain.NewCart(session)
	c.Items = items
	return c
}

func line(p domain.Product, qty int) domain.LineItem {
	return domain.NewLineItem(p, domain.Variants{"taille": "m"}, qty, fixedNow)
}

func TestAssemble_EmptyCart(t *testing.T) {
	log := new(mockOrderLog)
	a := newTestAssembler(log, quietEvents())

	o, err := a.Assemble(context.Background(), session, domain.NewCart(session), validClient())
	assert.Nil(t, o)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	log.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestAssemble_BuildsOrder(t *testing.T) {
	log := new(mockOrderLog)
	events := quietEvents()
	a := newTestAssembler(log, events)
	ctx := context.Background()

	log.On("Append", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	cart := cartWith(line(robe(), 2), line(chargeur(), 1))
	cart.ShippingMethod = pricing.MethodAirNormal

	o, err := a.Assemble(ctx, session, cart, validClient())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(o.ID, OrderIDPrefix))
	id, err := uuid.Parse(strings.TrimPrefix(o.ID, OrderIDPrefix))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	assert.Equal(t, session, o.SessionID)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Equal(t, validClient(), o.Client)
	assert.Equal(t, domain.Delivery{Method: pricing.MethodAirNormal, Label: "Aérien Normal", Delay: "21 jours", Cost: 18000}, o.Delivery)
	assert.Equal(t, domain.Financial{Subtotal: 33000, Delivery: 18000, Total: 51000}, o.Financial)
	assert.Equal(t, domain.Payment{Method: domain.PaymentMobileMoney, Status: "pending"}, o.Payment)

	log.AssertExpectations(t)
	events.AssertCalled(t, "PublishOrderPlaced", ctx, o)
}

func TestAssemble_RoutesByFirstItemOnly(t *testing.T) {
	log := new(mockOrderLog)
	a := newTestAssembler(log, quietEvents())
	log.On("Append", mock.Anything, mock.Anything).Return(nil)

	o, err := a.Assemble(context.Background(), session, cartWith(line(chargeur(), 1), line(robe(), 1)), validClient())
	require.NoError(t, err)
	assert.Equal(t, domain.PartyLaurent.ID, o.Responsible)

	vet := robe()
	vet.Category = domain.CategoryVetements
	o, err = a.Assemble(context.Background(), session, cartWith(line(vet, 1), line(chargeur(), 1)), validClient())
	require.NoError(t, err)
	assert.Equal(t, domain.PartyBetty.ID, o.Responsible)

	unrouted := chargeur()
	unrouted.Category = domain.CategoryElectromenager
	o, err = a.Assemble(context.Background(), session, cartWith(line(unrouted, 1)), validClient())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultParty.ID, o.Responsible)
}

func TestAssemble_ItemsAreDeepCopied(t *testing.T) {
	log := new(mockOrderLog)
	a := newTestAssembler(log, quietEvents())
	log.On("Append", mock.Anything, mock.Anything).Return(nil)

	cart := cartWith(line(robe(), 1))
	o, err := a.Assemble(context.Background(), session, cart, validClient())
	require.NoError(t, err)

	cart.Items[0].Quantity = 9
	cart.Items[0].Variants["taille"] = "xxl"

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, "m", o.Items[0].Variants["taille"])
}

func TestAssemble_AppendFailure(t *testing.T) {
	log := new(mockOrderLog)
	events := new(mockEvents)
	a := newTestAssembler(log, events)
	log.On("Append", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := a.Assemble(context.Background(), session, cartWith(line(robe(), 1)), validClient())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append order")
	events.AssertNotCalled(t, "PublishOrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderAssembler_Get(t *testing.T) {
	log := new(mockOrderLog)
	a := newTestAssembler(log, quietEvents())
	ctx := context.Background()

	log.On("Get", ctx, "CMD-1").Return(&domain.Order{ID: "CMD-1", SessionID: session}, nil)
	log.On("Get", ctx, "CMD-2").Return(&domain.Order{ID: "CMD-2", SessionID: "someone-else"}, nil)

	o, err := a.Get(ctx, session, "CMD-1")
	require.NoError(t, err)
	assert.Equal(t, "CMD-1", o.ID)

	_, err = a.Get(ctx, session, "CMD-2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderAssembler_List(t *testing.T) {
	log := new(mockOrderLog)
	a := newTestAssembler(log, quietEvents())
	ctx := context.Background()
	page := pagination.Params{Page: 1, PerPage: 2}

	log.On("ListBySession", ctx, session, page).Return([]domain.Order{{ID: "CMD-3"}, {ID: "CMD-2"}}, 3, nil)

	res, err := a.List(ctx, session, page)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.True(t, res.HasNext)
}
