package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/pricing"
	"github.com/lbksmart/storefront/pkg/database"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/pagination"
)

// --- Test Helpers ---

func newTestLog(t *testing.T) (*OrderLog, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewOrderLog(mock), mock
}

func sampleOrder(id string) *domain.Order {
	return &domain.Order{
		ID:          id,
		SessionID:   "session-0001",
		CreatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Responsible: domain.PartyLaurent.ID,
		Client: domain.ClientInfo{
			Name:          "Amani",
			Phone:         "+243990000111",
			Address:       "Kolwezi",
			PaymentMethod: domain.PaymentIlicoCash,
		},
		Items: []domain.LineItem{{
			ProductID: "prod-1",
			Name:      "Ampoule LED",
			Category:  domain.CategoryElectrique,
			Price:     3000,
			Quantity:  4,
			Variants:  domain.Variants{},
		}},
		Delivery:  domain.Delivery{Method: pricing.MethodSeaCBM, Label: "Maritime (CBM)", Delay: "30-45 jours", Cost: 600},
		Financial: domain.Financial{Subtotal: 12000, Delivery: 600, Total: 12600},
		Payment:   domain.Payment{Method: domain.PaymentIlicoCash, Status: domain.PaymentStatusPending},
	}
}

func recordOf(t *testing.T, o *domain.Order) []byte {
	t.Helper()
	b, err := json.Marshal(o)
	require.NoError(t, err)
	return b
}

// --- Append ---

func TestOrderLog_Append_Success(t *testing.T) {
	log, mock := newTestLog(t)
	o := sampleOrder("CMD-1")

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.SessionID, o.Responsible,
			"ilicocash", "pending",
			int64(12000), int64(600), int64(12600),
			pgxmock.AnyArg(), // record JSON
			o.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, log.Append(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderLog_Append_DuplicateIsConflict(t *testing.T) {
	log, mock := newTestLog(t)

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := log.Append(context.Background(), sampleOrder("CMD-1"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderLog_Append_DBError(t *testing.T) {
	log, mock := newTestLog(t)

	mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("connection reset"))

	err := log.Append(context.Background(), sampleOrder("CMD-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order")
}

// --- Get ---

func TestOrderLog_Get_Success(t *testing.T) {
	log, mock := newTestLog(t)
	o := sampleOrder("CMD-1")

	mock.ExpectQuery("SELECT record FROM orders WHERE id").
		WithArgs("CMD-1").
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(recordOf(t, o)))

	got, err := log.Get(context.Background(), "CMD-1")
	require.NoError(t, err)
	assert.Equal(t, o, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderLog_Get_NotFound(t *testing.T) {
	log, mock := newTestLog(t)

	mock.ExpectQuery("SELECT record FROM orders WHERE id").
		WithArgs("CMD-missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := log.Get(context.Background(), "CMD-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- ListBySession ---

func TestOrderLog_ListBySession_Success(t *testing.T) {
	log, mock := newTestLog(t)
	newer, older := sampleOrder("CMD-2"), sampleOrder("CMD-1")

	mock.ExpectQuery("SELECT record, count").
		WithArgs("session-0001", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"record", "total_count"}).
			AddRow(recordOf(t, newer), 2).
			AddRow(recordOf(t, older), 2))

	orders, total, err := log.ListBySession(context.Background(), "session-0001", pagination.Params{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, "CMD-2", orders[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderLog_ListBySession_PastLastPageCounts(t *testing.T) {
	log, mock := newTestLog(t)

	mock.ExpectQuery("SELECT record, count").
		WithArgs("session-0001", 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{"record", "total_count"}))
	mock.ExpectQuery("SELECT count").
		WithArgs("session-0001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	orders, total, err := log.ListBySession(context.Background(), "session-0001", pagination.Params{Page: 3, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderLog_ListBySession_QueryError(t *testing.T) {
	log, mock := newTestLog(t)

	mock.ExpectQuery("SELECT record, count").WillReturnError(errors.New("boom"))

	_, _, err := log.ListBySession(context.Background(), "session-0001", pagination.Params{Page: 1, PerPage: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list orders")
}
