package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/pkg/database"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/pagination"
)

const uniqueViolation = "23505"

// OrderLog implements repository.OrderLog using PostgreSQL. The full order
// is stored as JSONB next to the columns used for lookups and reporting.
type OrderLog struct {
	pool database.DBTX
}

// NewOrderLog creates a new PostgreSQL-backed order log.
func NewOrderLog(pool database.DBTX) *OrderLog {
	return &OrderLog{pool: pool}
}

// Append inserts the order. Rows are never updated afterwards.
func (l *OrderLog) Append(ctx context.Context, o *domain.Order) (err error) {
	const query = `
		INSERT INTO orders (id, session_id, responsible, payment_method, payment_status, subtotal, delivery, total, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "postgresql", "AppendOrder", "INSERT INTO orders")
	defer func() { end(err) }()

	record, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = l.pool.Exec(ctx, query,
		o.ID,
		o.SessionID,
		o.Responsible,
		string(o.Payment.Method),
		o.Payment.Status,
		o.Financial.Subtotal,
		o.Financial.Delivery,
		o.Financial.Total,
		record,
		o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict("order " + o.ID + " already exists")
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// Get retrieves an order by id.
func (l *OrderLog) Get(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "GetOrder", "SELECT FROM orders")
	defer func() { end(err) }()

	var record []byte
	if err := l.pool.QueryRow(ctx, `SELECT record FROM orders WHERE id = $1`, id).Scan(&record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	var o domain.Order
	if err := json.Unmarshal(record, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListBySession returns one page of the session's orders, newest first.
func (l *OrderLog) ListBySession(ctx context.Context, session string, page pagination.Params) (_ []domain.Order, _ int, err error) {
	// count(*) OVER() returns the total alongside the page in one query.
	const query = `
		SELECT record, count(*) OVER() AS total_count
		FROM orders
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "postgresql", "ListOrders", "SELECT FROM orders")
	defer func() { end(err) }()

	rows, err := l.pool.Query(ctx, query, session, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var total int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record, &total); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		var o domain.Order
		if err := json.Unmarshal(record, &o); err != nil {
			return nil, 0, fmt.Errorf("unmarshal order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Past the last page the window count is unavailable.
	if len(orders) == 0 && page.Offset() > 0 {
		if err := l.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE session_id = $1`, session).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
	}

	return orders, total, nil
}
