package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/pkg/database"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/pagination"
)

const (
	// orderLogKey is the append-only list of every order, oldest first.
	orderLogKey = "lbk_orders"
	// orderIndexKey maps order id to its JSON record.
	orderIndexKey = "lbk_orders:by_id"
	// sessionOrdersPrefix lists the order ids of one session, oldest first.
	sessionOrdersPrefix = "lbk_orders:session:"
)

// OrderLog implements repository.OrderLog on Redis lists.
type OrderLog struct {
	client *redis.Client
}

// NewOrderLog creates a Redis-backed order log.
func NewOrderLog(client *redis.Client) *OrderLog {
	return &OrderLog{client: client}
}

// appendOrderScript writes the id index, the log and the session list
// together. It returns 0 without writing anything when the id exists.
var appendOrderScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("RPUSH", KEYS[2], ARGV[2])
redis.call("RPUSH", KEYS[3], ARGV[1])
return 1
`)

// Append writes the order to the id index, the log and the session list in
// one script, so either all three or none hold it. An id already present is
// a conflict.
func (l *OrderLog) Append(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "AppendOrder", "EVALSHA")
	defer func() { end(err) }()

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	keys := []string{orderIndexKey, orderLogKey, sessionOrdersPrefix + o.SessionID}
	added, err := appendOrderScript.Run(ctx, l.client, keys, o.ID, data).Int()
	if err != nil {
		return fmt.Errorf("redis append order: %w", err)
	}
	if added == 0 {
		return apperrors.Conflict("order " + o.ID + " already exists")
	}

	return nil
}

// Get retrieves an order by id.
func (l *OrderLog) Get(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "GetOrder", "HGET")
	defer func() { end(err) }()

	data, err := l.client.HGet(ctx, orderIndexKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("redis get order: %w", err)
	}

	var o domain.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListBySession returns one page of the session's orders, newest first.
func (l *OrderLog) ListBySession(ctx context.Context, session string, page pagination.Params) (_ []domain.Order, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "ListOrders", "LRANGE")
	defer func() { end(err) }()

	key := sessionOrdersPrefix + session
	total, err := l.client.LLen(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis count orders: %w", err)
	}

	// Newest first: page 1 is the tail of the list.
	stop := total - 1 - int64(page.Offset())
	if stop < 0 {
		return []domain.Order{}, int(total), nil
	}
	start := max(stop-int64(page.PerPage)+1, 0)

	ids, err := l.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis list orders: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Order{}, int(total), nil
	}

	raw, err := l.client.HMGet(ctx, orderIndexKey, ids...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis load orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		s, ok := raw[i].(string)
		if !ok {
			continue
		}
		var o domain.Order
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return nil, 0, fmt.Errorf("unmarshal order %s: %w", ids[i], err)
		}
		orders = append(orders, o)
	}

	return orders, int(total), nil
}
