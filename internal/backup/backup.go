// Package backup copies placed orders to an external webhook so they
// survive loss of the primary order log.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/pkg/httpclient"
	"github.com/lbksmart/storefront/pkg/logger"
)

const downstream = "order-backup"

// Client posts orders to the backup webhook through a circuit breaker.
type Client struct {
	http   *httpclient.CircuitBreakerClient
	url    string
	logger *slog.Logger
}

// NewClient creates a backup client for url.
func NewClient(url string, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	return &Client{http: client, url: url, logger: logger}
}

// Backup POSTs the order as JSON. The order id doubles as an idempotency
// key so the receiver can drop retried deliveries.
func (c *Client) Backup(ctx context.Context, o *domain.Order) error {
	headers := map[string]string{"Idempotency-Key": o.ID}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		headers["X-Correlation-ID"] = id
	}

	resp, err := c.http.PostJSON(ctx, c.url, o, headers)
	if err != nil {
		return fmt.Errorf("backup order %s: %w", o.ID, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("backup order %s: %w", o.ID, httpclient.ParseResponseError(resp, downstream))
	}
	httpclient.Drain(resp)

	c.logger.DebugContext(ctx, "order backed up", slog.String("order_id", o.ID))
	return nil
}
