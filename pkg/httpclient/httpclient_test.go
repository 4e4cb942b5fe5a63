package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lbksmart/storefront/pkg/errors"
)

func fastConfig() Config {
	return Config{Timeout: time.Second, MaxRetries: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: 5 * time.Millisecond}
}

func TestClient_RetriesServerErrorsAndReplaysBody(t *testing.T) {
	var calls atomic.Int32
	var lastBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		lastBody = string(b)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(fastConfig()), DefaultCircuitBreakerConfig("test-retry"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	resp, err := cb.PostJSON(context.Background(), srv.URL, map[string]string{"id": "CMD-1"}, nil)
	require.NoError(t, err)
	Drain(resp)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
	assert.JSONEq(t, `{"id":"CMD-1"}`, lastBody)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := New(fastConfig()).Do(context.Background(), req)
	require.NoError(t, err)
	Drain(resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultCircuitBreakerConfig("test-open")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	c := New(Config{Timeout: time.Second})
	cb := NewCircuitBreakerClient(c, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 2; i++ {
		_, err := cb.PostJSON(context.Background(), srv.URL, struct{}{}, nil)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.PostJSON(context.Background(), srv.URL, struct{}{}, nil)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestParseResponseError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadRequest,
		Body:       io.NopCloser(strings.NewReader(`{"error":{"code":"BAD","message":"missing id"}}`)),
	}
	err := ParseResponseError(resp, "order-backup")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "order-backup: missing id")

	resp = &http.Response{StatusCode: http.StatusTeapot, Body: io.NopCloser(strings.NewReader("nope"))}
	err = ParseResponseError(resp, "order-backup")
	assert.EqualError(t, err, "order-backup returned status 418: nope")
}
