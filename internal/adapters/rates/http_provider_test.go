package rates_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/adapters/rates"
	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/latest/EUR":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"base":"EUR","date":"2026-03-14","rates":{"EUR":1,"USD":1.0842,"INR":90.123}}`))
		case "/latest/BAD":
			_, _ = w.Write([]byte(`not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProvider_Rate(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	p := rates.NewHTTPProvider(srv.URL + "/latest/")
	ctx := context.Background()

	got, err := p.Rate(ctx, "eur", "usd")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.0842").Equal(got))

	got, err = p.Rate(ctx, "EUR", "INR")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("90.123").Equal(got))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second lookup served from cache")

	_, err = p.Rate(ctx, "EUR", "XYZ")
	assert.ErrorIs(t, err, apperrors.ErrRateUnavailable)
}

func TestHTTPProvider_Errors(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	p := rates.NewHTTPProvider(srv.URL+"/latest", rates.WithHTTPClient(srv.Client()))

	_, err := p.Rate(context.Background(), "GBP", "USD")
	assert.ErrorIs(t, err, apperrors.ErrRateUnavailable)

	_, err = p.Rate(context.Background(), "BAD", "USD")
	assert.ErrorIs(t, err, apperrors.ErrRateUnavailable)
}

func TestHTTPProvider_CacheExpires(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	p := rates.NewHTTPProvider(srv.URL+"/latest", rates.WithCacheTTL(20*time.Millisecond))

	_, err := p.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = p.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
