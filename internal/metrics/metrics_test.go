package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop/internal/cache"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveRequest(t *testing.T) {
	c := New()
	c.ObserveRequest("GET", "/products", 200, 15*time.Millisecond)
	c.ObserveRequest("GET", "/products", 200, 5*time.Millisecond)
	c.ObserveRequest("POST", "/checkout", 400, time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/products",status="200"} 2`)
	assert.Contains(t, body, `http_requests_total{method="POST",route="/checkout",status="400"} 1`)
	assert.Contains(t, body, `http_request_duration_seconds_count{method="GET",route="/products"} 2`)
}

func TestCheckoutCounters(t *testing.T) {
	c := New()
	c.OrderPlaced(1050, 9)
	c.OrderPlaced(100, 0)
	c.CheckoutFailed("empty_cart")
	c.PointsRedeemed(300)

	body := scrape(t, c)
	assert.Contains(t, body, "coffeeshop_orders_placed_total 2")
	assert.Contains(t, body, "coffeeshop_order_revenue_total 1150")
	assert.Contains(t, body, "coffeeshop_loyalty_points_awarded_total 9")
	assert.Contains(t, body, "coffeeshop_loyalty_points_redeemed_total 300")
	assert.Contains(t, body, `coffeeshop_checkout_failures_total{reason="empty_cart"} 1`)
}

func TestInstrumentCache(t *testing.T) {
	c := New()
	wrapped := c.InstrumentCache(cache.Noop{}, "catalog")

	var dest []string
	err := wrapped.Get(context.Background(), "catalog:categories", &dest)
	assert.ErrorIs(t, err, cache.ErrMiss)
	require.NoError(t, wrapped.Set(context.Background(), "k", "v", time.Minute))

	body := scrape(t, c)
	assert.Contains(t, body, `cache_misses_total{cache="catalog"} 1`)
	assert.NotContains(t, body, `cache_hits_total{cache="catalog"}`)
}

func TestRuntimeCollectorsRegistered(t *testing.T) {
	assert.Contains(t, scrape(t, New()), "go_goroutines")
}
