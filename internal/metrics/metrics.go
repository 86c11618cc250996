// Package metrics exposes Prometheus collectors for HTTP traffic, the
// checkout funnel and the catalog cache.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coffeeshop/internal/cache"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	ordersPlaced     prometheus.Counter
	checkoutFailures *prometheus.CounterVec
	orderRevenue     prometheus.Counter
	pointsAwarded    prometheus.Counter
	pointsRedeemed   prometheus.Counter

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// New builds a collector on its own registry, with the Go runtime and
// process collectors attached.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "coffeeshop_orders_placed_total",
			Help: "Orders placed through checkout",
		}),
		checkoutFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffeeshop_checkout_failures_total",
				Help: "Checkouts that did not produce an order, by reason",
			},
			[]string{"reason"},
		),
		orderRevenue: factory.NewCounter(prometheus.CounterOpts{
			Name: "coffeeshop_order_revenue_total",
			Help: "Sum of placed order totals",
		}),
		pointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "coffeeshop_loyalty_points_awarded_total",
			Help: "Loyalty points credited at checkout",
		}),
		pointsRedeemed: factory.NewCounter(prometheus.CounterOpts{
			Name: "coffeeshop_loyalty_points_redeemed_total",
			Help: "Loyalty points spent on rewards",
		}),

		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) OrderPlaced(total float64, points int) {
	c.ordersPlaced.Inc()
	c.orderRevenue.Add(total)
	if points > 0 {
		c.pointsAwarded.Add(float64(points))
	}
}

func (c *Collector) CheckoutFailed(reason string) {
	c.checkoutFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) PointsRedeemed(points int) {
	if points > 0 {
		c.pointsRedeemed.Add(float64(points))
	}
}

// InstrumentCache counts hits and misses of inner under the given name.
func (c *Collector) InstrumentCache(inner cache.Cache, name string) cache.Cache {
	return &instrumentedCache{inner: inner, name: name, collector: c}
}

type instrumentedCache struct {
	inner     cache.Cache
	name      string
	collector *Collector
}

func (i *instrumentedCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := i.inner.Get(ctx, key, dest)
	switch {
	case err == nil:
		i.collector.cacheHits.WithLabelValues(i.name).Inc()
	case errors.Is(err, cache.ErrMiss):
		i.collector.cacheMisses.WithLabelValues(i.name).Inc()
	}
	return err
}

func (i *instrumentedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return i.inner.Set(ctx, key, value, ttl)
}

func (i *instrumentedCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return i.inner.InvalidatePrefix(ctx, prefix)
}
