// Package metrics holds the Prometheus collectors of kvbrowse.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
)

const namespace = "kvbrowse"

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	PerKeyFailures   prometheus.Counter
	EntriesFetched   prometheus.Counter
	FetchDuration    prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Calls made to the key-value store, by operation and outcome.",
		}, []string{"op", "outcome"}),
		PerKeyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "value_lookup_failures_total",
			Help:      "Value lookups that failed and were left out of a namespace load.",
		}),
		EntriesFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_fetched_total",
			Help:      "Entries returned by namespace loads.",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "namespace_fetch_duration_seconds",
			Help:      "Wall time of full namespace loads.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests served, by route and status code.",
		}, []string{"route", "code"}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveFetch records one completed namespace load.
func (m *Metrics) ObserveFetch(d time.Duration, entries, failures int) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	m.EntriesFetched.Add(float64(entries))
	m.PerKeyFailures.Add(float64(failures))
}

// ObserveHTTP records one served API request.
func (m *Metrics) ObserveHTTP(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

func (m *Metrics) observeUpstream(op string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	default:
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(op, outcome).Inc()
}

// InstrumentStore counts every call made through s.
func InstrumentStore(s kvstore.Store, m *Metrics) kvstore.Store {
	if m == nil {
		return s
	}
	return &instrumentedStore{next: s, m: m}
}

type instrumentedStore struct {
	next kvstore.Store
	m    *Metrics
}

func (s *instrumentedStore) ListNamespaces(ctx context.Context) ([]kvstore.Namespace, error) {
	out, err := s.next.ListNamespaces(ctx)
	s.m.observeUpstream("list_namespaces", err)
	return out, err
}

func (s *instrumentedStore) ListKeys(ctx context.Context, namespaceID, cursor string, limit int) (kvstore.KeyPage, error) {
	page, err := s.next.ListKeys(ctx, namespaceID, cursor, limit)
	s.m.observeUpstream("list_keys", err)
	return page, err
}

func (s *instrumentedStore) GetValue(ctx context.Context, namespaceID, key string) ([]byte, error) {
	body, err := s.next.GetValue(ctx, namespaceID, key)
	s.m.observeUpstream("get_value", err)
	return body, err
}
