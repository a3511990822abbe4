// Package aggregator turns the store's cursor-paginated key listing and
// per-key value lookups into one ordered slice of entries.
//
// Loading a namespace runs in two stages. EnumerateKeys walks the key
// listing sequentially, since each cursor comes from the previous page.
// FetchValues then looks up every key with bounded parallelism. A failed
// lookup drops that key from the result and never cancels its siblings.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
	"github.com/oakwood-commons/kvbrowse/internal/metrics"
	"github.com/oakwood-commons/kvbrowse/pkg/logger"
)

// DefaultConcurrency bounds parallel value lookups.
const DefaultConcurrency = 8

// ErrMissingNamespace is returned when no namespace id is given.
var ErrMissingNamespace = errors.New("namespace id is required")

// PerKeyFetchError records a value lookup that failed. It is logged and
// counted, never returned from FetchEntries.
type PerKeyFetchError struct {
	Key string
	Err error
}

func (e *PerKeyFetchError) Error() string {
	return fmt.Sprintf("fetch value for key %q: %v", e.Key, e.Err)
}

func (e *PerKeyFetchError) Unwrap() error {
	return e.Err
}

// Aggregator loads namespaces and their entries from a store.
type Aggregator struct {
	store       kvstore.Store
	concurrency int
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency sets how many value lookups run at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithRateLimit caps value lookups per second; zero or less disables it.
func WithRateLimit(perSecond float64) Option {
	return func(a *Aggregator) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// New builds an Aggregator over store.
func New(store kvstore.Store, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchNamespaces lists every namespace once. Any failure is returned as an
// *kvstore.UpstreamError.
func (a *Aggregator) FetchNamespaces(ctx context.Context) ([]dataset.Namespace, error) {
	out, err := a.store.ListNamespaces(ctx)
	if err != nil {
		return nil, upstream(ctx, "list_namespaces", err)
	}
	return dataset.FromStore(out), nil
}

// FetchEntries loads every entry of a namespace in listing order. Key
// enumeration failures abort the load; value lookup failures only drop the
// affected keys.
func (a *Aggregator) FetchEntries(ctx context.Context, namespaceID string) ([]dataset.Entry, error) {
	if namespaceID == "" {
		return nil, ErrMissingNamespace
	}
	log := logger.WithValues(logger.FromContext(ctx), logger.NamespaceKey, namespaceID)
	start := time.Now()

	keys, err := a.EnumerateKeys(ctx, namespaceID)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("enumerated keys", "keys", len(keys))

	entries, failures := a.FetchValues(ctx, namespaceID, keys)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range failures {
		log.Error(f.Err, "value lookup failed, skipping key", "key", f.Key)
	}
	a.metrics.ObserveFetch(time.Since(start), len(entries), len(failures))
	log.V(1).Info("fetched namespace", "entries", len(entries), "failures", len(failures), "elapsed", time.Since(start).String())
	return entries, nil
}

// EnumerateKeys follows the key listing until the store returns an empty
// cursor, concatenating pages in the order returned.
func (a *Aggregator) EnumerateKeys(ctx context.Context, namespaceID string) ([]kvstore.Key, error) {
	var keys []kvstore.Key
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := a.store.ListKeys(ctx, namespaceID, cursor, kvstore.MaxPageSize)
		if err != nil {
			return nil, upstream(ctx, "list_keys", err)
		}
		keys = append(keys, page.Keys...)
		if page.Cursor == "" {
			return keys, nil
		}
		if _, dup := seen[page.Cursor]; dup {
			return nil, &kvstore.UpstreamError{Op: "list_keys", Err: fmt.Errorf("cursor %q returned twice", page.Cursor)}
		}
		seen[page.Cursor] = struct{}{}
		cursor = page.Cursor
	}
}

// FetchValues looks up every key and returns the entries that succeeded, in
// the order of keys, plus one error per key that failed. Values are decoded
// as JSON when possible and kept as text otherwise.
func (a *Aggregator) FetchValues(ctx context.Context, namespaceID string, keys []kvstore.Key) ([]dataset.Entry, []*PerKeyFetchError) {
	results := make([]*dataset.Entry, len(keys))
	errs := make([]error, len(keys))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, k := range keys {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			continue
		}
		g.Go(func() error {
			if err := a.wait(ctx); err != nil {
				errs[i] = err
				return nil
			}
			body, err := a.store.GetValue(ctx, namespaceID, k.Name)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &dataset.Entry{
				Key:        k.Name,
				Value:      dataset.DecodeValue(body),
				Expiration: dataset.ExpirationFromEpoch(k.Expiration),
				Metadata:   k.Metadata,
			}
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]dataset.Entry, 0, len(keys))
	var failures []*PerKeyFetchError
	for i, r := range results {
		if r != nil {
			entries = append(entries, *r)
			continue
		}
		failures = append(failures, &PerKeyFetchError{Key: keys[i].Name, Err: errs[i]})
	}
	return entries, failures
}

func (a *Aggregator) wait(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

// upstream normalizes collaborator failures. Cancellation passes through
// untouched so callers can tell it apart from store errors.
func upstream(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var upErr *kvstore.UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}
	return &kvstore.UpstreamError{Op: op, Err: err}
}
