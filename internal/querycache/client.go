package querycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/tracing"
)

var cacheResults = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kafelog",
		Name:      "query_cache_total",
		Help:      "Query cache lookups by resource and result",
	},
	[]string{"resource", "result"},
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultStale = "stale"
	resultError = "error"
	resultIdle  = "idle"
)

type Options struct {
	// StaleTime applies to queries that do not set their own.
	StaleTime time.Duration
	// GCTime is how long an entry is kept after it was fetched.
	GCTime time.Duration
	// Retry is the number of automatic retries after a failed fetch.
	Retry      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		StaleTime:  5 * time.Minute,
		GCTime:     10 * time.Minute,
		Retry:      1,
		RetryDelay: 200 * time.Millisecond,
	}
}

// Client is a read-through cache over a Store with in-flight de-duplication.
type Client struct {
	store Store
	opts  Options
	group singleflight.Group
	now   func() time.Time
}

func New(store Store, opts Options) *Client {
	def := DefaultOptions()
	if opts.StaleTime <= 0 {
		opts.StaleTime = def.StaleTime
	}
	if opts.GCTime <= 0 {
		opts.GCTime = def.GCTime
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	return &Client{store: store, opts: opts, now: time.Now}
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Query describes one cached read.
type Query[T any] struct {
	// Resource labels metrics and spans, e.g. "businesses".
	Resource  string
	Key       string
	Fn        func(ctx context.Context) (T, error)
	StaleTime time.Duration
	// Enabled gates the query; nil means always enabled.
	Enabled func() bool
}

type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	FetchedAt time.Time
	// Stale is set when Data was served after a failed refresh.
	Stale     bool
	FromCache bool
}

// IsLoading is always false: Fetch blocks until it has a result.
func (r Result[T]) IsLoading() bool { return false }

func (r Result[T]) IsSuccess() bool { return r.Status == StatusSuccess }

func (r Result[T]) IsError() bool { return r.Status == StatusError }

// Fetch returns cached data while it is fresh and otherwise calls q.Fn once per
// key across concurrent callers. A failed refresh falls back to the stale entry.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) Result[T] {
	if q.Enabled != nil && !q.Enabled() {
		cacheResults.WithLabelValues(q.Resource, resultIdle).Inc()
		return Result[T]{Status: StatusIdle}
	}

	ctx, span := tracing.StartSpan(ctx, "querycache.fetch",
		trace.WithAttributes(attribute.String("cache.resource", q.Resource)))
	defer span.End()

	log := logger.Ctx(ctx).With().Str("resource", q.Resource).Str("key", q.Key).Logger()

	staleTime := q.StaleTime
	if staleTime <= 0 {
		staleTime = c.opts.StaleTime
	}

	var cached *T
	var cachedAt time.Time
	entry, ok, err := c.store.Get(ctx, q.Key)
	if err != nil {
		log.Warn().Err(err).Msg("query cache read failed")
	}
	if ok {
		var data T
		if err := json.Unmarshal(entry.Data, &data); err != nil {
			log.Warn().Err(err).Msg("query cache entry undecodable")
		} else {
			if c.now().Sub(entry.FetchedAt) < staleTime {
				cacheResults.WithLabelValues(q.Resource, resultHit).Inc()
				span.SetAttributes(attribute.String("cache.result", resultHit))
				return Result[T]{Data: data, Status: StatusSuccess, FetchedAt: entry.FetchedAt, FromCache: true}
			}
			cached, cachedAt = &data, entry.FetchedAt
		}
	}

	// The shared call must outlive any single caller's cancellation; the
	// transport timeout bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(q.Key, func() (any, error) {
		return c.load(shared, q.Key, func(ctx context.Context) (any, error) {
			return q.Fn(ctx)
		})
	})
	if err != nil {
		span.RecordError(err)
		if cached != nil {
			cacheResults.WithLabelValues(q.Resource, resultStale).Inc()
			span.SetAttributes(attribute.String("cache.result", resultStale))
			log.Warn().Err(err).Msg("query refresh failed, serving stale data")
			return Result[T]{Data: *cached, Status: StatusSuccess, FetchedAt: cachedAt, Stale: true, FromCache: true}
		}
		cacheResults.WithLabelValues(q.Resource, resultError).Inc()
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Msg("query failed")
		return Result[T]{Status: StatusError, Err: err}
	}

	lr := v.(loaded)
	data, ok := lr.value.(T)
	if !ok {
		// Another caller shared this key with a different result type.
		if err := json.Unmarshal(lr.raw, &data); err != nil {
			cacheResults.WithLabelValues(q.Resource, resultError).Inc()
			return Result[T]{Status: StatusError, Err: err}
		}
	}
	cacheResults.WithLabelValues(q.Resource, resultMiss).Inc()
	span.SetAttributes(attribute.String("cache.result", resultMiss))
	return Result[T]{Data: data, Status: StatusSuccess, FetchedAt: lr.fetchedAt}
}

type loaded struct {
	value     any
	raw       json.RawMessage
	fetchedAt time.Time
}

func (c *Client) load(ctx context.Context, key string, fn func(context.Context) (any, error)) (loaded, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryDelay

	value, err := backoff.Retry(ctx, func() (any, error) {
		v, err := fn(ctx)
		if err != nil && downstream.IsClientError(err) {
			return nil, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.opts.Retry+1)))
	if err != nil {
		return loaded{}, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return loaded{}, err
	}
	lr := loaded{value: value, raw: raw, fetchedAt: c.now()}
	if err := c.store.Set(ctx, key, &Entry{Data: raw, FetchedAt: lr.fetchedAt}, c.opts.GCTime); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("query cache write failed")
	}
	return lr, nil
}
