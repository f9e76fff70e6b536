package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Memory is an in-process Store backed by ttlcache. Entries expire on an
// absolute window from the time they were set; reads do not extend it.
type Memory struct {
	inner      *ttlcache.Cache[string, []byte]
	defaultTTL time.Duration
	hits       metric.Int64Counter
	misses     metric.Int64Counter
}

// NewMemory creates a Memory store with the given default TTL and starts its
// expiry loop. Call Stop when done.
func NewMemory(defaultTTL time.Duration) *Memory {
	inner := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go inner.Start()

	meter := otel.Meter("clinicstack/cache")
	hits, err := meter.Int64Counter("cache_hits", metric.WithDescription("List cache hits"))
	if err != nil {
		slog.Warn("failed to create cache_hits counter", "error", err)
	}
	misses, err := meter.Int64Counter("cache_misses", metric.WithDescription("List cache misses"))
	if err != nil {
		slog.Warn("failed to create cache_misses counter", "error", err)
	}

	return &Memory{
		inner:      inner,
		defaultTTL: defaultTTL,
		hits:       hits,
		misses:     misses,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	item := m.inner.Get(key)
	if item == nil || item.IsExpired() {
		if m.misses != nil {
			m.misses.Add(ctx, 1)
		}
		return nil, ErrMiss
	}
	if m.hits != nil {
		m.hits.Add(ctx, 1)
	}
	return item.Value(), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.inner.Set(key, value, ttl)
	return nil
}

// Delete removes the given keys. Keys that are already gone are skipped
// silently.
func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		m.inner.Delete(key)
	}
	return nil
}

// Stop terminates the expiry loop.
func (m *Memory) Stop() {
	m.inner.Stop()
}
