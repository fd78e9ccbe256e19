package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

// StatsCache caches trade counters per item.
type StatsCache struct {
	store   store.Store
	entries *xsync.MapOf[string, store.Stats]
	group   singleflight.Group
	now     func() time.Time
}

type StatsOption func(*StatsCache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) StatsOption {
	return func(c *StatsCache) { c.now = now }
}

func NewStatsCache(st store.Store, opts ...StatsOption) *StatsCache {
	c := &StatsCache{
		store:   st,
		entries: xsync.NewMapOf[string, store.Stats](),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *StatsCache) Warm(ctx context.Context) (int, error) {
	stats, err := c.store.LoadItemStats(ctx)
	if err != nil {
		return 0, err
	}
	for item, s := range stats {
		c.entries.Store(item, s)
	}
	return len(stats), nil
}

// Get returns the stats of item. Unknown items start at zero with the last
// trade set to now.
func (c *StatsCache) Get(ctx context.Context, item string) (store.Stats, error) {
	if s, ok := c.entries.Load(item); ok {
		return s, nil
	}

	v, err, _ := c.group.Do(item, func() (any, error) {
		if s, ok := c.entries.Load(item); ok {
			return s, nil
		}

		s, found, err := c.store.ItemStats(ctx, item)
		if err != nil {
			return store.Stats{}, fmt.Errorf("failed to load item stats: %w", err)
		}
		if found {
			actual, _ := c.entries.LoadOrStore(item, s)
			return actual, nil
		}

		fresh := store.Stats{LastTrade: c.now().Truncate(time.Second)}
		actual, loaded := c.entries.LoadOrStore(item, fresh)
		if !loaded {
			if err := c.store.AddItemStats(ctx, item, store.StatsDelta{TradedAt: fresh.LastTrade}); err != nil {
				slog.Error("Failed to persist new item stats",
					slog.String("type", "db"),
					slog.String("operation", "bootstrap"),
					slog.String("item", item),
					slog.Any("error", err))
			}
		}
		return actual, nil
	})
	if err != nil {
		return store.Stats{}, err
	}
	return v.(store.Stats), nil
}

func (c *StatsCache) Peek(item string) (store.Stats, bool) {
	return c.entries.Load(item)
}

// Add applies delta to the cached counters and writes the same delta through.
// Counters are clamped at zero.
func (c *StatsCache) Add(ctx context.Context, item string, delta store.StatsDelta) (store.Stats, error) {
	if _, err := c.Get(ctx, item); err != nil {
		return store.Stats{}, err
	}

	updated, _ := c.entries.Compute(item, func(s store.Stats, _ bool) (store.Stats, bool) {
		s.Sold = max(s.Sold+delta.Sold, 0)
		s.Bought = max(s.Bought+delta.Bought, 0)
		if !delta.TradedAt.IsZero() {
			s.LastTrade = delta.TradedAt.Truncate(time.Second)
		}
		return s, false
	})

	if err := c.store.AddItemStats(ctx, item, delta); err != nil {
		slog.Error("Failed to write item stats",
			slog.String("type", "db"),
			slog.String("operation", "add_item_stats"),
			slog.String("item", item),
			slog.Int64("sold", delta.Sold),
			slog.Int64("bought", delta.Bought),
			slog.Any("error", err))
		return updated, fmt.Errorf("%w: item stats: %w", ErrWriteThrough, err)
	}
	return updated, nil
}

func (c *StatsCache) Snapshot() map[string]store.Stats {
	out := make(map[string]store.Stats, c.entries.Size())
	c.entries.Range(func(item string, s store.Stats) bool {
		out[item] = s
		return true
	})
	return out
}

func (c *StatsCache) Now() time.Time {
	return c.now()
}
