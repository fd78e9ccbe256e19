// Package cache holds the in-memory views of balances and item stats that sit
// in front of the store. Reads are served from memory once warmed; every
// mutation updates memory first and then writes through.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

var (
	// ErrRejected is returned by Update when the mutation function refuses
	// the current value. The wrapped error carries the reason.
	ErrRejected = errors.New("update rejected")
	// ErrWriteThrough marks a store write that failed after the cache was
	// already updated.
	ErrWriteThrough = errors.New("write-through failed")
)

// BalanceCache caches one balance column (cash or bank) for every account.
type BalanceCache struct {
	kind    store.Kind
	store   store.Store
	initial decimal.Decimal
	entries *xsync.MapOf[uuid.UUID, decimal.Decimal]
	group   singleflight.Group
}

// NewBalanceCache returns a cache for kind. Accounts seen for the first time
// are created with initial.
func NewBalanceCache(kind store.Kind, st store.Store, initial decimal.Decimal) *BalanceCache {
	return &BalanceCache{
		kind:    kind,
		store:   st,
		initial: initial,
		entries: xsync.NewMapOf[uuid.UUID, decimal.Decimal](),
	}
}

func (c *BalanceCache) Kind() store.Kind {
	return c.kind
}

// Warm loads every stored balance into memory.
func (c *BalanceCache) Warm(ctx context.Context) (int, error) {
	balances, err := c.store.LoadBalances(ctx, c.kind)
	if err != nil {
		return 0, err
	}
	for id, amount := range balances {
		c.entries.Store(id, amount)
	}
	return len(balances), nil
}

// Get returns the balance of id, reading the store on a miss and creating the
// account when the store has no record.
func (c *BalanceCache) Get(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if amount, ok := c.entries.Load(id); ok {
		return amount, nil
	}

	v, err, _ := c.group.Do(id.String(), func() (any, error) {
		if amount, ok := c.entries.Load(id); ok {
			return amount, nil
		}

		amount, found, err := c.store.Balance(ctx, c.kind, id)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to load %s balance: %w", c.kind, err)
		}
		if found {
			actual, _ := c.entries.LoadOrStore(id, amount)
			return actual, nil
		}

		actual, loaded := c.entries.LoadOrStore(id, c.initial)
		if !loaded {
			if err := c.store.SetBalance(ctx, c.kind, id, c.initial); err != nil {
				slog.Error("Failed to persist new account",
					slog.String("type", "db"),
					slog.String("operation", "bootstrap"),
					slog.String("kind", c.kind.String()),
					slog.String("account", id.String()),
					slog.Any("error", err))
			}
		}
		return actual, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// Peek returns the cached balance without touching the store.
func (c *BalanceCache) Peek(id uuid.UUID) (decimal.Decimal, bool) {
	return c.entries.Load(id)
}

// Set replaces the balance and writes it through. The cache keeps the new
// value even when the store write fails.
func (c *BalanceCache) Set(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	old, err := c.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if prev, loaded := c.entries.LoadAndStore(id, amount); loaded {
		old = prev
	}
	return old, c.persist(ctx, id, amount)
}

// Update applies fn to the current balance atomically with respect to other
// cache updates of the same account, then writes the result through. When fn
// returns an error nothing changes and the error is returned wrapped in
// ErrRejected.
func (c *BalanceCache) Update(ctx context.Context, id uuid.UUID, fn func(old decimal.Decimal) (decimal.Decimal, error)) (old, updated decimal.Decimal, err error) {
	if _, err = c.Get(ctx, id); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var fnErr error
	c.entries.Compute(id, func(current decimal.Decimal, loaded bool) (decimal.Decimal, bool) {
		if !loaded {
			current = c.initial
		}
		old = current
		next, e := fn(current)
		if e != nil {
			fnErr = e
			updated = current
			return current, false
		}
		updated = next
		return next, false
	})
	if fnErr != nil {
		return old, old, fmt.Errorf("%w: %w", ErrRejected, fnErr)
	}
	return old, updated, c.persist(ctx, id, updated)
}

// Snapshot copies every cached balance.
func (c *BalanceCache) Snapshot() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, c.entries.Size())
	c.entries.Range(func(id uuid.UUID, amount decimal.Decimal) bool {
		out[id] = amount
		return true
	})
	return out
}

func (c *BalanceCache) Len() int {
	return c.entries.Size()
}

func (c *BalanceCache) persist(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	if err := c.store.SetBalance(ctx, c.kind, id, amount); err != nil {
		slog.Error("Failed to write balance",
			slog.String("type", "db"),
			slog.String("operation", "set_balance"),
			slog.String("kind", c.kind.String()),
			slog.String("account", id.String()),
			slog.Any("error", err))
		return fmt.Errorf("%w: %s balance: %w", ErrWriteThrough, c.kind, err)
	}
	return nil
}
