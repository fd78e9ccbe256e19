package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory keeps everything in process. It backs tests and local runs with
// store.driver = "memory".
type Memory struct {
	mu       sync.RWMutex
	balances map[Kind]map[uuid.UUID]decimal.Decimal
	stats    map[string]Stats
	history  []PriceSnapshot
	closed   bool
}

func NewMemory() *Memory {
	return &Memory{
		balances: map[Kind]map[uuid.UUID]decimal.Decimal{
			Cash: {},
			Bank: {},
		},
		stats: map[string]Stats{},
	}
}

func (m *Memory) LoadBalances(_ context.Context, kind Kind) (map[uuid.UUID]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return maps.Clone(m.balances[kind]), nil
}

func (m *Memory) Balance(_ context.Context, kind Kind, id uuid.UUID) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return decimal.Zero, false, ErrClosed
	}
	amount, ok := m.balances[kind][id]
	return amount, ok, nil
}

func (m *Memory) SetBalance(_ context.Context, kind Kind, id uuid.UUID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.balances[kind][id] = amount
	return nil
}

func (m *Memory) LoadItemStats(_ context.Context) (map[string]Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return maps.Clone(m.stats), nil
}

func (m *Memory) ItemStats(_ context.Context, item string) (Stats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Stats{}, false, ErrClosed
	}
	s, ok := m.stats[item]
	return s, ok, nil
}

func (m *Memory) AddItemStats(_ context.Context, item string, delta StatsDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	s, ok := m.stats[item]
	if !ok {
		s.LastTrade = time.Now().Truncate(time.Second)
	}
	s.Sold = max(s.Sold+delta.Sold, 0)
	s.Bought = max(s.Bought+delta.Bought, 0)
	if !delta.TradedAt.IsZero() {
		s.LastTrade = delta.TradedAt.Truncate(time.Second)
	}
	m.stats[item] = s
	return nil
}

func (m *Memory) AppendPriceHistory(_ context.Context, snapshots []PriceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.history = append(m.history, snapshots...)
	return nil
}

func (m *Memory) PriceHistory(_ context.Context, item string, since time.Time) ([]PriceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]PriceSnapshot, 0)
	for _, s := range m.history {
		if s.Item == item && !s.RecordedAt.Before(since) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b PriceSnapshot) int {
		return a.RecordedAt.Compare(b.RecordedAt)
	})
	return out, nil
}

func (m *Memory) PruneHistory(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	n := len(m.history)
	m.history = slices.DeleteFunc(m.history, func(s PriceSnapshot) bool {
		return s.RecordedAt.Before(before)
	})
	return int64(n - len(m.history)), nil
}

func (m *Memory) ImportBalances(_ context.Context, kind Kind, balances map[uuid.UUID]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	maps.Copy(m.balances[kind], balances)
	return nil
}

func (m *Memory) ImportItemStats(_ context.Context, stats map[string]Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	maps.Copy(m.stats, stats)
	return nil
}

func (m *Memory) Close(_ context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
