package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

const priceEpsilon = 1e-9

// History persists price snapshots. The last recorded price of each item is
// remembered so unchanged prices are not written again.
type History struct {
	store store.Store
	last  *lru.Cache
}

func NewHistory(st store.Store, size int) (*History, error) {
	last, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create price history cache: %w", err)
	}
	return &History{store: st, last: last}, nil
}

// Record stores the snapshots whose buy price differs from the last recorded
// one and returns how many were written.
func (h *History) Record(ctx context.Context, snapshots []store.PriceSnapshot) (int, error) {
	changed := make([]store.PriceSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if prev, ok := h.last.Get(s.Item); ok && math.Abs(prev.(float64)-s.BuyPrice) < priceEpsilon {
			continue
		}
		changed = append(changed, s)
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err := h.store.AppendPriceHistory(ctx, changed); err != nil {
		return 0, err
	}
	for _, s := range changed {
		h.last.Add(s.Item, s.BuyPrice)
	}
	return len(changed), nil
}

func (h *History) Since(ctx context.Context, item string, since time.Time) ([]store.PriceSnapshot, error) {
	return h.store.PriceHistory(ctx, NormalizeItem(item), since)
}
