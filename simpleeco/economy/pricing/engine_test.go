package pricing

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

var testGlobals = Globals{
	PriceFactor:           0.05,
	ReferenceAmount:       1000,
	RegressionTimeMinutes: 60,
	SellRatio:             0.8,
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T, items map[string]ItemPrice) (*Engine, *store.Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	st := store.NewMemory()
	stats := cache.NewStatsCache(st, cache.WithClock(clock.Now))
	return NewEngine(stats, NewCatalog(testGlobals, items)), st, clock
}

func diamond() map[string]ItemPrice {
	return map[string]ItemPrice{
		"DIAMOND": {BasePrice: 10, MinPrice: 1, MaxPrice: 100, Buyable: true, Sellable: true},
	}
}

func TestEngine_PriceDecay(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t, diamond())

	_, err := e.RecordSale(ctx, "DIAMOND", 1000)
	require.NoError(t, err)

	buy, err := e.BuyPrice(ctx, "DIAMOND")
	require.NoError(t, err)
	assert.InDelta(t, 10.5, buy, 1e-9)

	sell, err := e.SellPrice(ctx, "DIAMOND")
	require.NoError(t, err)
	assert.InDelta(t, 8.4, sell, 1e-9)

	clock.Advance(30 * time.Minute)
	buy, _ = e.BuyPrice(ctx, "DIAMOND")
	assert.InDelta(t, 10.25, buy, 1e-9)

	clock.Advance(30 * time.Minute)
	buy, _ = e.BuyPrice(ctx, "DIAMOND")
	assert.InDelta(t, 10.0, buy, 1e-9)
}

func TestEngine_RecordTrades(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t, diamond())

	_, err := e.RecordPurchase(ctx, "diamond", 5)
	require.NoError(t, err)
	s, err := e.RecordSale(ctx, "DIAMOND", 2)
	require.NoError(t, err)

	assert.Equal(t, int64(5), s.Bought)
	assert.Equal(t, int64(2), s.Sold)
	assert.Equal(t, int64(-3), s.NetSales())

	persisted, _, _ := st.ItemStats(ctx, "DIAMOND")
	assert.Equal(t, s.Sold, persisted.Sold)
	assert.Equal(t, s.Bought, persisted.Bought)

	_, err = e.RecordSale(ctx, "DIAMOND", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = e.RecordPurchase(ctx, "DIAMOND", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestEngine_UnknownItem(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, diamond())

	buy, err := e.BuyPrice(ctx, "BEDROCK")
	require.NoError(t, err)
	assert.Zero(t, buy)

	info, err := e.PriceInfo(ctx, "BEDROCK")
	require.NoError(t, err)
	assert.Zero(t, info.BuyPrice)
	assert.False(t, e.IsTradeable("BEDROCK"))
	assert.True(t, e.IsTradeable("diamond"))
}

func TestEngine_PriceStaysInBand(t *testing.T) {
	p := ItemPrice{BasePrice: 10, MinPrice: 5, MaxPrice: 20}
	for _, net := range []int64{-1_000_000, -50_000, -1, 0, 1, 50_000, 1_000_000} {
		for _, reg := range []float64{0, 0.25, 0.5, 1} {
			var sold, bought int64
			if net > 0 {
				sold = net
			} else {
				bought = -net
			}
			price := BuyPriceFor(p, testGlobals, sold, bought, reg)
			assert.GreaterOrEqual(t, price, p.MinPrice)
			assert.LessOrEqual(t, price, p.MaxPrice)
		}
	}
}

func TestEngine_ItemOverrides(t *testing.T) {
	ctx := context.Background()
	factor, ref := 0.5, int64(100)
	e, _, _ := newTestEngine(t, map[string]ItemPrice{
		"GOLD": {BasePrice: 10, MinPrice: 1, MaxPrice: 100, PriceFactor: &factor, ReferenceAmount: &ref},
	})

	_, err := e.RecordSale(ctx, "GOLD", 10)
	require.NoError(t, err)

	info, err := e.PriceInfo(ctx, "GOLD")
	require.NoError(t, err)
	assert.InDelta(t, 10.5, info.BuyPrice, 1e-9)
	assert.Equal(t, 0.5, info.EffectivePriceFactor)
	assert.Equal(t, int64(100), info.EffectiveReferenceAmount)
	assert.InDelta(t, 0.05, info.Volatility, 1e-9)
	assert.InDelta(t, 5.0, info.Deviation(), 1e-9)
	assert.Equal(t, TrendStable, info.Trend())
	assert.Equal(t, "low", info.VolatilityLevel())
}

func TestEngine_SimulateTrade(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t, diamond())

	_, err := e.RecordSale(ctx, "DIAMOND", 1000)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	projected, err := e.SimulateTrade(ctx, "DIAMOND", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, projected, 1e-9, "regression is treated as 1")

	projected, _ = e.SimulateTrade(ctx, "DIAMOND", -1000)
	assert.InDelta(t, 10.0, projected, 1e-9)

	s, _ := e.Stats(ctx, "DIAMOND")
	assert.Equal(t, int64(1000), s.Sold, "simulation does not mutate")
}

func TestEngine_Reload(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, diamond())

	e.Reload(NewCatalog(testGlobals, map[string]ItemPrice{
		"DIAMOND": {BasePrice: 20, MinPrice: 1, MaxPrice: 100},
	}))
	buy, err := e.BuyPrice(ctx, "DIAMOND")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, buy, 1e-9)
}

func TestRegressionFactor(t *testing.T) {
	now := time.Now()
	window := time.Hour

	assert.Equal(t, 1.0, RegressionFactor(now, now, window))
	assert.InDelta(t, 0.5, RegressionFactor(now.Add(-30*time.Minute), now, window), 1e-9)
	assert.Equal(t, 0.0, RegressionFactor(now.Add(-2*time.Hour), now, window))
	assert.Equal(t, 1.0, RegressionFactor(now.Add(time.Minute), now, window), "future trades clamp to 1")
	assert.False(t, math.IsNaN(RegressionFactor(now, now, 0)))
}
