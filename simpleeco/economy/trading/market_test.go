package trading

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/ledger"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/pricing"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

func newTestMarket(t *testing.T, start int64) (*Market, *ledger.Ledger, *pricing.Engine) {
	t.Helper()
	return newTestMarketOn(t, store.NewMemory(), start)
}

func newTestMarketOn(t *testing.T, st store.Store, start int64) (*Market, *ledger.Ledger, *pricing.Engine) {
	t.Helper()
	l := ledger.New(st, ledger.Options{StartBalance: decimal.NewFromInt(start)})
	t.Cleanup(l.Close)

	catalog := pricing.NewCatalog(pricing.Globals{
		PriceFactor:           0.05,
		ReferenceAmount:       1000,
		RegressionTimeMinutes: 60,
		SellRatio:             0.8,
	}, map[string]pricing.ItemPrice{
		"DIAMOND": {BasePrice: 10, MinPrice: 1, MaxPrice: 100, Buyable: true, Sellable: true},
		"BEACON":  {BasePrice: 500, MinPrice: 100, MaxPrice: 1000, Buyable: true, Sellable: false},
		"DIRT":    {BasePrice: 1, MinPrice: 0.5, MaxPrice: 2, Buyable: false, Sellable: true},
	})
	e := pricing.NewEngine(cache.NewStatsCache(st), catalog)
	return NewMarket(l, e), l, e
}

func TestMarket_Buy(t *testing.T) {
	ctx := context.Background()
	m, l, e := newTestMarket(t, 1000)
	a := uuid.New()

	res, err := m.Buy(ctx, a, "diamond", 3)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.InDelta(t, 10.0, res.UnitPrice, 1e-9)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(30)))
	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(970)))

	cash, _ := l.Cash(ctx, a)
	assert.True(t, cash.Equal(decimal.NewFromInt(970)))

	s, _ := e.Stats(ctx, "DIAMOND")
	assert.Equal(t, int64(3), s.Bought)
}

func TestMarket_BuyInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	m, l, e := newTestMarket(t, 5)
	a := uuid.New()

	res, err := m.Buy(ctx, a, "DIAMOND", 1)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)

	cash, _ := l.Cash(ctx, a)
	assert.True(t, cash.Equal(decimal.NewFromInt(5)))
	s, _ := e.Stats(ctx, "DIAMOND")
	assert.Zero(t, s.Bought)
}

func TestMarket_Sell(t *testing.T) {
	ctx := context.Background()
	m, l, e := newTestMarket(t, 0)
	a := uuid.New()

	res, err := m.Sell(ctx, a, "DIAMOND", 10)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(80)))

	cash, _ := l.Cash(ctx, a)
	assert.True(t, cash.Equal(decimal.NewFromInt(80)))
	s, _ := e.Stats(ctx, "DIAMOND")
	assert.Equal(t, int64(10), s.Sold)
}

func TestMarket_Rejections(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMarket(t, 1000)
	a := uuid.New()

	res, err := m.Buy(ctx, a, "BEDROCK", 1)
	require.NoError(t, err)
	assert.Equal(t, ReasonNotTradeable, res.Reason)

	res, _ = m.Buy(ctx, a, "DIRT", 1)
	assert.Equal(t, ReasonNotBuyable, res.Reason)

	res, _ = m.Sell(ctx, a, "BEACON", 1)
	assert.Equal(t, ReasonNotSellable, res.Reason)

	_, err = m.Sell(ctx, a, "DIAMOND", 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)
}

// failingBalances fails every balance write once broken is set.
type failingBalances struct {
	*store.Memory
	broken atomic.Bool
}

func (f *failingBalances) SetBalance(ctx context.Context, kind store.Kind, id uuid.UUID, amount decimal.Decimal) error {
	if f.broken.Load() {
		return errors.New("db down")
	}
	return f.Memory.SetBalance(ctx, kind, id, amount)
}

func TestMarket_TradeStandsWhenBalanceWriteFails(t *testing.T) {
	ctx := context.Background()
	st := &failingBalances{Memory: store.NewMemory()}
	m, l, e := newTestMarketOn(t, st, 1000)
	a := uuid.New()

	_, err := l.Cash(ctx, a)
	require.NoError(t, err)
	st.broken.Store(true)

	res, err := m.Buy(ctx, a, "DIAMOND", 3)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(970)))
	s, _ := e.Stats(ctx, "DIAMOND")
	assert.Equal(t, int64(3), s.Bought)

	res, err = m.Sell(ctx, a, "DIAMOND", 1)
	require.NoError(t, err)
	assert.True(t, res.OK)
	s, _ = e.Stats(ctx, "DIAMOND")
	assert.Equal(t, int64(1), s.Sold)

	cash, err := l.Cash(ctx, a)
	require.NoError(t, err)
	assert.True(t, cash.Equal(res.NewBalance))
	stored, _, _ := st.Memory.Balance(ctx, store.Cash, a)
	assert.True(t, stored.Equal(decimal.NewFromInt(1000)), "store keeps the last persisted value")
}
