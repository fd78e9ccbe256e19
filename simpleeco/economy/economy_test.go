package economy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/async"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/ledger"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/pricing"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/trading"
)

func newTestEconomy(t *testing.T) *Economy {
	t.Helper()
	st := store.NewMemory()
	l := ledger.New(st, ledger.Options{StartBalance: decimal.NewFromInt(1000)})
	e := pricing.NewEngine(cache.NewStatsCache(st), pricing.NewCatalog(pricing.Globals{
		PriceFactor:           0.05,
		ReferenceAmount:       1000,
		RegressionTimeMinutes: 60,
		SellRatio:             0.8,
	}, map[string]pricing.ItemPrice{
		"DIAMOND": {BasePrice: 10, MinPrice: 1, MaxPrice: 100, Buyable: true, Sellable: true},
	}))
	pool := async.NewPool(4)
	t.Cleanup(func() {
		pool.Close()
		l.Close()
	})
	return New(l, e, trading.NewMarket(l, e), pool)
}

func TestEconomy_Futures(t *testing.T) {
	ctx := context.Background()
	eco := newTestEconomy(t)
	a := uuid.New()

	cash, err := eco.GetCash(ctx, a).Wait(ctx)
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(1000)))

	ok, err := eco.DepositToBank(ctx, a, decimal.NewFromInt(400)).Wait(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	bank, err := eco.GetBank(ctx, a).Wait(ctx)
	require.NoError(t, err)
	assert.True(t, bank.Equal(decimal.NewFromInt(400)))

	res, err := eco.Buy(ctx, a, "DIAMOND", 2).Wait(ctx)
	require.NoError(t, err)
	assert.True(t, res.OK)

	price, err := eco.GetBuyPrice(ctx, "DIAMOND").Wait(ctx)
	require.NoError(t, err)
	assert.Less(t, price, 10.0, "purchases lower net sales")

	assert.True(t, eco.IsTradeable("DIAMOND"))
	assert.False(t, eco.IsTradeable("STONE"))
}

func TestEconomy_CallbackOnExecutor(t *testing.T) {
	ctx := context.Background()
	eco := newTestEconomy(t)
	exec := async.NewSerialExecutor(4)
	a := uuid.New()

	got := make(chan bool, 1)
	eco.WithdrawFromBank(ctx, a, decimal.NewFromInt(1)).Then(exec, func(ok bool, err error) {
		got <- ok && err == nil
	})
	assert.False(t, <-got, "empty bank cannot be withdrawn from")
	exec.Close()
}
