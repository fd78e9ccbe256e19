// Package economy is the entry point adapters call. Every blocking operation
// runs on a bounded background pool and returns a future; callers attach
// callbacks with the executor that suits them.
package economy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/async"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/ledger"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/pricing"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/trading"
)

type Economy struct {
	ledger  *ledger.Ledger
	pricing *pricing.Engine
	market  *trading.Market
	pool    *async.Pool
}

func New(l *ledger.Ledger, p *pricing.Engine, m *trading.Market, pool *async.Pool) *Economy {
	return &Economy{ledger: l, pricing: p, market: m, pool: pool}
}

func (e *Economy) Ledger() *ledger.Ledger {
	return e.ledger
}

func (e *Economy) Pricing() *pricing.Engine {
	return e.pricing
}

func (e *Economy) Market() *trading.Market {
	return e.market
}

func (e *Economy) GetCash(ctx context.Context, id uuid.UUID) *async.Future[decimal.Decimal] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (decimal.Decimal, error) {
		return e.ledger.Cash(ctx, id)
	})
}

func (e *Economy) GetBank(ctx context.Context, id uuid.UUID) *async.Future[decimal.Decimal] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (decimal.Decimal, error) {
		return e.ledger.Bank(ctx, id)
	})
}

func (e *Economy) SetCash(ctx context.Context, id uuid.UUID, amount decimal.Decimal) *async.Future[struct{}] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.ledger.SetCash(ctx, id, amount)
	})
}

func (e *Economy) SetBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) *async.Future[struct{}] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.ledger.SetBank(ctx, id, amount)
	})
}

func (e *Economy) AddCash(ctx context.Context, id uuid.UUID, delta decimal.Decimal) *async.Future[decimal.Decimal] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (decimal.Decimal, error) {
		return e.ledger.AddCash(ctx, id, delta)
	})
}

func (e *Economy) AddBank(ctx context.Context, id uuid.UUID, delta decimal.Decimal) *async.Future[decimal.Decimal] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (decimal.Decimal, error) {
		return e.ledger.AddBank(ctx, id, delta)
	})
}

func (e *Economy) HasCash(ctx context.Context, id uuid.UUID, amount decimal.Decimal) *async.Future[bool] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (bool, error) {
		return e.ledger.HasCash(ctx, id, amount)
	})
}

func (e *Economy) HasBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) *async.Future[bool] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (bool, error) {
		return e.ledger.HasBank(ctx, id, amount)
	})
}

func (e *Economy) TransferCashToCash(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal) *async.Future[bool] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (bool, error) {
		return e.ledger.TransferCash(ctx, from, to, amount)
	})
}

func (e *Economy) DepositToBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) *async.Future[bool] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (bool, error) {
		return e.ledger.Deposit(ctx, id, amount)
	})
}

func (e *Economy) WithdrawFromBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) *async.Future[bool] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (bool, error) {
		return e.ledger.Withdraw(ctx, id, amount)
	})
}

func (e *Economy) ApplyDeathPenalty(ctx context.Context, id uuid.UUID) *async.Future[decimal.Decimal] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (decimal.Decimal, error) {
		return e.ledger.ApplyDeathPenalty(ctx, id)
	})
}

func (e *Economy) GetBuyPrice(ctx context.Context, item string) *async.Future[float64] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (float64, error) {
		return e.pricing.BuyPrice(ctx, item)
	})
}

func (e *Economy) GetSellPrice(ctx context.Context, item string) *async.Future[float64] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (float64, error) {
		return e.pricing.SellPrice(ctx, item)
	})
}

func (e *Economy) GetPriceInfo(ctx context.Context, item string) *async.Future[pricing.PriceInfo] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (pricing.PriceInfo, error) {
		return e.pricing.PriceInfo(ctx, item)
	})
}

func (e *Economy) RecordPurchase(ctx context.Context, item string, qty int64) *async.Future[struct{}] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (struct{}, error) {
		_, err := e.pricing.RecordPurchase(ctx, item, qty)
		return struct{}{}, err
	})
}

func (e *Economy) RecordSale(ctx context.Context, item string, qty int64) *async.Future[struct{}] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (struct{}, error) {
		_, err := e.pricing.RecordSale(ctx, item, qty)
		return struct{}{}, err
	})
}

func (e *Economy) SimulateTrade(ctx context.Context, item string, qty int64) *async.Future[float64] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (float64, error) {
		return e.pricing.SimulateTrade(ctx, item, qty)
	})
}

// IsTradeable only consults the catalog and answers immediately.
func (e *Economy) IsTradeable(item string) bool {
	return e.pricing.IsTradeable(item)
}

func (e *Economy) Buy(ctx context.Context, id uuid.UUID, item string, qty int64) *async.Future[trading.TradeResult] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (trading.TradeResult, error) {
		return e.market.Buy(ctx, id, item, qty)
	})
}

func (e *Economy) Sell(ctx context.Context, id uuid.UUID, item string, qty int64) *async.Future[trading.TradeResult] {
	return async.Go(ctx, e.pool, func(ctx context.Context) (trading.TradeResult, error) {
		return e.market.Sell(ctx, id, item, qty)
	})
}
