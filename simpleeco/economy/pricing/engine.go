// Package pricing computes supply and demand driven item prices that decay
// back toward the base price while an item is not traded.
package pricing

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

type Engine struct {
	stats   *cache.StatsCache
	catalog atomic.Pointer[Catalog]
}

func NewEngine(stats *cache.StatsCache, catalog *Catalog) *Engine {
	e := &Engine{stats: stats}
	e.catalog.Store(catalog)
	return e
}

// Reload swaps the catalog. Prices computed afterwards use the new values.
func (e *Engine) Reload(catalog *Catalog) {
	e.catalog.Store(catalog)
	slog.Info("Price catalog reloaded",
		slog.String("type", "eco"),
		slog.Int("items", catalog.Len()))
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog.Load()
}

func (e *Engine) IsTradeable(item string) bool {
	_, ok := e.Catalog().Lookup(item)
	return ok
}

func (e *Engine) ResolveItem(query string) (string, bool) {
	return e.Catalog().Resolve(query)
}

// RegressionFactor is 1 right after a trade and falls linearly to 0 once
// window has passed.
func RegressionFactor(lastTrade, now time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	elapsed := now.Sub(lastTrade)
	if elapsed >= window {
		return 0
	}
	return clamp(1-elapsed.Seconds()/window.Seconds(), 0, 1)
}

// BuyPriceFor applies the pricing formula to a set of stats.
func BuyPriceFor(p ItemPrice, g Globals, sold, bought int64, regression float64) float64 {
	netSales := float64(sold - bought)
	ref := float64(p.EffectiveReferenceAmount(g))
	if ref <= 0 {
		ref = 1
	}
	dynamic := 1 + p.EffectivePriceFactor(g)*netSales*regression/ref
	return clamp(p.BasePrice*dynamic, p.MinPrice, p.MaxPrice)
}

func (g Globals) Window() time.Duration {
	return time.Duration(g.RegressionTimeMinutes) * time.Minute
}

func (g Globals) SellPrice(buy float64) float64 {
	return buy * g.SellRatio
}

func (e *Engine) BuyPrice(ctx context.Context, item string) (float64, error) {
	q, err := e.quote(ctx, item)
	return q.buy, err
}

func (e *Engine) SellPrice(ctx context.Context, item string) (float64, error) {
	q, err := e.quote(ctx, item)
	return q.sell, err
}

type quote struct {
	item       string
	price      ItemPrice
	globals    Globals
	stats      store.Stats
	regression float64
	buy        float64
	sell       float64
	found      bool
}

func (e *Engine) quote(ctx context.Context, item string) (quote, error) {
	catalog := e.Catalog()
	id := NormalizeItem(item)
	p, ok := catalog.Lookup(id)
	if !ok {
		slog.Warn("No price configured for item",
			slog.String("type", "eco"),
			slog.String("item", id))
		return quote{item: id}, nil
	}

	s, err := e.stats.Get(ctx, id)
	if err != nil {
		return quote{item: id}, err
	}

	g := catalog.Globals()
	reg := RegressionFactor(s.LastTrade, e.stats.Now(), g.Window())
	buy := BuyPriceFor(p, g, s.Sold, s.Bought, reg)
	return quote{
		item:       id,
		price:      p,
		globals:    g,
		stats:      s,
		regression: reg,
		buy:        buy,
		sell:       g.SellPrice(buy),
		found:      true,
	}, nil
}

// PriceInfo gathers everything a price display needs. Unknown items return
// the zero value.
func (e *Engine) PriceInfo(ctx context.Context, item string) (PriceInfo, error) {
	q, err := e.quote(ctx, item)
	if err != nil || !q.found {
		return PriceInfo{Item: q.item}, err
	}
	return PriceInfo{
		Item:                     q.item,
		BuyPrice:                 q.buy,
		SellPrice:                q.sell,
		BasePrice:                q.price.BasePrice,
		MinPrice:                 q.price.MinPrice,
		MaxPrice:                 q.price.MaxPrice,
		Sold:                     q.stats.Sold,
		Bought:                   q.stats.Bought,
		LastTrade:                q.stats.LastTrade,
		Volatility:               math.Min(1, math.Abs(q.buy-q.price.BasePrice)/q.price.BasePrice),
		EffectivePriceFactor:     q.price.EffectivePriceFactor(q.globals),
		EffectiveReferenceAmount: q.price.EffectiveReferenceAmount(q.globals),
		Regression:               q.regression,
		Buyable:                  q.price.Buyable,
		Sellable:                 q.price.Sellable,
	}, nil
}

// SimulateTrade projects the buy price after a trade of qty items without
// recording it. Positive qty is a sale to the shop, negative a purchase.
func (e *Engine) SimulateTrade(ctx context.Context, item string, qty int64) (float64, error) {
	q, err := e.quote(ctx, item)
	if err != nil || !q.found {
		return 0, err
	}
	sold, bought := q.stats.Sold, q.stats.Bought
	if qty > 0 {
		sold += qty
	} else {
		bought -= qty
	}
	return BuyPriceFor(q.price, q.globals, sold, bought, 1), nil
}

// RecordPurchase counts qty items bought from the shop.
func (e *Engine) RecordPurchase(ctx context.Context, item string, qty int64) (store.Stats, error) {
	if qty <= 0 {
		return store.Stats{}, ErrInvalidQuantity
	}
	return e.stats.Add(ctx, NormalizeItem(item), store.StatsDelta{Bought: qty, TradedAt: e.stats.Now()})
}

// RecordSale counts qty items sold to the shop.
func (e *Engine) RecordSale(ctx context.Context, item string, qty int64) (store.Stats, error) {
	if qty <= 0 {
		return store.Stats{}, ErrInvalidQuantity
	}
	return e.stats.Add(ctx, NormalizeItem(item), store.StatsDelta{Sold: qty, TradedAt: e.stats.Now()})
}

func (e *Engine) Stats(ctx context.Context, item string) (store.Stats, error) {
	return e.stats.Get(ctx, NormalizeItem(item))
}

// ApplyDecay writes new counters for item without touching its last trade
// time. Only the difference to the current counters is written.
func (e *Engine) ApplyDecay(ctx context.Context, item string, sold, bought int64) (store.Stats, error) {
	id := NormalizeItem(item)
	current, err := e.stats.Get(ctx, id)
	if err != nil {
		return store.Stats{}, err
	}
	delta := store.StatsDelta{Sold: sold - current.Sold, Bought: bought - current.Bought}
	if delta.IsZero() {
		return current, nil
	}
	return e.stats.Add(ctx, id, delta)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
