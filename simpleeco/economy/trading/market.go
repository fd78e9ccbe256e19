// Package trading executes shop trades against the ledger and the pricing
// engine. Handing items to or taking them from the player is left to the
// caller.
package trading

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/ledger"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/pricing"
)

type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNotTradeable      Reason = "not_tradeable"
	ReasonNotBuyable        Reason = "not_buyable"
	ReasonNotSellable       Reason = "not_sellable"
	ReasonInsufficientFunds Reason = "insufficient_funds"
)

type TradeResult struct {
	OK         bool
	Reason     Reason
	Item       string
	Quantity   int64
	UnitPrice  float64
	Total      decimal.Decimal
	NewBalance decimal.Decimal
}

type Market struct {
	ledger  *ledger.Ledger
	pricing *pricing.Engine
}

func NewMarket(l *ledger.Ledger, p *pricing.Engine) *Market {
	return &Market{ledger: l, pricing: p}
}

// Total is price*qty rounded to cents.
func Total(price float64, qty int64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty)).Round(2)
}

// Buy charges the account for qty items at the current buy price and records
// the purchase.
func (m *Market) Buy(ctx context.Context, id uuid.UUID, item string, qty int64) (TradeResult, error) {
	if qty <= 0 {
		return TradeResult{}, pricing.ErrInvalidQuantity
	}
	itemID := pricing.NormalizeItem(item)
	result := TradeResult{Item: itemID, Quantity: qty}

	cfg, ok := m.pricing.Catalog().Lookup(itemID)
	if !ok {
		result.Reason = ReasonNotTradeable
		return result, nil
	}
	if !cfg.Buyable {
		result.Reason = ReasonNotBuyable
		return result, nil
	}

	price, err := m.pricing.BuyPrice(ctx, itemID)
	if err != nil {
		return result, err
	}
	result.UnitPrice = price
	result.Total = Total(price, qty)

	balance, err := m.ledger.RemoveCash(ctx, id, result.Total)
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		result.Reason = ReasonInsufficientFunds
		result.NewBalance = balance
		return result, nil
	case errors.Is(err, cache.ErrWriteThrough):
		logUnpersisted("buy", id, itemID, err)
	case err != nil:
		return result, err
	}
	result.NewBalance = balance

	if _, err := m.pricing.RecordPurchase(ctx, itemID, qty); err != nil {
		slog.Error("Failed to record purchase",
			slog.String("type", "eco"),
			slog.String("account", id.String()),
			slog.String("item", itemID),
			slog.Int64("quantity", qty),
			slog.Any("error", err))
	}

	result.OK = true
	slog.Debug("Purchase completed",
		slog.String("type", "eco"),
		slog.String("account", id.String()),
		slog.String("item", itemID),
		slog.Int64("quantity", qty),
		slog.String("total", result.Total.String()))
	return result, nil
}

// Sell pays the account for qty items at the current sell price and records
// the sale.
func (m *Market) Sell(ctx context.Context, id uuid.UUID, item string, qty int64) (TradeResult, error) {
	if qty <= 0 {
		return TradeResult{}, pricing.ErrInvalidQuantity
	}
	itemID := pricing.NormalizeItem(item)
	result := TradeResult{Item: itemID, Quantity: qty}

	cfg, ok := m.pricing.Catalog().Lookup(itemID)
	if !ok {
		result.Reason = ReasonNotTradeable
		return result, nil
	}
	if !cfg.Sellable {
		result.Reason = ReasonNotSellable
		return result, nil
	}

	price, err := m.pricing.SellPrice(ctx, itemID)
	if err != nil {
		return result, err
	}
	result.UnitPrice = price
	result.Total = Total(price, qty)

	balance, err := m.ledger.AddCash(ctx, id, result.Total)
	switch {
	case errors.Is(err, cache.ErrWriteThrough):
		logUnpersisted("sell", id, itemID, err)
	case err != nil:
		return result, err
	}
	result.NewBalance = balance

	if _, err := m.pricing.RecordSale(ctx, itemID, qty); err != nil {
		slog.Error("Failed to record sale",
			slog.String("type", "eco"),
			slog.String("account", id.String()),
			slog.String("item", itemID),
			slog.Int64("quantity", qty),
			slog.Any("error", err))
	}

	result.OK = true
	slog.Debug("Sale completed",
		slog.String("type", "eco"),
		slog.String("account", id.String()),
		slog.String("item", itemID),
		slog.Int64("quantity", qty),
		slog.String("total", result.Total.String()))
	return result, nil
}

// The cache already holds the new balance, so the trade stands.
func logUnpersisted(op string, id uuid.UUID, item string, err error) {
	slog.Warn("Trade balance not persisted",
		slog.String("type", "db"),
		slog.String("operation", op),
		slog.String("account", id.String()),
		slog.String("item", item),
		slog.Any("error", err))
}
