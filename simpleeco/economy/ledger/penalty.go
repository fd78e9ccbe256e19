package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
)

// DeathPenalty takes a share of cash when a player dies. Bank balances are
// never touched.
type DeathPenalty struct {
	Enabled    bool
	Percentage decimal.Decimal
	Min        decimal.Decimal
	Max        decimal.Decimal
}

// Loss returns clamp(cash*Percentage, Min, Max) capped at cash.
func (p DeathPenalty) Loss(cash decimal.Decimal) decimal.Decimal {
	if !p.Enabled || !cash.IsPositive() {
		return decimal.Zero
	}
	loss := cash.Mul(p.Percentage).Round(2)
	if loss.LessThan(p.Min) {
		loss = p.Min
	}
	if p.Max.IsPositive() && loss.GreaterThan(p.Max) {
		loss = p.Max
	}
	return decimal.Min(loss, cash)
}

// ApplyDeathPenalty removes the penalty from the cash of id and returns the
// amount taken.
func (l *Ledger) ApplyDeathPenalty(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if !l.penalty.Enabled {
		return decimal.Zero, nil
	}

	var loss decimal.Decimal
	old, updated, err := l.cash.Update(ctx, id, func(old decimal.Decimal) (decimal.Decimal, error) {
		loss = l.penalty.Loss(old)
		return old.Sub(loss), nil
	})
	if err != nil && !errors.Is(err, cache.ErrWriteThrough) {
		return decimal.Zero, err
	}
	if loss.IsPositive() {
		l.publish(l.cash.Kind(), id, old, updated)
		slog.Info("Death penalty applied",
			slog.String("type", "eco"),
			slog.String("account", id.String()),
			slog.String("loss", l.currency.FormatAmount(loss)))
	}
	return loss, err
}
