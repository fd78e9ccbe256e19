package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
)

// TransferCash moves amount from the cash of one account to the cash of
// another. It reports false without an error when the source cannot cover
// the amount.
func (l *Ledger) TransferCash(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal) (bool, error) {
	if from == to {
		return false, ErrSelfTransfer
	}
	return l.move(ctx, "transfer", l.cash, from, l.cash, to, amount)
}

// Deposit moves amount from cash into the bank of the same account.
func (l *Ledger) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	return l.move(ctx, "deposit", l.cash, id, l.bank, id, amount)
}

// Withdraw moves amount from the bank back into cash.
func (l *Ledger) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	return l.move(ctx, "withdraw", l.bank, id, l.cash, id, amount)
}

// move checks the source, debits it and then credits the destination. The
// debit refuses to go below zero, so a transfer that lost a race against
// another debit of the same source fails instead of overdrawing it.
func (l *Ledger) move(ctx context.Context, op string, src *cache.BalanceCache, from uuid.UUID, dst *cache.BalanceCache, to uuid.UUID, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, ErrInvalidAmount
	}

	if l.locks != nil {
		unlock := l.locks.lock(from, to)
		defer unlock()
	}

	log := slog.With(
		slog.String("type", "eco"),
		slog.String("operation", op),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("amount", amount.String()))

	balance, err := src.Get(ctx, from)
	if err != nil {
		log.Error("Failed to read source balance", slog.Any("error", err))
		return false, err
	}
	if balance.LessThan(amount) {
		log.Debug("Insufficient funds", slog.String("balance", balance.String()))
		return false, nil
	}

	var failed error
	if _, err := l.add(ctx, src, from, amount.Neg()); err != nil {
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			log.Debug("Source balance changed before debit")
			return false, nil
		case errors.Is(err, cache.ErrWriteThrough):
			failed = err
		default:
			log.Error("Failed to debit source", slog.Any("error", err))
			return false, err
		}
	}

	if _, err := l.add(ctx, dst, to, amount); err != nil {
		failed = errors.Join(failed, err)
	}

	if failed != nil {
		log.Error("Transfer applied in memory but not persisted", slog.Any("error", failed))
		return false, failed
	}

	log.Debug("Transfer completed")
	return true, nil
}
