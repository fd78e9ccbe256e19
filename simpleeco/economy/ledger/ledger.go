// Package ledger keeps the cash and bank balance of every account and moves
// money between them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

type Options struct {
	StartBalance decimal.Decimal
	Currency     Currency
	// SerializeTransfers holds per-account locks for the whole of a transfer.
	SerializeTransfers bool
	NotifyBuffer       int
	DeathPenalty       DeathPenalty
}

type Ledger struct {
	cash     *cache.BalanceCache
	bank     *cache.BalanceCache
	notifier *Notifier
	currency Currency
	penalty  DeathPenalty
	locks    *accountLocks
}

func New(st store.Store, opts Options) *Ledger {
	l := &Ledger{
		cash:     cache.NewBalanceCache(store.Cash, st, opts.StartBalance),
		bank:     cache.NewBalanceCache(store.Bank, st, decimal.Zero),
		notifier: NewNotifier(opts.NotifyBuffer),
		currency: opts.Currency,
		penalty:  opts.DeathPenalty,
	}
	if opts.SerializeTransfers {
		l.locks = newAccountLocks()
	}
	return l
}

// Warm loads both balance tables concurrently.
func (l *Ledger) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range []*cache.BalanceCache{l.cash, l.bank} {
		c := c
		g.Go(func() error {
			n, err := c.Warm(ctx)
			if err != nil {
				return fmt.Errorf("failed to warm %s cache: %w", c.Kind(), err)
			}
			slog.Info("Balance cache warmed",
				slog.String("type", "eco"),
				slog.String("kind", c.Kind().String()),
				slog.Int("accounts", n))
			return nil
		})
	}
	return g.Wait()
}

func (l *Ledger) Cash(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	return l.cash.Get(ctx, id)
}

func (l *Ledger) Bank(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	return l.bank.Get(ctx, id)
}

func (l *Ledger) SetCash(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return l.set(ctx, l.cash, id, amount)
}

func (l *Ledger) SetBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return l.set(ctx, l.bank, id, amount)
}

// AddCash adds delta (which may be negative) and returns the new balance.
func (l *Ledger) AddCash(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	return l.add(ctx, l.cash, id, delta)
}

func (l *Ledger) AddBank(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	return l.add(ctx, l.bank, id, delta)
}

func (l *Ledger) RemoveCash(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return l.add(ctx, l.cash, id, amount.Neg())
}

func (l *Ledger) RemoveBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return l.add(ctx, l.bank, id, amount.Neg())
}

func (l *Ledger) HasCash(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	bal, err := l.cash.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return bal.GreaterThanOrEqual(amount), nil
}

func (l *Ledger) HasBank(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	bal, err := l.bank.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return bal.GreaterThanOrEqual(amount), nil
}

// Total returns cash plus bank.
func (l *Ledger) Total(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	cash, err := l.cash.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	bank, err := l.bank.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return cash.Add(bank), nil
}

func (l *Ledger) Currency() Currency {
	return l.currency
}

func (l *Ledger) FormatAmount(amount decimal.Decimal) string {
	return l.currency.FormatAmount(amount)
}

// Subscribe registers for balance change notifications.
func (l *Ledger) Subscribe() (<-chan BalanceChange, func()) {
	return l.notifier.Subscribe()
}

func (l *Ledger) CashSnapshot() map[uuid.UUID]decimal.Decimal {
	return l.cash.Snapshot()
}

func (l *Ledger) BankSnapshot() map[uuid.UUID]decimal.Decimal {
	return l.bank.Snapshot()
}

func (l *Ledger) Close() {
	l.notifier.Close()
}

func (l *Ledger) set(ctx context.Context, c *cache.BalanceCache, id uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	old, err := c.Set(ctx, id, amount)
	if err != nil && !errors.Is(err, cache.ErrWriteThrough) {
		return err
	}
	l.publish(c.Kind(), id, old, amount)
	return err
}

func (l *Ledger) add(ctx context.Context, c *cache.BalanceCache, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	old, updated, err := c.Update(ctx, id, func(old decimal.Decimal) (decimal.Decimal, error) {
		next := old.Add(delta)
		if next.IsNegative() {
			return old, ErrInsufficientFunds
		}
		return next, nil
	})
	if err != nil && !errors.Is(err, cache.ErrWriteThrough) {
		if errors.Is(err, ErrInsufficientFunds) {
			return old, ErrInsufficientFunds
		}
		return old, err
	}
	if !delta.IsZero() {
		l.publish(c.Kind(), id, old, updated)
	}
	return updated, err
}

func (l *Ledger) publish(kind store.Kind, id uuid.UUID, old, updated decimal.Decimal) {
	l.notifier.Publish(BalanceChange{
		Account: id,
		Kind:    kind,
		Old:     old,
		New:     updated,
		At:      time.Now(),
	})
}
