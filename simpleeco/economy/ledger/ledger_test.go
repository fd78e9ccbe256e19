package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store/mock"
)

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func newTestLedger(t *testing.T, opts Options) (*Ledger, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	if opts.StartBalance.IsZero() {
		opts.StartBalance = d(1000)
	}
	if opts.Currency.Name == "" {
		opts.Currency = Currency{Name: "Gold", Symbol: "G"}
	}
	l := New(st, opts)
	t.Cleanup(l.Close)
	return l, st
}

func TestLedger_NewAccount(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{})
	p1 := uuid.New()

	cash, err := l.Cash(ctx, p1)
	require.NoError(t, err)
	assert.True(t, cash.Equal(d(1000)), "cash = %s", cash)

	bank, err := l.Bank(ctx, p1)
	require.NoError(t, err)
	assert.True(t, bank.IsZero())
}

func TestLedger_SetRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, st := newTestLedger(t, Options{})
	a := uuid.New()

	require.NoError(t, l.SetCash(ctx, a, d(123.45)))
	got, err := l.Cash(ctx, a)
	require.NoError(t, err)
	assert.True(t, got.Equal(d(123.45)))

	persisted, _, _ := st.Balance(ctx, store.Cash, a)
	assert.True(t, persisted.Equal(d(123.45)))

	assert.ErrorIs(t, l.SetBank(ctx, a, d(-1)), ErrInvalidAmount)
}

func TestLedger_AddNeverNegative(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{StartBalance: d(10)})
	a := uuid.New()

	got, err := l.AddCash(ctx, a, d(-4))
	require.NoError(t, err)
	assert.True(t, got.Equal(d(6)))

	_, err = l.AddCash(ctx, a, d(-7))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	cash, _ := l.Cash(ctx, a)
	assert.True(t, cash.Equal(d(6)))

	_, err = l.RemoveBank(ctx, a, d(1))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = l.RemoveCash(ctx, a, d(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedger_HasAndTotal(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{StartBalance: d(50)})
	a := uuid.New()
	_, err := l.AddBank(ctx, a, d(25))
	require.NoError(t, err)

	ok, _ := l.HasCash(ctx, a, d(50))
	assert.True(t, ok)
	ok, _ = l.HasCash(ctx, a, d(50.01))
	assert.False(t, ok)
	ok, _ = l.HasBank(ctx, a, d(25))
	assert.True(t, ok)

	total, _ := l.Total(ctx, a)
	assert.True(t, total.Equal(d(75)))
}

func TestLedger_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("conserves money", func(t *testing.T) {
		l, _ := newTestLedger(t, Options{})
		a := uuid.New()

		ok, err := l.Deposit(ctx, a, d(300))
		require.NoError(t, err)
		assert.True(t, ok)

		cash, _ := l.Cash(ctx, a)
		bank, _ := l.Bank(ctx, a)
		assert.True(t, cash.Equal(d(700)))
		assert.True(t, bank.Equal(d(300)))
	})

	t.Run("insufficient funds changes nothing", func(t *testing.T) {
		l, _ := newTestLedger(t, Options{StartBalance: d(5)})
		a := uuid.New()

		ok, err := l.Deposit(ctx, a, d(10))
		require.NoError(t, err)
		assert.False(t, ok)

		cash, _ := l.Cash(ctx, a)
		bank, _ := l.Bank(ctx, a)
		assert.True(t, cash.Equal(d(5)))
		assert.True(t, bank.IsZero())
	})

	t.Run("invalid amount", func(t *testing.T) {
		l, _ := newTestLedger(t, Options{})
		_, err := l.Deposit(ctx, uuid.New(), decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = l.Withdraw(ctx, uuid.New(), d(-3))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestLedger_Withdraw(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{})
	a := uuid.New()
	require.NoError(t, l.SetBank(ctx, a, d(40)))

	ok, err := l.Withdraw(ctx, a, d(40))
	require.NoError(t, err)
	assert.True(t, ok)

	cash, _ := l.Cash(ctx, a)
	bank, _ := l.Bank(ctx, a)
	assert.True(t, cash.Equal(d(1040)))
	assert.True(t, bank.IsZero())

	ok, _ = l.Withdraw(ctx, a, d(1))
	assert.False(t, ok)
}

func TestLedger_TransferCash(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{})
	a, b := uuid.New(), uuid.New()

	ok, err := l.TransferCash(ctx, a, b, d(250.5))
	require.NoError(t, err)
	assert.True(t, ok)

	ca, _ := l.Cash(ctx, a)
	cb, _ := l.Cash(ctx, b)
	assert.True(t, ca.Equal(d(749.5)))
	assert.True(t, cb.Equal(d(1250.5)))

	_, err = l.TransferCash(ctx, a, a, d(1))
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestLedger_ConcurrentDepositsNeverOverdraw(t *testing.T) {
	for _, strict := range []bool{false, true} {
		ctx := context.Background()
		l, _ := newTestLedger(t, Options{StartBalance: d(100), SerializeTransfers: strict})
		a := uuid.New()
		_, err := l.Cash(ctx, a)
		require.NoError(t, err)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _ := l.Deposit(ctx, a, d(100)); ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load(), "strict=%v", strict)
		cash, _ := l.Cash(ctx, a)
		bank, _ := l.Bank(ctx, a)
		assert.True(t, cash.IsZero(), "strict=%v cash=%s", strict, cash)
		assert.True(t, bank.Equal(d(100)), "strict=%v bank=%s", strict, bank)
	}
}

func TestLedger_TransferStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mock.NewMockStore(ctrl)
	a, b := uuid.New(), uuid.New()
	boom := errors.New("disk full")

	st.EXPECT().Balance(gomock.Any(), store.Cash, a).Return(d(100), true, nil)
	st.EXPECT().Balance(gomock.Any(), store.Cash, b).Return(d(0), true, nil)
	st.EXPECT().SetBalance(gomock.Any(), store.Cash, a, gomock.Any()).Return(nil)
	st.EXPECT().SetBalance(gomock.Any(), store.Cash, b, gomock.Any()).Return(boom)

	l := New(st, Options{StartBalance: d(1000)})
	defer l.Close()

	ok, err := l.TransferCash(context.Background(), a, b, d(30))
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	// memory stays authoritative
	cb, _ := l.Cash(context.Background(), b)
	assert.True(t, cb.Equal(d(30)))
}

func TestLedger_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{NotifyBuffer: 8})
	changes, unsubscribe := l.Subscribe()
	defer unsubscribe()
	a := uuid.New()

	_, err := l.AddCash(ctx, a, d(5))
	require.NoError(t, err)

	change := <-changes
	assert.Equal(t, a, change.Account)
	assert.Equal(t, store.Cash, change.Kind)
	assert.True(t, change.Old.Equal(d(1000)))
	assert.True(t, change.New.Equal(d(1005)))
	assert.True(t, change.Delta().Equal(d(5)))
}

func TestNotifier_DropsWhenFull(t *testing.T) {
	n := NewNotifier(1)
	ch, unsubscribe := n.Subscribe()

	n.Publish(BalanceChange{New: d(1)})
	n.Publish(BalanceChange{New: d(2)})

	got := <-ch
	assert.True(t, got.New.Equal(d(1)))
	select {
	case extra := <-ch:
		t.Fatalf("unexpected change %v", extra)
	default:
	}

	unsubscribe()
	unsubscribe()
	n.Close()
}

func TestCurrency_FormatAmount(t *testing.T) {
	c := Currency{Name: "Gold", Symbol: "G"}
	assert.Equal(t, "1,234.50 Gold", c.FormatAmount(d(1234.5)))
	assert.Equal(t, "0.00 Gold", c.FormatAmount(decimal.Zero))
	assert.Equal(t, "12.35G", c.FormatAmountWithSymbol(d(12.345)))
}
