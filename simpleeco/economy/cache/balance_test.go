package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store/mock"
)

var start = decimal.NewFromInt(1000)

func TestBalanceCache_BootstrapsMissingAccount(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := NewBalanceCache(store.Cash, st, start)
	id := uuid.New()

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Equal(start))

	persisted, found, _ := st.Balance(ctx, store.Cash, id)
	assert.True(t, found)
	assert.True(t, persisted.Equal(start))
}

func TestBalanceCache_Warm(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	id := uuid.New()
	require.NoError(t, st.SetBalance(ctx, store.Bank, id, decimal.NewFromInt(7)))

	c := NewBalanceCache(store.Bank, st, decimal.Zero)
	n, err := c.Warm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok := c.Peek(id)
	assert.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(7)))
}

func TestBalanceCache_ConcurrentMissesShareOneRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mock.NewMockStore(ctrl)
	id := uuid.New()

	release := make(chan struct{})
	st.EXPECT().Balance(gomock.Any(), store.Cash, id).DoAndReturn(
		func(context.Context, store.Kind, uuid.UUID) (decimal.Decimal, bool, error) {
			<-release
			return decimal.NewFromInt(42), true, nil
		}).Times(1)

	c := NewBalanceCache(store.Cash, st, start)

	var wg sync.WaitGroup
	results := make([]decimal.Decimal, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Get(context.Background(), id)
		}(i)
	}
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.Equal(decimal.NewFromInt(42)))
	}
}

func TestBalanceCache_ReadErrorNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mock.NewMockStore(ctrl)
	id := uuid.New()
	boom := errors.New("db down")

	gomock.InOrder(
		st.EXPECT().Balance(gomock.Any(), store.Cash, id).Return(decimal.Zero, false, boom),
		st.EXPECT().Balance(gomock.Any(), store.Cash, id).Return(decimal.NewFromInt(5), true, nil),
	)

	c := NewBalanceCache(store.Cash, st, start)
	_, err := c.Get(context.Background(), id)
	assert.ErrorIs(t, err, boom)

	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestBalanceCache_WriteFailureKeepsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mock.NewMockStore(ctrl)
	id := uuid.New()
	boom := errors.New("write failed")

	st.EXPECT().Balance(gomock.Any(), store.Cash, id).Return(decimal.NewFromInt(10), true, nil)
	st.EXPECT().SetBalance(gomock.Any(), store.Cash, id, gomock.Any()).Return(boom)

	c := NewBalanceCache(store.Cash, st, start)
	old, err := c.Set(context.Background(), id, decimal.NewFromInt(99))
	assert.ErrorIs(t, err, boom)
	assert.True(t, old.Equal(decimal.NewFromInt(10)))

	got, _ := c.Peek(id)
	assert.True(t, got.Equal(decimal.NewFromInt(99)))
}

func TestBalanceCache_UpdateRejected(t *testing.T) {
	ctx := context.Background()
	c := NewBalanceCache(store.Cash, store.NewMemory(), decimal.NewFromInt(10))
	id := uuid.New()
	tooMuch := errors.New("too much")

	_, _, err := c.Update(ctx, id, func(old decimal.Decimal) (decimal.Decimal, error) {
		return decimal.Zero, tooMuch
	})
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, tooMuch)

	got, _ := c.Get(ctx, id)
	assert.True(t, got.Equal(decimal.NewFromInt(10)))
}

func TestBalanceCache_ConcurrentUpdatesAreAtomic(t *testing.T) {
	ctx := context.Background()
	c := NewBalanceCache(store.Cash, store.NewMemory(), decimal.Zero)
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Update(ctx, id, func(old decimal.Decimal) (decimal.Decimal, error) {
				return old.Add(decimal.NewFromInt(1)), nil
			})
		}()
	}
	wg.Wait()

	got, _ := c.Get(ctx, id)
	assert.True(t, got.Equal(decimal.NewFromInt(100)), "got %s", got)
}
