package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_CompletedAndFailed(t *testing.T) {
	ctx := context.Background()

	v, err := Completed(42).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Failed[int](boom).Wait(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := newFuture[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMap(t *testing.T) {
	ctx := context.Background()
	doubled := Map(Completed(21), func(v int) (int, error) { return v * 2, nil })
	v, err := doubled.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	called := false
	_, err = Map(Failed[int](boom), func(v int) (string, error) {
		called = true
		return "", nil
	}).Wait(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var running, peak atomic.Int32
	futures := make([]*Future[int], 10)
	for i := range futures {
		i := i
		futures[i] = Go(context.Background(), p, func(context.Context) (int, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return i, nil
		})
	}

	for i, f := range futures {
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	_, err := Go(context.Background(), p, func(context.Context) (int, error) {
		panic("bad")
	}).Wait(context.Background())
	assert.Error(t, err)
}

func TestPool_Closed(t *testing.T) {
	p := NewPool(1)
	p.Close()

	_, err := Go(context.Background(), p, func(context.Context) (int, error) { return 1, nil }).
		Wait(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_CloseWhileSubmitting(t *testing.T) {
	p := NewPool(2)
	ctx := context.Background()

	var wg sync.WaitGroup
	futures := make(chan *Future[int], 200)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				j := j
				futures <- Go(ctx, p, func(context.Context) (int, error) { return j, nil })
			}
		}()
	}
	p.Close()
	wg.Wait()
	close(futures)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	for f := range futures {
		_, err := f.Wait(waitCtx)
		if err != nil {
			assert.ErrorIs(t, err, ErrPoolClosed)
		}
	}
}

func TestSerialExecutor_RunsInOrder(t *testing.T) {
	exec := NewSerialExecutor(16)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		exec.Execute(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	exec.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
	exec.Execute(func() { t.Error("ran after close") })
}

func TestFuture_Then(t *testing.T) {
	exec := NewSerialExecutor(1)
	defer exec.Close()

	got := make(chan int, 1)
	Completed(7).Then(exec, func(v int, err error) {
		if err == nil {
			got <- v
		}
	})

	select {
	case v := <-got:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("callback not delivered")
	}
}
