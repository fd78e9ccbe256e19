package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrPoolClosed = errors.New("pool closed")

// Pool bounds the number of background calls running at once.
type Pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders wg.Add in Go against wg.Wait in Close.
	mu     sync.Mutex
	closed bool
}

func NewPool(size int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go runs fn on p and returns its future. fn receives ctx; it is not cancelled
// when the pool closes, but calls still waiting for a slot are.
func Go[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		var zero T
		f.complete(zero, ErrPoolClosed)
		return f
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		var zero T

		if err := acquire(ctx, p); err != nil {
			f.complete(zero, err)
			return
		}
		defer p.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				slog.Error("Background task panicked",
					slog.String("type", "sys"),
					slog.Any("panic", r))
				f.complete(zero, fmt.Errorf("task panicked: %v", r))
			}
		}()
		f.complete(fn(ctx))
	}()
	return f
}

func acquire(ctx context.Context, p *Pool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		if p.ctx.Err() != nil {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Close rejects new work, cancels queued calls and waits for running ones.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
}
