// Package async runs blocking economy calls on a bounded background pool and
// delivers their results as futures.
package async

import (
	"context"
	"sync"
)

// Future holds the eventual result of a background call.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func Completed[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.complete(v, nil)
	return f
}

func Failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then runs cb with the result on exec once it is available.
func (f *Future[T]) Then(exec Executor, cb func(T, error)) {
	go func() {
		<-f.done
		exec.Execute(func() { cb(f.value, f.err) })
	}()
}

// Map derives a future whose value is fn applied to the result of f. Errors
// pass through without calling fn.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := newFuture[U]()
	go func() {
		<-f.done
		if f.err != nil {
			var zero U
			out.complete(zero, f.err)
			return
		}
		out.complete(fn(f.value))
	}()
	return out
}
