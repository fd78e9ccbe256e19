package async

import (
	"log/slog"
	"sync"
)

// Executor runs callbacks. Adapters supply one that hands work to whatever
// thread may touch their UI.
type Executor interface {
	Execute(task func())
}

type ExecutorFunc func(task func())

func (f ExecutorFunc) Execute(task func()) {
	f(task)
}

// Inline runs the task in the calling goroutine.
var Inline Executor = ExecutorFunc(func(task func()) { task() })

// SerialExecutor runs tasks one at a time on a single goroutine, in
// submission order.
type SerialExecutor struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewSerialExecutor(buffer int) *SerialExecutor {
	e := &SerialExecutor{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *SerialExecutor) loop() {
	defer close(e.done)
	for task := range e.tasks {
		e.run(task)
	}
}

func (e *SerialExecutor) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Executor task panicked",
				slog.String("type", "sys"),
				slog.Any("panic", r))
		}
	}()
	task()
}

// Execute queues task. Tasks submitted after Close are dropped.
func (e *SerialExecutor) Execute(task func()) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		slog.Warn("Task submitted to closed executor", slog.String("type", "sys"))
		return
	}
	e.tasks <- task
}

// Close stops accepting tasks and waits for queued ones to finish.
func (e *SerialExecutor) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		close(e.tasks)
		e.mu.Unlock()
	})
	<-e.done
}
