package pricing

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

var ErrRunInProgress = errors.New("regression run already in progress")

// Phase describes where an item is in its decay cycle.
type Phase int

const (
	// PhaseFresh items were traded a minute ago or less and are left alone.
	PhaseFresh Phase = iota
	PhaseDecaying
	// PhaseBase items are past the window with zero counters.
	PhaseBase
	// PhaseReset items are past the window and still carry counters.
	PhaseReset
)

// Decay computes the counters an item should have after a regression step.
func Decay(s store.Stats, now time.Time, window time.Duration) (sold, bought int64, phase Phase) {
	elapsed := now.Sub(s.LastTrade)
	switch {
	case elapsed <= config.MinRegressionAge:
		return s.Sold, s.Bought, PhaseFresh
	case elapsed >= window:
		if s.Sold == 0 && s.Bought == 0 {
			return 0, 0, PhaseBase
		}
		return 0, 0, PhaseReset
	}

	factor := 1 - elapsed.Seconds()/window.Seconds()
	return int64(math.Round(float64(s.Sold) * factor)),
		int64(math.Round(float64(s.Bought) * factor)),
		PhaseDecaying
}

type RunReport struct {
	Items     int
	Skipped   int32
	Decayed   int32
	Reset     int32
	Unchanged int32
	Errors    int32
	Recorded  int
	Duration  time.Duration
}

// Scheduler periodically decays the stats of every configured item.
type Scheduler struct {
	engine   *Engine
	history  *History
	interval atomic.Int64
	reset    chan struct{}
	sem      *semaphore.Weighted
	running  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns a scheduler running every interval. history may be nil.
func NewScheduler(engine *Engine, history *History, interval time.Duration) *Scheduler {
	s := &Scheduler{
		engine:  engine,
		history: history,
		reset:   make(chan struct{}, 1),
		sem:     semaphore.NewWeighted(config.MaxConcurrentItems),
	}
	s.interval.Store(int64(interval))
	return s
}

func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval changes the tick period. A running loop picks it up without a
// restart.
func (s *Scheduler) SetInterval(interval time.Duration) {
	if interval <= 0 || s.interval.Swap(int64(interval)) == int64(interval) {
		return
	}
	select {
	case s.reset <- struct{}{}:
	default:
	}
	slog.Info("Price regression interval changed",
		slog.String("type", "sys"),
		slog.String("component", "scheduler"),
		slog.Duration("interval", interval))
}

// Start launches the ticker loop. Calling Start on a running scheduler does
// nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.reset:
				ticker.Reset(s.Interval())
			case <-ticker.C:
				runCtx, cancelRun := context.WithTimeout(ctx, config.RegressionRunTimeout)
				if _, err := s.RunOnce(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("Price regression run failed",
						slog.String("type", "eco"),
						slog.String("component", "scheduler"),
						slog.Any("error", err))
				}
				cancelRun()
			}
		}
	}(s.done)

	slog.Info("Price regression scheduler started",
		slog.String("type", "sys"),
		slog.String("component", "scheduler"),
		slog.Duration("interval", s.Interval()))
}

// Stop cancels the loop and waits for a run in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Info("Price regression scheduler stopped",
		slog.String("type", "sys"),
		slog.String("component", "scheduler"))
}

// RunOnce decays every configured item once and records price snapshots.
func (s *Scheduler) RunOnce(ctx context.Context) (RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunReport{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	catalog := s.engine.Catalog()
	items := catalog.Items()
	window := catalog.Globals().Window()
	report := RunReport{Items: len(items)}

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		if err := s.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer s.sem.Release(1)
			s.decayItem(gctx, item, window, &report)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	if s.history != nil {
		n, err := s.history.Record(ctx, s.snapshots(ctx, items))
		if err != nil {
			slog.Error("Failed to record price history",
				slog.String("type", "db"),
				slog.String("component", "scheduler"),
				slog.Any("error", err))
			atomic.AddInt32(&report.Errors, 1)
		}
		report.Recorded = n
	}

	report.Duration = time.Since(start)
	slog.Info("Price regression completed",
		slog.String("type", "eco"),
		slog.String("component", "scheduler"),
		slog.Int("items", report.Items),
		slog.Int("decayed", int(report.Decayed)),
		slog.Int("reset", int(report.Reset)),
		slog.Int("skipped", int(report.Skipped)),
		slog.Int("errors", int(report.Errors)),
		slog.Int("recorded", report.Recorded),
		slog.Duration("took", report.Duration))
	return report, nil
}

func (s *Scheduler) decayItem(ctx context.Context, item string, window time.Duration, report *RunReport) {
	stats, err := s.engine.Stats(ctx, item)
	if err != nil {
		atomic.AddInt32(&report.Errors, 1)
		slog.Error("Failed to load item stats",
			slog.String("type", "db"),
			slog.String("component", "scheduler"),
			slog.String("item", item),
			slog.Any("error", err))
		return
	}

	sold, bought, phase := Decay(stats, s.engine.stats.Now(), window)
	switch {
	case phase == PhaseFresh:
		atomic.AddInt32(&report.Skipped, 1)
		return
	case sold == stats.Sold && bought == stats.Bought:
		atomic.AddInt32(&report.Unchanged, 1)
		return
	}

	if _, err := s.engine.ApplyDecay(ctx, item, sold, bought); err != nil {
		atomic.AddInt32(&report.Errors, 1)
		slog.Error("Failed to apply price regression",
			slog.String("type", "db"),
			slog.String("component", "scheduler"),
			slog.String("item", item),
			slog.Any("error", err))
		return
	}

	if phase == PhaseReset {
		atomic.AddInt32(&report.Reset, 1)
	} else {
		atomic.AddInt32(&report.Decayed, 1)
	}
	slog.Debug("Item stats decayed",
		slog.String("type", "eco"),
		slog.String("component", "scheduler"),
		slog.String("item", item),
		slog.Int64("sold", sold),
		slog.Int64("bought", bought))
}

func (s *Scheduler) snapshots(ctx context.Context, items []string) []store.PriceSnapshot {
	now := time.Now()
	out := make([]store.PriceSnapshot, 0, len(items))
	for _, item := range items {
		q, err := s.engine.quote(ctx, item)
		if err != nil || !q.found {
			continue
		}
		out = append(out, store.PriceSnapshot{
			Item:       item,
			BuyPrice:   q.buy,
			SellPrice:  q.sell,
			NetSales:   q.stats.NetSales(),
			RecordedAt: now,
		})
	}
	return out
}
