package simpleeco

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/async"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/cache"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/ledger"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/pricing"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/trading"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/services"
)

type App struct {
	Cfg       Config
	Version   string
	Store     store.Store
	Ledger    *ledger.Ledger
	Stats     *cache.StatsCache
	Pricing   *pricing.Engine
	History   *pricing.History
	Scheduler *pricing.Scheduler
	Market    *trading.Market
	Pool      *async.Pool
	Economy   *economy.Economy
	Snapshots *services.SnapshotService
}

// OpenStore connects the backend named by cfg.Store.Driver and makes sure
// its schema exists.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case StoreDriverPostgres:
		start := time.Now()
		db, err := database.New(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err = db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		if err = db.InitializeSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		slog.Info("Database connected",
			slog.String("type", "db"),
			slog.String("database", cfg.DB.Database),
			slog.Duration("took", time.Since(start)))
		return store.NewPostgres(db), nil
	case StoreDriverMongo:
		m, err := store.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err = m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		return m, nil
	case StoreDriverMemory:
		slog.Warn("Using the in-memory store, balances are lost on exit",
			slog.String("type", "sys"),
			slog.String("component", "store"))
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// NewApp wires every component on top of st. Nothing is started or warmed.
func NewApp(cfg Config, st store.Store, version string) (*App, error) {
	catalog, err := cfg.Pricing.Catalog()
	if err != nil {
		return nil, err
	}

	a := &App{Cfg: cfg, Version: version, Store: st}
	a.Ledger = ledger.New(st, ledgerOptions(cfg))
	a.Stats = cache.NewStatsCache(st)
	a.Pricing = pricing.NewEngine(a.Stats, catalog)

	if cfg.Pricing.HistoryEnabled {
		if a.History, err = pricing.NewHistory(st, config.PriceHistoryCacheSize); err != nil {
			return nil, err
		}
	}
	interval := time.Duration(cfg.Pricing.RegressionUpdateInterval) * time.Minute
	a.Scheduler = pricing.NewScheduler(a.Pricing, a.History, interval)
	a.Market = trading.NewMarket(a.Ledger, a.Pricing)
	a.Pool = async.NewPool(config.BackgroundWorkers)
	a.Economy = economy.New(a.Ledger, a.Pricing, a.Market, a.Pool)
	return a, nil
}

// AttachSnapshots enables periodic uploads through uploader.
func (a *App) AttachSnapshots(uploader services.Uploader) {
	interval := time.Duration(a.Cfg.Snapshot.IntervalMinutes) * time.Minute
	a.Snapshots = services.NewSnapshotService(uploader, a.Cfg.Spaces.Bucket, a.Cfg.Snapshot.Prefix, a.Ledger, a.Stats, interval)
}

func ledgerOptions(cfg Config) ledger.Options {
	return ledger.Options{
		StartBalance:       decimal.NewFromFloat(cfg.Currency.StartBalance),
		Currency:           ledger.Currency{Name: cfg.Currency.Name, Symbol: cfg.Currency.Symbol},
		SerializeTransfers: cfg.Ledger.SerializeTransfers,
		NotifyBuffer:       cfg.Ledger.NotifyBuffer,
		DeathPenalty: ledger.DeathPenalty{
			Enabled:    cfg.DeathPenalty.Enabled,
			Percentage: decimal.NewFromFloat(cfg.DeathPenalty.CashLossPercentage),
			Min:        decimal.NewFromFloat(cfg.DeathPenalty.MinLossAmount),
			Max:        decimal.NewFromFloat(cfg.DeathPenalty.MaxLossAmount),
		},
	}
}

// Warm fills the balance and stats caches from the store.
func (a *App) Warm(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.WarmupTimeout)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Ledger.Warm(gctx) })
	g.Go(func() error {
		n, err := a.Stats.Warm(gctx)
		if err != nil {
			return fmt.Errorf("failed to warm item stats: %w", err)
		}
		slog.Info("Item stats loaded",
			slog.String("type", "eco"),
			slog.Int("items", n))
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Caches warmed",
		slog.String("type", "sys"),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (a *App) Start(ctx context.Context) {
	a.Scheduler.Start(ctx)
	if a.Snapshots != nil {
		a.Snapshots.Start(ctx)
	}
}

// Reload swaps in the pricing catalog and regression interval from cfg.
// Stats and balances are kept.
func (a *App) Reload(cfg Config) error {
	catalog, err := cfg.Pricing.Catalog()
	if err != nil {
		return err
	}
	a.Pricing.Reload(catalog)
	a.Scheduler.SetInterval(time.Duration(cfg.Pricing.RegressionUpdateInterval) * time.Minute)
	a.Cfg.Pricing = cfg.Pricing

	slog.Info("Pricing configuration reloaded",
		slog.String("type", "sys"),
		slog.Int("items", catalog.Len()))
	return nil
}

// Close stops background work, drains the pool and closes the store.
func (a *App) Close(ctx context.Context) error {
	a.Scheduler.Stop()
	if a.Snapshots != nil {
		a.Snapshots.Stop()
	}
	a.Pool.Close()
	a.Ledger.Close()
	return a.Store.Close(ctx)
}
