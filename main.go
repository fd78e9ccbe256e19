package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ellavondegurechaff/simpleeco/simpleeco"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/logger"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	runRegression := flag.Bool("run-regression", false, "Whether to run one regression pass on startup")
	flag.Parse()

	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))

	cfg, err := simpleeco.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.SetDefault(slog.New(logger.NewHandlerWithWriter(os.Stdout, cfg.Log.SlogLevel(), cfg.Log.Color)))

	slog.Info("Starting SimpleEco",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("store", cfg.Store.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := simpleeco.OpenStore(ctx, *cfg)
	if err != nil {
		slog.Error("Failed to open store", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(-1)
	}

	app, err := simpleeco.NewApp(*cfg, st, version)
	if err != nil {
		slog.Error("Failed to initialize economy", slog.Any("error", err))
		_ = st.Close(ctx)
		os.Exit(-1)
	}

	if cfg.Snapshot.Enabled {
		client, err := services.NewSpacesClient(ctx, cfg.Spaces.Key, cfg.Spaces.Secret, cfg.Spaces.Region)
		if err != nil {
			slog.Error("Failed to initialize snapshot storage", slog.Any("error", err))
			os.Exit(-1)
		}
		app.AttachSnapshots(client)
	}

	if err = app.Warm(ctx); err != nil {
		slog.Error("Failed to warm caches", slog.Any("error", err))
		_ = app.Close(ctx)
		os.Exit(-1)
	}

	if *runRegression {
		report, err := app.Scheduler.RunOnce(ctx)
		if err != nil {
			slog.Error("Startup regression failed", slog.String("type", "eco"), slog.Any("error", err))
		} else {
			slog.Info("Startup regression finished",
				slog.String("type", "eco"),
				slog.Int("items", int(report.Items)),
				slog.Int("decayed", int(report.Decayed)),
				slog.Int("reset", int(report.Reset)))
		}
	}

	changes, unsubscribe := app.Ledger.Subscribe()
	go func() {
		for c := range changes {
			slog.Debug("Balance changed",
				slog.String("type", "eco"),
				slog.String("account", c.Account.String()),
				slog.String("kind", c.Kind.String()),
				slog.String("delta", app.Ledger.FormatAmount(c.Delta())))
		}
	}()

	app.Start(ctx)
	slog.Info("SimpleEco is running. Press CTRL-C to exit.", slog.String("type", "sys"))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range s {
		if sig != syscall.SIGHUP {
			break
		}
		next, err := simpleeco.LoadConfig(*path)
		if err != nil {
			slog.Error("Failed to reload configuration", slog.Any("error", err))
			continue
		}
		if err = app.Reload(*next); err != nil {
			slog.Error("Failed to apply configuration", slog.Any("error", err))
		}
	}

	slog.Info("Shutting down", slog.String("type", "sys"))
	unsubscribe()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancelShutdown()
	cancel()
	if err = app.Close(shutdownCtx); err != nil {
		slog.Error("Failed to close store", slog.String("type", "db"), slog.Any("error", err))
	}
}
