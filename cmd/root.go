package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ellavondegurechaff/simpleeco/simpleeco"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ecoctl",
	Short:         "administrative tasks for a SimpleEco deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", slog.String("type", "cmd"), slog.Any("error", err))
		os.Exit(1)
	}
}

func loadConfig() (*simpleeco.Config, error) {
	cfg, err := simpleeco.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.SlogLevel())))
	return cfg, nil
}

// openApp opens the configured store and warms an App on top of it.
func openApp(ctx context.Context) (*simpleeco.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := simpleeco.OpenStore(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	app, err := simpleeco.NewApp(*cfg, st, "ecoctl")
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	if err = app.Warm(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	return app, nil
}
