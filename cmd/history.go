package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ellavondegurechaff/simpleeco/simpleeco"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

var pruneOlderThan time.Duration

var pruneHistoryCMD = &cobra.Command{
	Use:   "prune-history",
	Short: "delete price history older than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := simpleeco.OpenStore(ctx, *cfg)
		if err != nil {
			return err
		}
		defer st.Close(ctx)

		pruner, ok := st.(store.HistoryPruner)
		if !ok {
			return fmt.Errorf("store %s does not support pruning", cfg.Store.Driver)
		}

		before := time.Now().Add(-pruneOlderThan)
		n, err := pruner.PruneHistory(ctx, before)
		if err != nil {
			return err
		}
		slog.Info("Price history pruned",
			slog.String("type", "cmd"),
			slog.Int64("deleted", n),
			slog.Time("before", before))
		return nil
	},
}

func init() {
	pruneHistoryCMD.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "age of the oldest snapshot to keep")
	rootCmd.AddCommand(pruneHistoryCMD)
}
