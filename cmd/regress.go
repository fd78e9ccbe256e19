package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var regressCMD = &cobra.Command{
	Use:   "regress",
	Short: "run one price regression pass over every configured item",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		report, err := app.Scheduler.RunOnce(ctx)
		if err != nil {
			return err
		}

		slog.Info("Regression finished",
			slog.String("type", "cmd"),
			slog.Int("items", report.Items),
			slog.Int("skipped", int(report.Skipped)),
			slog.Int("decayed", int(report.Decayed)),
			slog.Int("reset", int(report.Reset)),
			slog.Int("unchanged", int(report.Unchanged)),
			slog.Int("errors", int(report.Errors)),
			slog.Int("recorded", report.Recorded),
			slog.Duration("took", report.Duration))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regressCMD)
}
