package store

import (
	"context"
	"fmt"
	"log/slog"
)

type CopyReport struct {
	Cash  int
	Bank  int
	Items int
}

// Copy loads every balance and item stats record from src and bulk writes
// them into dst. Price history is not copied.
func Copy(ctx context.Context, src Store, dst Importer) (CopyReport, error) {
	var report CopyReport

	for _, kind := range []Kind{Cash, Bank} {
		balances, err := src.LoadBalances(ctx, kind)
		if err != nil {
			return report, fmt.Errorf("failed to read source %s balances: %w", kind, err)
		}
		if err := dst.ImportBalances(ctx, kind, balances); err != nil {
			return report, fmt.Errorf("failed to write %s balances: %w", kind, err)
		}
		if kind == Cash {
			report.Cash = len(balances)
		} else {
			report.Bank = len(balances)
		}
		slog.Info("Copied balances",
			slog.String("type", "db"),
			slog.String("kind", kind.String()),
			slog.Int("count", len(balances)))
	}

	stats, err := src.LoadItemStats(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read source item stats: %w", err)
	}
	if err := dst.ImportItemStats(ctx, stats); err != nil {
		return report, fmt.Errorf("failed to write item stats: %w", err)
	}
	report.Items = len(stats)

	slog.Info("Copied item stats",
		slog.String("type", "db"),
		slog.Int("count", len(stats)))
	return report, nil
}
