package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database/models"
)

type ItemStatsRepository interface {
	GetAll(ctx context.Context) ([]*models.ItemStats, error)
	Get(ctx context.Context, itemID string) (*models.ItemStats, error)
	// AddDelta increments the counters of itemID, creating the row if needed.
	// A zero tradedAt leaves last_trade_time untouched on existing rows.
	AddDelta(ctx context.Context, itemID string, sold, bought int64, tradedAt time.Time) error
	UpsertMany(ctx context.Context, stats []*models.ItemStats) error
}

type itemStatsRepository struct {
	*BaseRepository
}

func NewItemStatsRepository(db *bun.DB) ItemStatsRepository {
	return &itemStatsRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *itemStatsRepository) GetAll(ctx context.Context) ([]*models.ItemStats, error) {
	ctx, cancel := r.WithCustomTimeout(ctx, config.WarmupTimeout)
	defer cancel()

	var stats []*models.ItemStats
	if err := r.db.NewSelect().Model(&stats).Scan(ctx); err != nil {
		return nil, r.HandleError("get_all", "item_stats", err)
	}
	return stats, nil
}

func (r *itemStatsRepository) Get(ctx context.Context, itemID string) (*models.ItemStats, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	stats := new(models.ItemStats)
	err := r.db.NewSelect().
		Model(stats).
		Where("item_id = ?", itemID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "item_stats", itemID, err)
	}
	return stats, nil
}

func (r *itemStatsRepository) AddDelta(ctx context.Context, itemID string, sold, bought int64, tradedAt time.Time) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	keepLastTrade := tradedAt.IsZero()
	if keepLastTrade {
		tradedAt = time.Now()
	}

	row := &models.ItemStats{
		ItemID:        itemID,
		Sold:          max(sold, 0),
		Bought:        max(bought, 0),
		LastTradeTime: tradedAt.Unix(),
		UpdatedAt:     time.Now(),
	}

	q := r.db.NewInsert().
		Model(row).
		On("CONFLICT (item_id) DO UPDATE").
		Set("sold = GREATEST(ist.sold + ?, 0)", sold).
		Set("bought = GREATEST(ist.bought + ?, 0)", bought).
		Set("updated_at = EXCLUDED.updated_at")
	if keepLastTrade {
		q = q.Set("last_trade_time = ist.last_trade_time")
	} else {
		q = q.Set("last_trade_time = EXCLUDED.last_trade_time")
	}

	if _, err := q.Exec(ctx); err != nil {
		slog.Error("Failed to update item stats",
			slog.String("type", "db"),
			slog.String("operation", "add_delta"),
			slog.String("item", itemID),
			slog.Int64("sold", sold),
			slog.Int64("bought", bought),
			slog.Any("error", err))
		return r.HandleErrorWithID("add_delta", "item_stats", itemID, err)
	}
	return nil
}

func (r *itemStatsRepository) UpsertMany(ctx context.Context, stats []*models.ItemStats) error {
	if len(stats) == 0 {
		return nil
	}
	return r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&stats).
			On("CONFLICT (item_id) DO UPDATE").
			Set("sold = EXCLUDED.sold").
			Set("bought = EXCLUDED.bought").
			Set("last_trade_time = EXCLUDED.last_trade_time").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return r.HandleError("upsert_many", "item_stats", err)
	})
}
