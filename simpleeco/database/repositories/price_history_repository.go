package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database/models"
)

type PriceHistoryRepository interface {
	InsertMany(ctx context.Context, entries []*models.ItemPriceHistory) error
	GetSince(ctx context.Context, itemID string, since time.Time) ([]*models.ItemPriceHistory, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

type priceHistoryRepository struct {
	*BaseRepository
}

func NewPriceHistoryRepository(db *bun.DB) PriceHistoryRepository {
	return &priceHistoryRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *priceHistoryRepository) InsertMany(ctx context.Context, entries []*models.ItemPriceHistory) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := r.WithCustomTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	_, err := r.db.NewInsert().Model(&entries).Exec(ctx)
	return r.HandleError("insert_many", "item_price_history", err)
}

func (r *priceHistoryRepository) GetSince(ctx context.Context, itemID string, since time.Time) ([]*models.ItemPriceHistory, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.ItemPriceHistory
	err := r.db.NewSelect().
		Model(&entries).
		Where("item_id = ?", itemID).
		Where("recorded_at >= ?", since).
		Order("recorded_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_since", "item_price_history", itemID, err)
	}
	return entries, nil
}

func (r *priceHistoryRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.ItemPriceHistory)(nil)).
		Where("recorded_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("delete_before", "item_price_history", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
