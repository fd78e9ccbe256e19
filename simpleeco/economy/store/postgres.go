package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/database"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database/models"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database/repositories"
)

// Postgres stores records through the bun repositories.
type Postgres struct {
	db       *database.DB
	balances repositories.BalanceRepository
	stats    repositories.ItemStatsRepository
	history  repositories.PriceHistoryRepository
}

func NewPostgres(db *database.DB) *Postgres {
	bunDB := db.BunDB()
	return &Postgres{
		db:       db,
		balances: repositories.NewBalanceRepository(bunDB),
		stats:    repositories.NewItemStatsRepository(bunDB),
		history:  repositories.NewPriceHistoryRepository(bunDB),
	}
}

func tableFor(kind Kind) string {
	if kind == Bank {
		return models.BankBalanceTable
	}
	return models.CashBalanceTable
}

func (p *Postgres) LoadBalances(ctx context.Context, kind Kind) (map[uuid.UUID]decimal.Decimal, error) {
	balances, err := p.balances.GetAll(ctx, tableFor(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s balances: %w", kind, err)
	}
	return balances, nil
}

func (p *Postgres) Balance(ctx context.Context, kind Kind, id uuid.UUID) (decimal.Decimal, bool, error) {
	amount, err := p.balances.Get(ctx, tableFor(kind), id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to get %s balance: %w", kind, err)
	}
	return amount, true, nil
}

func (p *Postgres) SetBalance(ctx context.Context, kind Kind, id uuid.UUID, amount decimal.Decimal) error {
	if err := p.balances.Upsert(ctx, tableFor(kind), id, amount); err != nil {
		return fmt.Errorf("failed to set %s balance: %w", kind, err)
	}
	return nil
}

func (p *Postgres) LoadItemStats(ctx context.Context) (map[string]Stats, error) {
	rows, err := p.stats.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load item stats: %w", err)
	}
	out := make(map[string]Stats, len(rows))
	for _, row := range rows {
		out[row.ItemID] = statsFromModel(row)
	}
	return out, nil
}

func (p *Postgres) ItemStats(ctx context.Context, item string) (Stats, bool, error) {
	row, err := p.stats.Get(ctx, item)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Stats{}, false, nil
		}
		return Stats{}, false, fmt.Errorf("failed to get item stats: %w", err)
	}
	return statsFromModel(row), true, nil
}

func (p *Postgres) AddItemStats(ctx context.Context, item string, delta StatsDelta) error {
	if err := p.stats.AddDelta(ctx, item, delta.Sold, delta.Bought, delta.TradedAt); err != nil {
		return fmt.Errorf("failed to update item stats: %w", err)
	}
	return nil
}

func (p *Postgres) AppendPriceHistory(ctx context.Context, snapshots []PriceSnapshot) error {
	entries := make([]*models.ItemPriceHistory, len(snapshots))
	for i, s := range snapshots {
		entries[i] = &models.ItemPriceHistory{
			ItemID:     s.Item,
			BuyPrice:   s.BuyPrice,
			SellPrice:  s.SellPrice,
			NetSales:   s.NetSales,
			RecordedAt: s.RecordedAt,
		}
	}
	if err := p.history.InsertMany(ctx, entries); err != nil {
		return fmt.Errorf("failed to store price history: %w", err)
	}
	return nil
}

func (p *Postgres) PriceHistory(ctx context.Context, item string, since time.Time) ([]PriceSnapshot, error) {
	entries, err := p.history.GetSince(ctx, item, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	out := make([]PriceSnapshot, len(entries))
	for i, e := range entries {
		out[i] = PriceSnapshot{
			Item:       e.ItemID,
			BuyPrice:   e.BuyPrice,
			SellPrice:  e.SellPrice,
			NetSales:   e.NetSales,
			RecordedAt: e.RecordedAt,
		}
	}
	return out, nil
}

// PruneHistory drops price snapshots recorded before the cutoff.
func (p *Postgres) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	return p.history.DeleteBefore(ctx, before)
}

func (p *Postgres) ImportBalances(ctx context.Context, kind Kind, balances map[uuid.UUID]decimal.Decimal) error {
	return p.balances.UpsertMany(ctx, tableFor(kind), balances)
}

func (p *Postgres) ImportItemStats(ctx context.Context, stats map[string]Stats) error {
	rows := make([]*models.ItemStats, 0, len(stats))
	now := time.Now()
	for item, s := range stats {
		rows = append(rows, &models.ItemStats{
			ItemID:        item,
			Sold:          s.Sold,
			Bought:        s.Bought,
			LastTradeTime: s.LastTrade.Unix(),
			UpdatedAt:     now,
		})
	}
	return p.stats.UpsertMany(ctx, rows)
}

func (p *Postgres) Close(_ context.Context) error {
	p.db.Close()
	return nil
}

func statsFromModel(m *models.ItemStats) Stats {
	return Stats{Sold: m.Sold, Bought: m.Bought, LastTrade: m.LastTrade()}
}
