package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database/models"
)

// BalanceRepository reads and writes one of the balance tables. The table is
// chosen per call so a single repository serves both cash and bank.
type BalanceRepository interface {
	GetAll(ctx context.Context, table string) (map[uuid.UUID]decimal.Decimal, error)
	Get(ctx context.Context, table string, id uuid.UUID) (decimal.Decimal, error)
	Upsert(ctx context.Context, table string, id uuid.UUID, amount decimal.Decimal) error
	UpsertMany(ctx context.Context, table string, balances map[uuid.UUID]decimal.Decimal) error
}

type balanceRepository struct {
	*BaseRepository
}

func NewBalanceRepository(db *bun.DB) BalanceRepository {
	return &balanceRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *balanceRepository) GetAll(ctx context.Context, table string) (map[uuid.UUID]decimal.Decimal, error) {
	ctx, cancel := r.WithCustomTimeout(ctx, config.WarmupTimeout)
	defer cancel()

	var rows []models.Balance
	err := r.db.NewSelect().
		Model(&rows).
		ModelTableExpr("? AS b", bun.Ident(table)).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", table, err)
	}

	balances := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		balances[row.AccountID] = row.Amount
	}

	slog.Debug("Loaded balances",
		slog.String("type", "db"),
		slog.String("operation", "get_all"),
		slog.String("table", table),
		slog.Int("count", len(balances)))
	return balances, nil
}

func (r *balanceRepository) Get(ctx context.Context, table string, id uuid.UUID) (decimal.Decimal, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var row models.Balance
	err := r.db.NewSelect().
		Model(&row).
		ModelTableExpr("? AS b", bun.Ident(table)).
		Where("b.account_id = ?", id).
		Scan(ctx)
	if err != nil {
		return decimal.Zero, r.HandleErrorWithID("get", table, id, err)
	}
	return row.Amount, nil
}

func (r *balanceRepository) Upsert(ctx context.Context, table string, id uuid.UUID, amount decimal.Decimal) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	row := &models.Balance{AccountID: id, Amount: amount, UpdatedAt: time.Now()}
	_, err := r.db.NewInsert().
		Model(row).
		ModelTableExpr("?", bun.Ident(table)).
		On("CONFLICT (account_id) DO UPDATE").
		Set("balance = EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		slog.Error("Failed to write balance",
			slog.String("type", "db"),
			slog.String("operation", "upsert"),
			slog.String("table", table),
			slog.String("account", id.String()),
			slog.Any("error", err))
		return r.HandleErrorWithID("upsert", table, id, err)
	}
	return nil
}

func (r *balanceRepository) UpsertMany(ctx context.Context, table string, balances map[uuid.UUID]decimal.Decimal) error {
	if len(balances) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.Balance, 0, len(balances))
	for id, amount := range balances {
		rows = append(rows, models.Balance{AccountID: id, Amount: amount, UpdatedAt: now})
	}

	return r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			ModelTableExpr("?", bun.Ident(table)).
			On("CONFLICT (account_id) DO UPDATE").
			Set("balance = EXCLUDED.balance").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return r.HandleError("upsert_many", table, err)
	})
}
