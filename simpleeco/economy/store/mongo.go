package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database/models"
)

const (
	itemStatsCollection    = "item_stats"
	priceHistoryCollection = "item_price_history"
)

type mongoBalance struct {
	AccountID string               `bson:"_id"`
	Balance   primitive.Decimal128 `bson:"balance"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

type mongoItemStats struct {
	ItemID        string    `bson:"_id"`
	Sold          int64     `bson:"sold"`
	Bought        int64     `bson:"bought"`
	LastTradeTime int64     `bson:"last_trade_time"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type mongoPriceSnapshot struct {
	ItemID     string    `bson:"item_id"`
	BuyPrice   float64   `bson:"buy_price"`
	SellPrice  float64   `bson:"sell_price"`
	NetSales   int64     `bson:"net_sales"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// Mongo stores records in MongoDB collections named like the postgres tables.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(config.NetworkDialTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err = client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("Connected to MongoDB",
		slog.String("type", "db"),
		slog.String("database", dbName))
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

// EnsureIndexes creates the price history lookup index.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(priceHistoryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "recorded_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create price history index: %w", err)
	}
	return nil
}

func balanceCollection(kind Kind) string {
	if kind == Bank {
		return models.BankBalanceTable
	}
	return models.CashBalanceTable
}

func (m *Mongo) LoadBalances(ctx context.Context, kind Kind) (map[uuid.UUID]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, config.WarmupTimeout)
	defer cancel()

	cur, err := m.db.Collection(balanceCollection(kind)).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s balances: %w", kind, err)
	}
	defer cur.Close(ctx)

	out := make(map[uuid.UUID]decimal.Decimal)
	for cur.Next(ctx) {
		var doc mongoBalance
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s balance: %w", kind, err)
		}
		id, amount, err := doc.parse()
		if err != nil {
			slog.Warn("Skipping malformed balance document",
				slog.String("type", "db"),
				slog.String("collection", balanceCollection(kind)),
				slog.String("account", doc.AccountID),
				slog.Any("error", err))
			continue
		}
		out[id] = amount
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s balances: %w", kind, err)
	}
	return out, nil
}

func (m *Mongo) Balance(ctx context.Context, kind Kind, id uuid.UUID) (decimal.Decimal, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var doc mongoBalance
	err := m.db.Collection(balanceCollection(kind)).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get %s balance: %w", kind, err)
	}
	_, amount, err := doc.parse()
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

func (m *Mongo) SetBalance(ctx context.Context, kind Kind, id uuid.UUID, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	d128, err := primitive.ParseDecimal128(amount.String())
	if err != nil {
		return fmt.Errorf("failed to encode balance: %w", err)
	}
	_, err = m.db.Collection(balanceCollection(kind)).UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"balance": d128, "updated_at": time.Now()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set %s balance: %w", kind, err)
	}
	return nil
}

func (m *Mongo) LoadItemStats(ctx context.Context) (map[string]Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, config.WarmupTimeout)
	defer cancel()

	cur, err := m.db.Collection(itemStatsCollection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to load item stats: %w", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]Stats)
	for cur.Next(ctx) {
		var doc mongoItemStats
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode item stats: %w", err)
		}
		out[doc.ItemID] = doc.stats()
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item stats: %w", err)
	}
	return out, nil
}

func (m *Mongo) ItemStats(ctx context.Context, item string) (Stats, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var doc mongoItemStats
	err := m.db.Collection(itemStatsCollection).FindOne(ctx, bson.M{"_id": item}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Stats{}, false, nil
	}
	if err != nil {
		return Stats{}, false, fmt.Errorf("failed to get item stats: %w", err)
	}
	return doc.stats(), true, nil
}

func (m *Mongo) AddItemStats(ctx context.Context, item string, delta StatsDelta) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	now := time.Now()
	var lastTrade any = delta.TradedAt.Unix()
	if delta.TradedAt.IsZero() {
		lastTrade = bson.M{"$ifNull": bson.A{"$last_trade_time", now.Unix()}}
	}

	clamped := func(field string, d int64) bson.M {
		return bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + field, 0}}, d}}}}
	}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"sold":            clamped("sold", delta.Sold),
			"bought":          clamped("bought", delta.Bought),
			"last_trade_time": lastTrade,
			"updated_at":      now,
		}}},
	}
	_, err := m.db.Collection(itemStatsCollection).UpdateOne(ctx,
		bson.M{"_id": item}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update item stats: %w", err)
	}
	return nil
}

func (m *Mongo) AppendPriceHistory(ctx context.Context, snapshots []PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	docs := make([]any, len(snapshots))
	for i, s := range snapshots {
		docs[i] = mongoPriceSnapshot{
			ItemID:     s.Item,
			BuyPrice:   s.BuyPrice,
			SellPrice:  s.SellPrice,
			NetSales:   s.NetSales,
			RecordedAt: s.RecordedAt,
		}
	}
	if _, err := m.db.Collection(priceHistoryCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to store price history: %w", err)
	}
	return nil
}

func (m *Mongo) PriceHistory(ctx context.Context, item string, since time.Time) ([]PriceSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	cur, err := m.db.Collection(priceHistoryCollection).Find(ctx,
		bson.M{"item_id": item, "recorded_at": bson.M{"$gte": since}},
		options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoPriceSnapshot
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}
	out := make([]PriceSnapshot, len(docs))
	for i, d := range docs {
		out[i] = PriceSnapshot{
			Item:       d.ItemID,
			BuyPrice:   d.BuyPrice,
			SellPrice:  d.SellPrice,
			NetSales:   d.NetSales,
			RecordedAt: d.RecordedAt,
		}
	}
	return out, nil
}

func (m *Mongo) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	res, err := m.db.Collection(priceHistoryCollection).DeleteMany(ctx, bson.M{"recorded_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune price history: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *Mongo) ImportBalances(ctx context.Context, kind Kind, balances map[uuid.UUID]decimal.Decimal) error {
	if len(balances) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(balances))
	for id, amount := range balances {
		d128, err := primitive.ParseDecimal128(amount.String())
		if err != nil {
			return fmt.Errorf("failed to encode balance for %s: %w", id, err)
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id.String()}).
			SetUpdate(bson.M{"$set": bson.M{"balance": d128, "updated_at": now}}).
			SetUpsert(true))
	}
	if _, err := m.db.Collection(balanceCollection(kind)).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to import %s balances: %w", kind, err)
	}
	return nil
}

func (m *Mongo) ImportItemStats(ctx context.Context, stats map[string]Stats) error {
	if len(stats) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(stats))
	for item, s := range stats {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": item}).
			SetUpdate(bson.M{"$set": bson.M{
				"sold":            s.Sold,
				"bought":          s.Bought,
				"last_trade_time": s.LastTrade.Unix(),
				"updated_at":      now,
			}}).
			SetUpsert(true))
	}
	if _, err := m.db.Collection(itemStatsCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to import item stats: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (d mongoBalance) parse() (uuid.UUID, decimal.Decimal, error) {
	id, err := uuid.Parse(d.AccountID)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("invalid account id %q: %w", d.AccountID, err)
	}
	amount, err := decimal.NewFromString(d.Balance.String())
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("invalid balance for %s: %w", d.AccountID, err)
	}
	return id, amount, nil
}

func (d mongoItemStats) stats() Stats {
	return Stats{Sold: d.Sold, Bought: d.Bought, LastTrade: time.Unix(d.LastTradeTime, 0)}
}
