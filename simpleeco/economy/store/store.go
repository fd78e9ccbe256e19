// Package store persists balances, item trade statistics and price history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind selects one of the two balance columns of an account.
type Kind int

const (
	Cash Kind = iota
	Bank
)

func (k Kind) String() string {
	if k == Bank {
		return "bank"
	}
	return "cash"
}

var ErrClosed = errors.New("store closed")

// Stats are the trade counters of a single item.
type Stats struct {
	Sold      int64
	Bought    int64
	LastTrade time.Time
}

func (s Stats) NetSales() int64 {
	return s.Sold - s.Bought
}

// StatsDelta is added to the stored counters. A zero TradedAt keeps the
// stored last trade time.
type StatsDelta struct {
	Sold     int64
	Bought   int64
	TradedAt time.Time
}

func (d StatsDelta) IsZero() bool {
	return d.Sold == 0 && d.Bought == 0 && d.TradedAt.IsZero()
}

type PriceSnapshot struct {
	Item       string    `json:"item"`
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	NetSales   int64     `json:"net_sales"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Store interface {
	LoadBalances(ctx context.Context, kind Kind) (map[uuid.UUID]decimal.Decimal, error)
	// Balance reports found=false when the account has no record yet.
	Balance(ctx context.Context, kind Kind, id uuid.UUID) (amount decimal.Decimal, found bool, err error)
	SetBalance(ctx context.Context, kind Kind, id uuid.UUID, amount decimal.Decimal) error

	LoadItemStats(ctx context.Context) (map[string]Stats, error)
	ItemStats(ctx context.Context, item string) (stats Stats, found bool, err error)
	// AddItemStats creates the record when missing. Counters never drop below zero.
	AddItemStats(ctx context.Context, item string, delta StatsDelta) error

	AppendPriceHistory(ctx context.Context, snapshots []PriceSnapshot) error
	PriceHistory(ctx context.Context, item string, since time.Time) ([]PriceSnapshot, error)

	Close(ctx context.Context) error
}

// Importer is implemented by stores that accept bulk writes, used when
// copying data between backends.
type Importer interface {
	ImportBalances(ctx context.Context, kind Kind, balances map[uuid.UUID]decimal.Decimal) error
	ImportItemStats(ctx context.Context, stats map[string]Stats) error
}

type HistoryPruner interface {
	PruneHistory(ctx context.Context, before time.Time) (int64, error)
}
