package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ItemPriceHistory struct {
	bun.BaseModel `bun:"table:item_price_history,alias:iph"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ItemID     string    `bun:"item_id,notnull"`
	BuyPrice   float64   `bun:"buy_price,notnull"`
	SellPrice  float64   `bun:"sell_price,notnull"`
	NetSales   int64     `bun:"net_sales,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}
