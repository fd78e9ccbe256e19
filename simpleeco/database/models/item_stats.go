package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ItemStats keeps trade counters per item. LastTradeTime is unix seconds.
type ItemStats struct {
	bun.BaseModel `bun:"table:item_stats,alias:ist"`

	ItemID        string    `bun:"item_id,pk"`
	Sold          int64     `bun:"sold,notnull,default:0"`
	Bought        int64     `bun:"bought,notnull,default:0"`
	LastTradeTime int64     `bun:"last_trade_time,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (s *ItemStats) LastTrade() time.Time {
	return time.Unix(s.LastTradeTime, 0)
}
