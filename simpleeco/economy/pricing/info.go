package pricing

import (
	"time"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
)

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

type PriceInfo struct {
	Item                     string    `json:"item"`
	BuyPrice                 float64   `json:"buy_price"`
	SellPrice                float64   `json:"sell_price"`
	BasePrice                float64   `json:"base_price"`
	MinPrice                 float64   `json:"min_price"`
	MaxPrice                 float64   `json:"max_price"`
	Sold                     int64     `json:"sold"`
	Bought                   int64     `json:"bought"`
	LastTrade                time.Time `json:"last_trade"`
	Volatility               float64   `json:"volatility"`
	EffectivePriceFactor     float64   `json:"effective_price_factor"`
	EffectiveReferenceAmount int64     `json:"effective_reference_amount"`
	Regression               float64   `json:"regression"`
	Buyable                  bool      `json:"buyable"`
	Sellable                 bool      `json:"sellable"`
}

func (p PriceInfo) NetSales() int64 {
	return p.Sold - p.Bought
}

// Deviation is the distance of the buy price from the base price in percent.
func (p PriceInfo) Deviation() float64 {
	if p.BasePrice == 0 {
		return 0
	}
	return (p.BuyPrice - p.BasePrice) / p.BasePrice * 100
}

func (p PriceInfo) Trend() Trend {
	switch dev := p.Deviation(); {
	case dev > config.TrendThresholdPercent:
		return TrendRising
	case dev < -config.TrendThresholdPercent:
		return TrendFalling
	default:
		return TrendStable
	}
}

// VolatilityLevel buckets Volatility into low, medium and high.
func (p PriceInfo) VolatilityLevel() string {
	switch {
	case p.Volatility < 0.1:
		return "low"
	case p.Volatility < 0.3:
		return "medium"
	default:
		return "high"
	}
}
