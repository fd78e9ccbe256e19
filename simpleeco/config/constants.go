package config

import "time"

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout  = 10 * time.Second
	BatchQueryTimeout    = 30 * time.Second
	WarmupTimeout        = 2 * time.Minute
	RegressionRunTimeout = 5 * time.Minute
	SnapshotTimeout      = time.Minute
	ShutdownTimeout      = 10 * time.Second
	NetworkDialTimeout   = 5 * time.Second

	// Connection retries
	DefaultMaxRetries    = 3
	DefaultRetryInterval = time.Second

	// Cache settings
	PriceHistoryCacheSize = 4096
	DefaultNotifyBuffer   = 256

	// Batch processing
	MaxConcurrentItems = 8
	BackgroundWorkers  = 16
)

// Economy and Pricing Constants
const (
	DefaultCurrencyName   = "Gold"
	DefaultCurrencySymbol = "G"
	DefaultStartBalance   = 1000.0

	DefaultPriceFactor              = 0.05
	DefaultReferenceAmount          = 1000
	DefaultRegressionTimeMinutes    = 60
	DefaultRegressionUpdateInterval = 5

	// Sell price is this fraction of the buy price.
	DefaultSellRatio = 0.8

	// Stats traded this long ago or more recently are left alone by the regression job.
	MinRegressionAge = time.Minute

	DefaultItemBasePrice = 10.0
	DefaultItemMinPrice  = 1.0
	DefaultItemMaxPrice  = 100.0

	// Price moves beyond this percentage are reported as a trend.
	TrendThresholdPercent = 10.0
)

// Death penalty defaults
const (
	DefaultCashLossPercentage = 0.25
	DefaultMinLossAmount      = 1.0
	DefaultMaxLossAmount      = 10000.0
)

// Snapshot defaults
const (
	DefaultSnapshotInterval = 60
	DefaultSnapshotPrefix   = "snapshots"
)
