package simpleeco

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/database"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/pricing"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/logger"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// LoadConfig reads the TOML file at path on top of DefaultConfig, applies
// secrets from the environment (and a .env file if present) and validates
// the result.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info", Color: true},
		Currency: CurrencyConfig{
			Name:         config.DefaultCurrencyName,
			Symbol:       config.DefaultCurrencySymbol,
			StartBalance: config.DefaultStartBalance,
		},
		Store: StoreConfig{Driver: StoreDriverPostgres},
		DB: database.DBConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "simpleeco",
			PoolSize: 10,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "simpleeco",
		},
		Ledger: LedgerConfig{NotifyBuffer: config.DefaultNotifyBuffer},
		Pricing: PricingConfig{
			PriceFactor:              config.DefaultPriceFactor,
			ReferenceAmount:          config.DefaultReferenceAmount,
			RegressionTimeMinutes:    config.DefaultRegressionTimeMinutes,
			RegressionUpdateInterval: config.DefaultRegressionUpdateInterval,
			SellRatio:                config.DefaultSellRatio,
			HistoryEnabled:           true,
		},
		DeathPenalty: DeathPenaltyConfig{
			Enabled:            true,
			CashLossPercentage: config.DefaultCashLossPercentage,
			MinLossAmount:      config.DefaultMinLossAmount,
			MaxLossAmount:      config.DefaultMaxLossAmount,
		},
		Snapshot: SnapshotConfig{
			IntervalMinutes: config.DefaultSnapshotInterval,
			Prefix:          config.DefaultSnapshotPrefix,
		},
	}
}

type Config struct {
	Log          LogConfig          `toml:"log"`
	Currency     CurrencyConfig     `toml:"currency"`
	Store        StoreConfig        `toml:"store"`
	DB           database.DBConfig  `toml:"db"`
	Mongo        MongoConfig        `toml:"mongo"`
	Ledger       LedgerConfig       `toml:"ledger"`
	Pricing      PricingConfig      `toml:"pricing"`
	DeathPenalty DeathPenaltyConfig `toml:"death_penalty"`
	Snapshot     SnapshotConfig     `toml:"snapshot"`
	Spaces       SpacesConfig       `toml:"spaces"`
}

type LogConfig struct {
	Level string `toml:"level"`
	Color bool   `toml:"color"`
}

func (c LogConfig) SlogLevel() slog.Level {
	return logger.ParseLevel(c.Level)
}

type CurrencyConfig struct {
	Name         string  `toml:"name" validate:"required"`
	Symbol       string  `toml:"symbol" validate:"required"`
	StartBalance float64 `toml:"start_balance" validate:"gte=0"`
}

type StoreConfig struct {
	Driver string `toml:"driver" validate:"oneof=postgres mongo memory"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type LedgerConfig struct {
	// Holds per-account locks across check, debit and credit.
	SerializeTransfers bool `toml:"serialize_transfers"`
	NotifyBuffer       int  `toml:"notify_buffer" validate:"gte=0"`
}

type PricingConfig struct {
	PriceFactor              float64               `toml:"price_factor" validate:"gte=0"`
	ReferenceAmount          int64                 `toml:"reference_amount" validate:"gt=0"`
	RegressionTimeMinutes    int64                 `toml:"regression_time_minutes" validate:"gt=0"`
	RegressionUpdateInterval int64                 `toml:"regression_update_interval" validate:"gt=0"`
	SellRatio                float64               `toml:"sell_ratio" validate:"gt=0,lte=1"`
	HistoryEnabled           bool                  `toml:"history_enabled"`
	Items                    map[string]ItemConfig `toml:"items"`
}

type ItemConfig struct {
	BasePrice       *float64 `toml:"base_price"`
	MinPrice        *float64 `toml:"min_price"`
	MaxPrice        *float64 `toml:"max_price"`
	Buyable         *bool    `toml:"buyable"`
	Sellable        *bool    `toml:"sellable"`
	PriceFactor     *float64 `toml:"price_factor"`
	ReferenceAmount *int64   `toml:"reference_amount"`
}

type DeathPenaltyConfig struct {
	Enabled            bool    `toml:"enabled"`
	CashLossPercentage float64 `toml:"cash_loss_percentage" validate:"gte=0,lte=1"`
	MinLossAmount      float64 `toml:"min_loss_amount" validate:"gte=0"`
	MaxLossAmount      float64 `toml:"max_loss_amount" validate:"gtefield=MinLossAmount"`
}

type SnapshotConfig struct {
	Enabled         bool   `toml:"enabled"`
	IntervalMinutes int    `toml:"interval_minutes" validate:"gt=0"`
	Prefix          string `toml:"prefix"`
}

type SpacesConfig struct {
	Key    string `toml:"key"`
	Secret string `toml:"secret"`
	Region string `toml:"region"`
	Bucket string `toml:"bucket"`
}

// Globals returns the pricing parameters shared by every item.
func (c PricingConfig) Globals() pricing.Globals {
	return pricing.Globals{
		PriceFactor:           c.PriceFactor,
		ReferenceAmount:       c.ReferenceAmount,
		RegressionTimeMinutes: c.RegressionTimeMinutes,
		SellRatio:             c.SellRatio,
	}
}

// Catalog resolves item defaults and validates every item price.
func (c PricingConfig) Catalog() (*pricing.Catalog, error) {
	validate := validator.New()
	items := make(map[string]pricing.ItemPrice, len(c.Items))
	for name, item := range c.Items {
		price := item.resolve()
		if err := validate.Struct(price); err != nil {
			return nil, fmt.Errorf("invalid price config for %s: %w", name, err)
		}
		items[name] = price
	}
	return pricing.NewCatalog(c.Globals(), items), nil
}

func (i ItemConfig) resolve() pricing.ItemPrice {
	return pricing.ItemPrice{
		BasePrice:       floatOr(i.BasePrice, config.DefaultItemBasePrice),
		MinPrice:        floatOr(i.MinPrice, config.DefaultItemMinPrice),
		MaxPrice:        floatOr(i.MaxPrice, config.DefaultItemMaxPrice),
		Buyable:         boolOr(i.Buyable, true),
		Sellable:        boolOr(i.Sellable, true),
		PriceFactor:     i.PriceFactor,
		ReferenceAmount: i.ReferenceAmount,
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Pricing.Items) == 0 {
		slog.Warn("No item prices configured",
			slog.String("type", "sys"),
			slog.String("component", "config"))
	}
	if _, err := c.Pricing.Catalog(); err != nil {
		return err
	}
	if c.Store.Driver == StoreDriverMongo && c.Mongo.URI == "" {
		return errors.New("invalid config: mongo.uri is required for the mongo store")
	}
	if c.Snapshot.Enabled && (c.Spaces.Bucket == "" || c.Spaces.Region == "") {
		return errors.New("invalid config: spaces.bucket and spaces.region are required when snapshots are enabled")
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"SIMPLEECO_DB_PASSWORD":   &c.DB.Password,
		"SIMPLEECO_MONGO_URI":     &c.Mongo.URI,
		"SIMPLEECO_SPACES_KEY":    &c.Spaces.Key,
		"SIMPLEECO_SPACES_SECRET": &c.Spaces.Secret,
		"SIMPLEECO_STORE_DRIVER":  &c.Store.Driver,
		"SIMPLEECO_LOG_LEVEL":     &c.Log.Level,
	}
	for key, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
