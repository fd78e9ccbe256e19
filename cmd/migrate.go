package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ellavondegurechaff/simpleeco/simpleeco"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

var (
	migrateFrom     string
	migrateMongoURI string
	migrateMongoDB  string
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "copy balances and item stats from a legacy store into the configured one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if migrateFrom == cfg.Store.Driver {
			return fmt.Errorf("source and target are both %s", migrateFrom)
		}

		src := *cfg
		src.Store.Driver = migrateFrom
		if migrateMongoURI != "" {
			src.Mongo.URI = migrateMongoURI
		}
		if migrateMongoDB != "" {
			src.Mongo.Database = migrateMongoDB
		}

		from, err := simpleeco.OpenStore(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer from.Close(ctx)

		to, err := simpleeco.OpenStore(ctx, *cfg)
		if err != nil {
			return fmt.Errorf("failed to open target: %w", err)
		}
		defer to.Close(ctx)

		importer, ok := to.(store.Importer)
		if !ok {
			return fmt.Errorf("store %s does not support imports", cfg.Store.Driver)
		}

		report, err := store.Copy(ctx, from, importer)
		if err != nil {
			slog.Error("Migration failed", slog.String("type", "cmd"), slog.Any("error", err))
			return err
		}

		slog.Info("Migration completed",
			slog.String("type", "cmd"),
			slog.String("from", migrateFrom),
			slog.String("to", cfg.Store.Driver),
			slog.Int("cash", report.Cash),
			slog.Int("bank", report.Bank),
			slog.Int("items", report.Items))
		return nil
	},
}

func init() {
	migrateCMD.Flags().StringVar(&migrateFrom, "from", simpleeco.StoreDriverMongo, "source store driver (mongo or postgres)")
	migrateCMD.Flags().StringVar(&migrateMongoURI, "mongo-uri", "", "source mongo uri, defaults to mongo.uri")
	migrateCMD.Flags().StringVar(&migrateMongoDB, "mongo-db", "", "source mongo database, defaults to mongo.database")
	rootCmd.AddCommand(migrateCMD)
}
