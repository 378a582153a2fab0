package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trackgen/api/internal/app"
	"trackgen/api/internal/config"
	"trackgen/api/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tracks table for the postgres backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.StoreBackend != "postgres" && cfg.StoreBackend != "pg" {
			return fmt.Errorf("migrate only applies to STORE_BACKEND=postgres (got %q)", cfg.StoreBackend)
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		repo, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer repo.Close(ctx)

		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("tracks table ready", zap.String("dsn", config.SafeDSNSummary(cfg.DatabaseURL)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
