package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/disaster-triage/internal/config"
	"github.com/Veraticus/disaster-triage/internal/storage"
	"github.com/spf13/viper"
)

// loadSettings reads the pipeline settings from the global configuration.
func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// initStorage opens the message database at dbPath and runs migrations.
func initStorage(ctx context.Context, dbPath string, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath,
		storage.WithTable(settings.Store.Table),
		storage.WithBatchSize(settings.Store.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
