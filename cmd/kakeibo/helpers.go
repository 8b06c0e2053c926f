package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/kakeibo-go/kakeibo/internal/config"
	"github.com/kakeibo-go/kakeibo/internal/coordinator"
	"github.com/kakeibo-go/kakeibo/internal/storage"
)

// databasePath resolves the database location from config.
func databasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return config.ExpandPath(path), nil
	}
	path, err := config.DefaultDatabasePath()
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return path, nil
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// initCoordinator opens storage and returns a coordinator with warm
// caches. The caller owns the store and must Close it.
func initCoordinator(ctx context.Context) (*coordinator.Coordinator, *storage.SQLiteStore, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	coord := coordinator.New(store)
	if err := coord.RefreshAll(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return coord, store, nil
}
