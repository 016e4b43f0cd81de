package gormstore

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moltbook/memory-bridge/internal/config"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "sqlite",
		Loader: func(ctx context.Context) (registrystore.MemoryStore, error) {
			cfg := config.FromContext(ctx)
			dsn := cfg.DBURL
			if dsn == "" {
				dsn = "file:memory-bridge.db?_pragma=busy_timeout(5000)"
			}
			db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
			if err != nil {
				return nil, fmt.Errorf("failed to open sqlite database: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, fmt.Errorf("failed to get underlying db: %w", err)
			}
			// sqlite handles one writer at a time; keep the pool small.
			sqlDB.SetMaxOpenConns(1)
			return New(db, DialectSQLite), nil
		},
	})
}
