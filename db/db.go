// Package db wires the GORM Postgres connection shared by every domain
// repository. Schema/table bootstrap beyond AutoMigrate is out of scope
// (spec.md §1 "Out of scope — Schema/table bootstrap for the persistence
// layer"); this package runs no migrations itself. Each repository's
// Migrate method calls AutoMigrate for its own tables, and main.go calls
// them at startup as a development convenience, not a migration tool.
package db

import (
	"time"

	"github.com/darve-social/darve-go/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a GORM connection to Postgres using the configured DSN.
func New(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}
