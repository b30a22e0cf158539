package db

import (
	"fmt"
	"time"

	"movierama/internal/config"
	"movierama/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured database. TranslateError is on so unique
// violations surface as gorm.ErrDuplicatedKey for every driver.
func Open(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates or updates the users, items and votes tables.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.Vote{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	log.Info("database migration completed")
	return nil
}
