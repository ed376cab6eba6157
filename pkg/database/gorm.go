package database

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/internal/schema"
)

// NewGorm opens the main database from central config.
func NewGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return NewGormFromConfig(FromCentralConfig(cfg))
}

// NewGormFromConfig wraps a lib/pq connection pool in a gorm handle.
func NewGormFromConfig(cfg Config) (*gorm.DB, error) {
	sqlDB, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: newGormLogger(cfg),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the prescription tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&schema.Prescription{}, &schema.Medication{})
}

// Close releases the pool underneath a gorm handle.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGormLogger(cfg Config) logger.Interface {
	level := logger.Warn
	if cfg.EnableLogging {
		level = logger.Info
	}
	return logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold(),
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}
