package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/kitchen-pos/internal/config"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// A counter agent sees a handful of concurrent requests.
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	log.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.Order{},
		&entity.OrderLineItem{},
		&entity.ReceiptSettings{},
		&entity.PrintAudit{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// SeedDefaultData creates the receipt settings row when none exists.
func SeedDefaultData(ctx context.Context, settings repository.ReceiptSettingsRepository, log *zap.Logger) error {
	existing, err := settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load receipt settings: %w", err)
	}
	if existing != nil {
		return nil
	}
	if err := settings.Create(ctx, &entity.ReceiptSettings{ReceiptConfig: entity.DefaultReceiptConfig()}); err != nil {
		return fmt.Errorf("seed receipt settings: %w", err)
	}
	log.Info("seeded default receipt settings")
	return nil
}

// PurgeIdempotencyKeys deletes expired idempotency keys every interval
// until ctx is done.
func PurgeIdempotencyKeys(ctx context.Context, repo repository.IdempotencyRepository, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn("failed to purge idempotency keys", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("purged idempotency keys", zap.Int64("count", n))
			}
		}
	}
}
