package database

import (
	"fmt"
	"time"

	"lab-inventory/internal/config"
	"lab-inventory/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres and migrates the schema.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), GormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database connected, migration complete")
	return db, nil
}

// GormConfig routes GORM's logger through zap and enables dialect error translation.
func GormConfig(log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			zap.NewStdLog(log.Named("gorm")),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}

// Migrate creates or updates every table. Order matters for the foreign keys:
// suppliers before supplies before purchase orders.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Supplier{},
		&models.Supply{},
		&models.PurchaseOrder{},
		&models.StockAdjustment{},
		&models.User{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
