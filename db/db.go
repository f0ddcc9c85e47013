// Package db opens the local run ledger.
package db

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/challenge-infra/submission-runner/models"
)

// Open connects to the SQLite ledger at path and migrates its schema.
func Open(path string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := database.Use(otelgorm.NewPlugin(otelgorm.WithDBName("runs"))); err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.Run{}); err != nil {
		return nil, err
	}

	zlog.Sugar().Debugf("run ledger opened at %s", path)
	return database, nil
}

// Close releases the underlying connection pool.
func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
