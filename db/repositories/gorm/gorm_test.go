package repositories_gorm

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/challenge-infra/submission-runner/models"
)

var db *gorm.DB

// setup initializes and sets up the in-memory SQLite database connection for testing purposes.
// Additionally, it automatically migrates the necessary models to ensure the schema is up-to-date.
func setup() {
	var err error
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to database")
	}

	// every pooled connection to :memory: would open its own empty database
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.AutoMigrate(&models.Run{})
}

// teardown drops the in-memory database so that the next setup starts empty.
func teardown() {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}
