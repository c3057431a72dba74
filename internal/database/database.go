package database

import (
	"fmt"
	"time"

	"hospital-system/internal/config"
	"hospital-system/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection.
var DB *gorm.DB

// InitDB initializes the database connection and migrates the schema.
func InitDB(cfg *config.Config) error {
	var dialector gorm.Dialector
	if cfg.IsPostgres() {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	db, err := Open(dialector)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects through the given dialector and migrates the schema.
// Timestamps are written in UTC so date range filters compare consistently.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables shared with the primary system.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Patient{},
		&models.Address{},
		&models.Movement{},
		&models.User{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
