package database

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rnkp755/chefcognito/config"
	"github.com/rnkp755/chefcognito/internal/models"
)

var (
	mu     sync.Mutex
	handle *gorm.DB
)

// Get returns the process-wide database handle, opening it on first use.
// A failed attempt is not cached: the next call dials again.
func Get(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	mu.Lock()
	defer mu.Unlock()

	if handle != nil {
		return handle, nil
	}

	db, err := open(cfg, logger)
	if err != nil {
		return nil, err
	}

	handle = db
	return handle, nil
}

// Reset drops the cached handle. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	handle = nil
}

func open(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	logger.Info("connecting to database",
		zap.String("host", cfg.DB.Host),
		zap.String("port", cfg.DB.Port),
		zap.String("user", cfg.DB.User))

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database handle: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("successfully connected to database")
	return db, nil
}

// Migrate creates or updates the schema for all stored entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Preferences{},
		&models.ChatMessage{},
		&models.ChatSession{},
		&models.Recipe{},
		&models.RecipeSession{},
	)
}
