package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-service/internal/model"
	"storefront-service/pkg/config"
)

// InitDB opens the PostgreSQL connection and applies the pool settings
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	conn, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.DB.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return conn, nil
}

// Migrate creates or updates every table the service owns
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database is not initialized")
	}
	if err := conn.AutoMigrate(model.Tables...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
