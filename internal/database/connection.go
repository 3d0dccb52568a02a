// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecompria/themelock/internal/config"
	"github.com/ecompria/themelock/internal/models"
)

func Initialize(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		// TranslateError maps driver duplicate-key errors onto
		// gorm.ErrDuplicatedKey, which the stores rely on for
		// insert-if-absent semantics.
		TranslateError: true,
	}
	if cfg.LogLevel == "silent" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB, log *logrus.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection")
	}
}

func RunMigrations(db *gorm.DB, log *logrus.Logger) error {
	log.Info("Running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.License{},
		&models.AuthToken{},
		&models.AuditLog{},
		&models.AdminNotification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB, log *logrus.Logger) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_licenses_customer_email ON licenses(customer_email)",
		"CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status)",
		"CREATE INDEX IF NOT EXISTS idx_auth_tokens_license_status ON auth_tokens(license_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.WithError(err).Warnf("Failed to create index: %s", index)
		}
	}

	return nil
}
