package database

import (
	"fmt"

	"iceberg_backend/internal/config"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с DSN из конфигурации.
// TranslateError включен: нарушения уникальных индексов приходят
// как gorm.ErrDuplicatedKey, на этом строятся проверки конфликтов.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	// uuid_generate_v4 для default-значений первичных ключей
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid extension: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.EmployeeProfile{},
		&models.SupplierProfile{},
		&models.District{},
		&models.DriverProfile{},
		&models.AdminProfile{},
		&models.RefreshSession{},
		&models.RevokedAccessToken{},
		&models.TrustedDevice{},
		&models.BackupCode{},
		&models.StaffApplication{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	logger.Info("auto migrate completed")
	return nil
}
