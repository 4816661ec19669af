package database

import (
	"eduplat/internal/models"
	"eduplat/pkg/logger"

	"gorm.io/gorm"
)

// Migrate 执行平台库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting platform database migration...")

	err := DB.AutoMigrate(
		&models.Tenant{},
		&models.Plan{},
		&models.Subscription{},
		&models.User{},
		&models.TenantMembership{},
		&models.AuditLog{},
	)

	if err != nil {
		appLogger.Errorf("Platform database migration failed: %v", err)
		return err
	}

	appLogger.Info("Platform database migration completed successfully")
	return nil
}

// MigrateTenantModels 租户专属库表结构迁移，开通时调用
func MigrateTenantModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Student{},
		&models.Batch{},
	)
}
