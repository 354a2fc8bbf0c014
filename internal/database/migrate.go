package database

import (
	"tenantdesk/internal/models"
	"tenantdesk/pkg/logger"

	"gorm.io/gorm"
)

// Models 需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.Role{},
		&models.User{},
		&models.Client{},
		&models.AuditLog{},
	}
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	if err := db.AutoMigrate(Models()...); err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
