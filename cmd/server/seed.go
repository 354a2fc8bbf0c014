package main

import (
	"context"

	"tenantdesk/internal/services"
	"tenantdesk/pkg/config"
	"tenantdesk/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData(ctx context.Context, db *gorm.DB, cfg config.SeedConfig) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	if err := services.NewRoleService(db).SeedGlobalAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}
