package services

import (
	"context"
	"fmt"

	"tenantdesk/internal/models"
	"tenantdesk/pkg/logger"
)

// SeedGlobalAdmin 创建全局 admin 角色；提供邮箱和密码时同时创建全局管理员，已存在则跳过
func (s *RoleService) SeedGlobalAdmin(ctx context.Context, email, password string) error {
	appLogger := logger.GetLogger()

	role, err := s.EnsureGlobalAdminRole(ctx)
	if err != nil {
		return fmt.Errorf("创建全局管理员角色失败: %w", err)
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		appLogger.Info("未配置种子管理员，跳过创建")
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		appLogger.Info("种子管理员已存在，跳过创建")
		return nil
	}

	admin := &models.User{
		Email:    email,
		RoleID:   &role.ID,
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("创建种子管理员失败: %w", err)
	}

	appLogger.Infof("种子管理员已创建: %s", email)
	return nil
}
