package services

import (
	"context"

	"tenantdesk/internal/models"
	apperr "tenantdesk/pkg/errors"

	"gorm.io/gorm"
)

const msgInvalidRole = "El rol no es válido para este tenant"

type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// ListUsable 租户内可用的角色：本租户角色加全局角色
func (s *RoleService) ListUsable(ctx context.Context, tenantID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantID).
		Order("tenant_id IS NULL, code ASC").
		Find(&roles).Error
	if err != nil {
		return nil, apperr.Internal("failed to list roles", err)
	}
	return roles, nil
}

// DefaultRole 租户的默认角色，优先本租户角色，不存在时返回 nil
func DefaultRole(tx *gorm.DB, tenantID string) (*models.Role, error) {
	var roles []models.Role
	err := tx.Where("is_default = ? AND (tenant_id = ? OR tenant_id IS NULL)", true, tenantID).
		Order("tenant_id IS NULL").
		Limit(1).
		Find(&roles).Error
	if err != nil {
		return nil, apperr.Internal("failed to load default role", err)
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return &roles[0], nil
}

// ResolveAssignable 校验角色可以在租户内分配，全局角色只能由持有全局角色的操作者分配
func ResolveAssignable(tx *gorm.DB, tenantID, roleID string, actor *Actor) (*models.Role, error) {
	var role models.Role
	err := tx.Where("id = ? AND (tenant_id = ? OR tenant_id IS NULL)", roleID, tenantID).First(&role).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.InvalidParam(msgInvalidRole)
		}
		return nil, apperr.Internal("failed to load role", err)
	}

	if role.IsGlobal() && (actor == nil || !actor.HasGlobalRole()) {
		return nil, apperr.Forbidden(msgInsufficientRole)
	}
	return &role, nil
}

// ensureManageable 持有全局角色的用户只能由持有全局角色的操作者修改或删除
func ensureManageable(tx *gorm.DB, user *models.User, actor *Actor) error {
	if user.RoleID == nil || (actor != nil && actor.HasGlobalRole()) {
		return nil
	}

	var role models.Role
	if err := tx.Where("id = ?", *user.RoleID).First(&role).Error; err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperr.Internal("failed to load role", err)
	}
	if role.IsGlobal() {
		return apperr.Forbidden(msgInsufficientRole)
	}
	return nil
}

// EnsureGlobalAdminRole 获取或创建全局 admin 角色
func (s *RoleService) EnsureGlobalAdminRole(ctx context.Context) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).
		Where("code = ? AND tenant_id IS NULL", models.RoleAdmin).
		First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	role = models.Role{Code: models.RoleAdmin, Label: "Administrador global"}
	if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
