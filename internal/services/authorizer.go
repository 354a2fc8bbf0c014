package services

import (
	"context"

	"tenantdesk/internal/models"
	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/jwt"
	"tenantdesk/pkg/metrics"

	"gorm.io/gorm"
)

// Policy 一组允许的角色代码
type Policy struct {
	Name       string
	Codes      []string
	GlobalOnly bool // 只允许全局角色
}

// 路由使用的授权策略
var (
	PolicyGlobalAdmin = Policy{
		Name:       "global_admin",
		Codes:      []string{models.RoleAdmin},
		GlobalOnly: true,
	}
	PolicyAdmin = Policy{
		Name:  "admin",
		Codes: []string{models.RoleAdmin},
	}
	PolicyAdminOrOwner = Policy{
		Name:  "admin_or_owner",
		Codes: []string{models.RoleAdmin, models.RoleTenantOwner},
	}
	// 删除客户比更新多允许前台
	PolicyClientDelete = Policy{
		Name:  "client_delete",
		Codes: []string{models.RoleAdmin, models.RoleTenantOwner, models.RoleReceptionist},
	}
)

// Allows 角色代码是否在允许列表中
func (p Policy) Allows(role *models.Role) bool {
	if p.GlobalOnly && !role.IsGlobal() {
		return false
	}
	for _, code := range p.Codes {
		if code == role.Code {
			return true
		}
	}
	return false
}

const (
	msgRoleNotFound     = "Rol no encontrado"
	msgInsufficientRole = "No autorizado: rol insuficiente"
)

// Authorizer 角色授权
type Authorizer struct {
	db *gorm.DB
}

func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{db: db}
}

// LoadRole 加载身份的角色，只在本租户角色和全局角色中查找
func (a *Authorizer) LoadRole(ctx context.Context, identity jwt.Identity) (*models.Role, error) {
	if identity.RoleID == "" {
		return nil, apperr.Forbidden(msgRoleNotFound)
	}

	query := a.db.WithContext(ctx).Where("id = ?", identity.RoleID)
	if identity.IsGlobal() {
		query = query.Where("tenant_id IS NULL")
	} else {
		query = query.Where("tenant_id = ? OR tenant_id IS NULL", identity.TenantID)
	}

	var role models.Role
	if err := query.First(&role).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.Forbidden(msgRoleNotFound)
		}
		return nil, apperr.Internal("failed to load role", err)
	}
	return &role, nil
}

// RequireRole 校验角色代码与租户范围，activeTenant 为空时不做范围校验
func (a *Authorizer) RequireRole(ctx context.Context, identity jwt.Identity, activeTenant string, policy Policy) (*models.Role, error) {
	role, err := a.LoadRole(ctx, identity)
	if err != nil {
		if apperr.IsKind(err, apperr.KindForbidden) {
			metrics.AuthzDeniedTotal.WithLabelValues(policy.Name).Inc()
		}
		return nil, err
	}

	if !policy.Allows(role) || (activeTenant != "" && !role.UsableIn(activeTenant)) {
		metrics.AuthzDeniedTotal.WithLabelValues(policy.Name).Inc()
		return nil, apperr.Forbidden(msgInsufficientRole)
	}
	return role, nil
}
