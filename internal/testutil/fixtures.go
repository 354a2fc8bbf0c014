package testutil

import (
	"testing"

	"tenantdesk/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateTenant 创建租户及其默认角色
func CreateTenant(t *testing.T, db *gorm.DB, subdomain string, active bool) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{
		Name:      "Tenant " + subdomain,
		Subdomain: subdomain,
		Plan:      models.PlanFree,
		IsActive:  active,
	}
	require.NoError(t, db.Create(tenant).Error)

	roles := models.DefaultTenantRoles(tenant.ID)
	require.NoError(t, db.Create(&roles).Error)
	return tenant
}

// TenantRole 查找租户内指定代码的角色
func TenantRole(t *testing.T, db *gorm.DB, tenantID, code string) *models.Role {
	t.Helper()

	var role models.Role
	require.NoError(t, db.Where("tenant_id = ? AND code = ?", tenantID, code).First(&role).Error)
	return &role
}

// GlobalAdminRole 获取或创建全局 admin 角色
func GlobalAdminRole(t *testing.T, db *gorm.DB) *models.Role {
	t.Helper()

	var role models.Role
	err := db.Where("tenant_id IS NULL AND code = ?", models.RoleAdmin).First(&role).Error
	if err == nil {
		return &role
	}
	role = models.Role{Code: models.RoleAdmin, Label: "Administrador global"}
	require.NoError(t, db.Create(&role).Error)
	return &role
}

// CreateUser 创建启用的用户，tenantID 为空表示全局用户
func CreateUser(t *testing.T, db *gorm.DB, tenantID string, role *models.Role, email, password string) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		IsActive: true,
	}
	if tenantID != "" {
		user.TenantID = &tenantID
	}
	if role != nil {
		user.RoleID = &role.ID
	}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, db.Create(user).Error)
	return user
}
