package services

import (
	"testing"

	"tenantdesk/internal/models"
	"tenantdesk/internal/testutil"
	"tenantdesk/pkg/config"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture 一个租户内的常用数据
type fixture struct {
	db     *gorm.DB
	tenant *models.Tenant
	admin  *models.User
	audit  *AuditService
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	tenant := testutil.CreateTenant(t, db, "acme", true)
	adminRole := testutil.TenantRole(t, db, tenant.ID, models.RoleAdmin)
	admin := testutil.CreateUser(t, db, tenant.ID, adminRole, "admin@acme.test", "secret123")

	return &fixture{
		db:     db,
		tenant: tenant,
		admin:  admin,
		audit:  NewAuditService(db, strict),
	}
}

// actorOf 以用户身份在指定租户内操作
func actorOf(t *testing.T, db *gorm.DB, user *models.User, activeTenant string) Actor {
	t.Helper()

	actor := Actor{Identity: IdentityOf(user), ActiveTenant: activeTenant}
	if user.RoleID != nil {
		var role models.Role
		require.NoError(t, db.First(&role, "id = ?", *user.RoleID).Error)
		actor.Role = &role
	}
	return actor
}

func (f *fixture) adminActor(t *testing.T) Actor {
	return actorOf(t, f.db, f.admin, f.tenant.ID)
}

func auditCount(t *testing.T, db *gorm.DB, action, resource string) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ? AND resource = ?", action, resource).
		Count(&count).Error)
	return count
}

func strRef(s string) *string { return &s }

func boolRef(b bool) *bool { return &b }

func newTenantService(f *fixture, scope string) *TenantService {
	return NewTenantService(f.db, f.audit, config.TenancyConfig{GlobalAdminListScope: scope})
}
