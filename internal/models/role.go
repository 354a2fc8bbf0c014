package models

// Role 角色模型，TenantID 为空表示全局角色
type Role struct {
	BaseModel
	TenantID  *string `json:"tenant_id" gorm:"type:uuid;index"`
	Code      string  `json:"code" gorm:"not null;size:50;index"`
	Label     string  `json:"label" gorm:"not null;size:100"`
	IsDefault bool    `json:"is_default" gorm:"not null"`
}

// TableName 表名
func (r *Role) TableName() string {
	return "user_roles"
}

// 预定义角色代码
const (
	RoleAdmin        = "admin"
	RoleTenantOwner  = "tenant_owner"
	RoleEmployee     = "employee"
	RoleReceptionist = "receptionist"
	RoleClient       = "client"
)

// IsGlobal 是否全局角色
func (r *Role) IsGlobal() bool {
	return r.TenantID == nil
}

// UsableIn 全局角色在任何租户可用，租户角色只在所属租户可用
func (r *Role) UsableIn(tenantID string) bool {
	return r.TenantID == nil || *r.TenantID == tenantID
}

// DefaultTenantRoles 新建租户时创建的角色，client 为默认角色
func DefaultTenantRoles(tenantID string) []Role {
	scoped := func(code, label string, isDefault bool) Role {
		id := tenantID
		return Role{TenantID: &id, Code: code, Label: label, IsDefault: isDefault}
	}
	return []Role{
		scoped(RoleAdmin, "Administrador", false),
		scoped(RoleTenantOwner, "Propietario", false),
		scoped(RoleEmployee, "Empleado", false),
		scoped(RoleReceptionist, "Recepcionista", false),
		scoped(RoleClient, "Cliente", true),
	}
}
