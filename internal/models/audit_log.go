package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog 审计日志，只追加不修改
type AuditLog struct {
	ID         string            `json:"id" gorm:"primaryKey;type:uuid"`
	TenantID   *string           `json:"tenant_id" gorm:"type:uuid;index"`
	UserID     *string           `json:"user_id" gorm:"type:uuid;index"`
	Action     string            `json:"action" gorm:"not null;size:20;index"`
	Resource   string            `json:"resource" gorm:"not null;size:50"`
	ResourceID *string           `json:"resource_id" gorm:"size:36"`
	Payload    datatypes.JSONMap `json:"payload"`
	CreatedAt  time.Time         `json:"created_at" gorm:"index"`
}

// TableName 表名
func (a *AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate 生成主键
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// 审计动作
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionRegister = "REGISTER"
	ActionLogin    = "LOGIN"
	ActionLogout   = "LOGOUT"
)

// 审计资源名
const (
	ResourceTenant = "tenant"
	ResourceUser   = "user"
	ResourceClient = "client"
	ResourceAuth   = "auth"
)
