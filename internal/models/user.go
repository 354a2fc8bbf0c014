package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型，TenantID 为空表示全局用户
type User struct {
	BaseModel
	TenantID     *string    `json:"tenant_id" gorm:"type:uuid;index"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         *string    `json:"name" gorm:"size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	RoleID       *string    `json:"role_id" gorm:"type:uuid;index"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// TenantIDValue 全局用户返回空字符串
func (u *User) TenantIDValue() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

// RoleIDValue 未分配角色返回空字符串
func (u *User) RoleIDValue() string {
	if u.RoleID == nil {
		return ""
	}
	return *u.RoleID
}
