package models

// Tenant 租户模型
type Tenant struct {
	BaseModel
	Name        string  `json:"name" gorm:"not null;size:100"`
	Subdomain   string  `json:"subdomain" gorm:"uniqueIndex;not null;size:63"`
	Domain      *string `json:"domain" gorm:"size:255"`
	Description *string `json:"description" gorm:"size:500"`
	Plan        string  `json:"plan" gorm:"not null;size:20"`
	IsActive    bool    `json:"is_active" gorm:"not null"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 租户套餐
const (
	PlanFree       = "FREE"
	PlanPro        = "PRO"
	PlanEnterprise = "ENTERPRISE"
)
