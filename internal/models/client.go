package models

// Client 客户模型，同一租户内邮箱唯一
type Client struct {
	BaseModel
	TenantID   string  `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_clients_tenant_email,priority:1"`
	UserID     *string `json:"user_id" gorm:"type:uuid;index"`
	Name       string  `json:"name" gorm:"not null;size:100"`
	Email      *string `json:"email" gorm:"size:255;uniqueIndex:idx_clients_tenant_email,priority:2"`
	Phone      *string `json:"phone" gorm:"size:20"`
	DocumentID *string `json:"document_id" gorm:"size:50"`
	BirthDate  *string `json:"birth_date" gorm:"size:10"` // YYYY-MM-DD
	Notes      *string `json:"notes" gorm:"type:text"`
	IsActive   bool    `json:"is_active" gorm:"not null"`
}

// TableName 表名
func (c *Client) TableName() string {
	return "clients"
}
