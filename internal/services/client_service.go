package services

import (
	"context"
	"strings"

	"tenantdesk/internal/models"
	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/pagination"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgClientNotFound    = "Cliente no encontrado"
	msgClientEmailInUse  = "Ya existe un cliente con ese email en este tenant"
	msgClientUserInvalid = "El usuario no pertenece a este tenant"
)

// CreateClientInput 创建客户参数
type CreateClientInput struct {
	Name       string  `json:"name" binding:"required,min=1,max=100"`
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	Phone      *string `json:"phone" binding:"omitempty,max=20"`
	DocumentID *string `json:"document_id" binding:"omitempty,max=50"`
	BirthDate  *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Notes      *string `json:"notes"`
	UserID     *string `json:"user_id" binding:"omitempty,uuid"`
	IsActive   *bool   `json:"is_active"`
}

// UpdateClientInput 更新客户参数，nil 字段不修改
type UpdateClientInput struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	Phone      *string `json:"phone" binding:"omitempty,max=20"`
	DocumentID *string `json:"document_id" binding:"omitempty,max=50"`
	BirthDate  *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Notes      *string `json:"notes"`
	UserID     *string `json:"user_id" binding:"omitempty,uuid"`
	IsActive   *bool   `json:"is_active"`
}

type ClientService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewClientService(db *gorm.DB, audit *AuditService) *ClientService {
	return &ClientService{db: db, audit: audit}
}

// List 当前租户的客户
func (s *ClientService) List(ctx context.Context, tenantID string, params *pagination.ListParams) ([]models.Client, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Client{}).Where("tenant_id = ?", tenantID)
	query = applySearch(query, ClientSearchColumns, params.Search)

	clients, total, err := findPage[models.Client](query, params)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list clients", err)
	}
	return clients, total, nil
}

// Get 租户内按ID查询
func (s *ClientService) Get(ctx context.Context, tenantID, id string) (*models.Client, error) {
	return getClient(s.db.WithContext(ctx), tenantID, id)
}

func getClient(tx *gorm.DB, tenantID, id string) (*models.Client, error) {
	var client models.Client
	if err := tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&client).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(msgClientNotFound)
		}
		return nil, apperr.Internal("failed to load client", err)
	}
	return &client, nil
}

// checkLinkedUser 关联的用户必须属于同一租户
func checkLinkedUser(tx *gorm.DB, tenantID string, userID *string) error {
	if userID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ? AND tenant_id = ?", *userID, tenantID).Count(&count).Error; err != nil {
		return apperr.Internal("failed to load user", err)
	}
	if count == 0 {
		return apperr.InvalidParam(msgClientUserInvalid)
	}
	return nil
}

func optionalEmail(email *string) *string {
	if email == nil {
		return nil
	}
	normalized := normalizeEmail(*email)
	if normalized == "" {
		return nil
	}
	return &normalized
}

// Create 在当前租户创建客户
func (s *ClientService) Create(ctx context.Context, actor Actor, input CreateClientInput) (*models.Client, error) {
	tenantID := actor.ActiveTenant
	client := &models.Client{
		TenantID:   tenantID,
		UserID:     normalizeOptional(input.UserID),
		Name:       strings.TrimSpace(input.Name),
		Email:      optionalEmail(input.Email),
		Phone:      normalizeOptional(input.Phone),
		DocumentID: normalizeOptional(input.DocumentID),
		BirthDate:  normalizeOptional(input.BirthDate),
		Notes:      normalizeOptional(input.Notes),
		IsActive:   true,
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		if err := checkLinkedUser(tx, tenantID, client.UserID); err != nil {
			return nil, err
		}
		if err := tx.Create(client).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, apperr.Conflict(msgClientEmailInUse)
			}
			return nil, apperr.Internal("failed to create client", err)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     actor.UserID(),
			Action:     models.ActionCreate,
			Resource:   models.ResourceClient,
			ResourceID: client.ID,
			Payload:    datatypes.JSONMap{"name": client.Name, "email": client.Email},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Update 部分更新客户
func (s *ClientService) Update(ctx context.Context, actor Actor, id string, input UpdateClientInput) (*models.Client, error) {
	tenantID := actor.ActiveTenant
	var client *models.Client

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		var err error
		if client, err = getClient(tx, tenantID, id); err != nil {
			return nil, err
		}

		delta := datatypes.JSONMap{}
		if input.Name != nil {
			client.Name = strings.TrimSpace(*input.Name)
			delta["name"] = client.Name
		}
		if input.Email != nil {
			client.Email = optionalEmail(input.Email)
			delta["email"] = client.Email
		}
		if input.Phone != nil {
			client.Phone = normalizeOptional(input.Phone)
			delta["phone"] = client.Phone
		}
		if input.DocumentID != nil {
			client.DocumentID = normalizeOptional(input.DocumentID)
			delta["document_id"] = client.DocumentID
		}
		if input.BirthDate != nil {
			client.BirthDate = normalizeOptional(input.BirthDate)
			delta["birth_date"] = client.BirthDate
		}
		if input.Notes != nil {
			client.Notes = normalizeOptional(input.Notes)
			delta["notes"] = client.Notes
		}
		if input.UserID != nil {
			client.UserID = normalizeOptional(input.UserID)
			if err := checkLinkedUser(tx, tenantID, client.UserID); err != nil {
				return nil, err
			}
			delta["user_id"] = client.UserID
		}
		if input.IsActive != nil {
			client.IsActive = *input.IsActive
			delta["is_active"] = client.IsActive
		}

		if err := tx.Save(client).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, apperr.Conflict(msgClientEmailInUse)
			}
			return nil, apperr.Internal("failed to update client", err)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     actor.UserID(),
			Action:     models.ActionUpdate,
			Resource:   models.ResourceClient,
			ResourceID: client.ID,
			Payload:    delta,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Delete 删除客户，审计记录删除前的数据
func (s *ClientService) Delete(ctx context.Context, actor Actor, id string) error {
	tenantID := actor.ActiveTenant

	return s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		client, err := getClient(tx, tenantID, id)
		if err != nil {
			return nil, err
		}

		result := tx.Where("id = ? AND tenant_id = ?", client.ID, tenantID).Delete(&models.Client{})
		if result.Error != nil {
			return nil, apperr.Internal("failed to delete client", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperr.NotFound(msgClientNotFound)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     actor.UserID(),
			Action:     models.ActionDelete,
			Resource:   models.ResourceClient,
			ResourceID: client.ID,
			Payload:    snapshot(client),
		}, nil
	})
}
