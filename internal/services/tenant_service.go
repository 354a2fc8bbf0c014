package services

import (
	"context"
	"strings"

	"tenantdesk/internal/models"
	"tenantdesk/pkg/config"
	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/pagination"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgTenantNotFound = "Tenant no encontrado"
	msgSubdomainInUse = "El subdominio ya está en uso"
)

// CreateTenantInput 创建租户参数
type CreateTenantInput struct {
	Name        string  `json:"name" binding:"required,min=3,max=100"`
	Subdomain   string  `json:"subdomain" binding:"required,min=3,max=50,subdomain"`
	Domain      *string `json:"domain" binding:"omitempty,url,max=255"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Plan        string  `json:"plan" binding:"omitempty,oneof=FREE PRO ENTERPRISE"`
}

// UpdateTenantInput 更新租户参数，nil 字段不修改
type UpdateTenantInput struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=100"`
	Subdomain   *string `json:"subdomain" binding:"omitempty,min=3,max=50,subdomain"`
	Domain      *string `json:"domain" binding:"omitempty,url,max=255"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Plan        *string `json:"plan" binding:"omitempty,oneof=FREE PRO ENTERPRISE"`
	IsActive    *bool   `json:"is_active"`
}

type TenantService struct {
	db        *gorm.DB
	audit     *AuditService
	listScope string
}

func NewTenantService(db *gorm.DB, audit *AuditService, tenancy config.TenancyConfig) *TenantService {
	return &TenantService{
		db:        db,
		audit:     audit,
		listScope: tenancy.GlobalAdminListScope,
	}
}

// FindActive 查询存在且启用的租户
func (s *TenantService) FindActive(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&tenant).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(msgTenantNotFound)
		}
		return nil, apperr.Internal("failed to load tenant", err)
	}
	return &tenant, nil
}

// List 全局管理员在 all 模式下看到全部租户，其余情况只看到当前租户
func (s *TenantService) List(ctx context.Context, actor Actor, params *pagination.ListParams) ([]models.Tenant, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Tenant{})

	if !(actor.HasGlobalRole() && s.listScope == config.ListScopeAll) {
		if actor.ActiveTenant == "" {
			return []models.Tenant{}, 0, nil
		}
		query = query.Where("id = ?", actor.ActiveTenant)
	}
	query = applySearch(query, TenantSearchColumns, params.Search)

	tenants, total, err := findPage[models.Tenant](query, params)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list tenants", err)
	}
	return tenants, total, nil
}

// Get 根据ID获取租户
func (s *TenantService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	return getTenant(s.db.WithContext(ctx), id)
}

func getTenant(tx *gorm.DB, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := tx.Where("id = ?", id).First(&tenant).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(msgTenantNotFound)
		}
		return nil, apperr.Internal("failed to load tenant", err)
	}
	return &tenant, nil
}

// Create 创建租户并初始化默认角色
func (s *TenantService) Create(ctx context.Context, actor Actor, input CreateTenantInput) (*models.Tenant, error) {
	plan := input.Plan
	if plan == "" {
		plan = models.PlanFree
	}
	tenant := &models.Tenant{
		Name:        strings.TrimSpace(input.Name),
		Subdomain:   input.Subdomain,
		Domain:      normalizeOptional(input.Domain),
		Description: normalizeOptional(input.Description),
		Plan:        plan,
		IsActive:    true,
	}

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		err := tx.Transaction(func(inner *gorm.DB) error {
			if err := inner.Create(tenant).Error; err != nil {
				if isDuplicateKey(err) {
					return apperr.Conflict(msgSubdomainInUse)
				}
				return apperr.Internal("failed to create tenant", err)
			}
			roles := models.DefaultTenantRoles(tenant.ID)
			if err := inner.Create(&roles).Error; err != nil {
				return apperr.Internal("failed to create tenant roles", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		return &AuditEntry{
			TenantID:   tenant.ID,
			UserID:     actor.UserID(),
			Action:     models.ActionCreate,
			Resource:   models.ResourceTenant,
			ResourceID: tenant.ID,
			Payload:    snapshot(tenant),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Update 部分更新租户
func (s *TenantService) Update(ctx context.Context, actor Actor, id string, input UpdateTenantInput) (*models.Tenant, error) {
	var tenant *models.Tenant

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		var err error
		if tenant, err = getTenant(tx, id); err != nil {
			return nil, err
		}

		delta := datatypes.JSONMap{}
		if input.Name != nil {
			tenant.Name = strings.TrimSpace(*input.Name)
			delta["name"] = tenant.Name
		}
		if input.Subdomain != nil {
			tenant.Subdomain = *input.Subdomain
			delta["subdomain"] = tenant.Subdomain
		}
		if input.Domain != nil {
			tenant.Domain = normalizeOptional(input.Domain)
			delta["domain"] = tenant.Domain
		}
		if input.Description != nil {
			tenant.Description = normalizeOptional(input.Description)
			delta["description"] = tenant.Description
		}
		if input.Plan != nil {
			tenant.Plan = *input.Plan
			delta["plan"] = tenant.Plan
		}
		if input.IsActive != nil {
			tenant.IsActive = *input.IsActive
			delta["is_active"] = tenant.IsActive
		}

		if err := tx.Save(tenant).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, apperr.Conflict(msgSubdomainInUse)
			}
			return nil, apperr.Internal("failed to update tenant", err)
		}

		return &AuditEntry{
			TenantID:   tenant.ID,
			UserID:     actor.UserID(),
			Action:     models.ActionUpdate,
			Resource:   models.ResourceTenant,
			ResourceID: tenant.ID,
			Payload:    delta,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete 删除租户及其客户、用户、角色
func (s *TenantService) Delete(ctx context.Context, actor Actor, id string) error {
	return s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		tenant, err := getTenant(tx, id)
		if err != nil {
			return nil, err
		}

		err = tx.Transaction(func(inner *gorm.DB) error {
			for _, model := range []interface{}{&models.Client{}, &models.User{}, &models.Role{}} {
				if err := inner.Where("tenant_id = ?", tenant.ID).Delete(model).Error; err != nil {
					return err
				}
			}
			return inner.Delete(tenant).Error
		})
		if err != nil {
			return nil, apperr.Internal("failed to delete tenant", err)
		}

		return &AuditEntry{
			TenantID:   tenant.ID,
			UserID:     actor.UserID(),
			Action:     models.ActionDelete,
			Resource:   models.ResourceTenant,
			ResourceID: tenant.ID,
			Payload:    snapshot(tenant),
		}, nil
	})
}
