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
	msgUserNotFound     = "Usuario no encontrado"
	msgEmailInUse       = "El email ya está registrado"
	msgTenantIDReadOnly = "No se permite modificar el tenant_id"
)

// CreateUserInput 创建用户参数
type CreateUserInput struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=72"`
	Name     *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
	RoleID   *string `json:"role_id" binding:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUserInput 更新用户参数，nil 字段不修改；tenant_id 只用于拒绝修改
type UpdateUserInput struct {
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
	Name     *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
	RoleID   *string `json:"role_id" binding:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
	TenantID *string `json:"tenant_id"`
}

type UserService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewUserService(db *gorm.DB, audit *AuditService) *UserService {
	return &UserService{db: db, audit: audit}
}

// List 当前租户的用户
func (s *UserService) List(ctx context.Context, tenantID string, params *pagination.ListParams) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("tenant_id = ?", tenantID)
	query = applySearch(query, UserSearchColumns, params.Search)

	users, total, err := findPage[models.User](query, params)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list users", err)
	}
	return users, total, nil
}

// Get 租户内按ID查询，其他租户的用户视为不存在
func (s *UserService) Get(ctx context.Context, tenantID, id string) (*models.User, error) {
	return getUser(s.db.WithContext(ctx), tenantID, id)
}

func getUser(tx *gorm.DB, tenantID, id string) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return &user, nil
}

// Create 在当前租户创建用户，未指定角色时使用租户默认角色
func (s *UserService) Create(ctx context.Context, actor Actor, input CreateUserInput) (*models.User, error) {
	tenantID := actor.ActiveTenant
	user := &models.User{
		TenantID: &tenantID,
		Email:    normalizeEmail(input.Email),
		Name:     normalizeOptional(input.Name),
		Phone:    normalizeOptional(input.Phone),
		IsActive: true,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		role, err := s.roleFor(tx, tenantID, input.RoleID, &actor)
		if err != nil {
			return nil, err
		}
		if role != nil {
			user.RoleID = &role.ID
		}

		if err := tx.Create(user).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, apperr.Conflict(msgEmailInUse)
			}
			return nil, apperr.Internal("failed to create user", err)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     actor.UserID(),
			Action:     models.ActionCreate,
			Resource:   models.ResourceUser,
			ResourceID: user.ID,
			Payload:    snapshot(user),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) roleFor(tx *gorm.DB, tenantID string, roleID *string, actor *Actor) (*models.Role, error) {
	if roleID != nil && *roleID != "" {
		return ResolveAssignable(tx, tenantID, *roleID, actor)
	}
	return DefaultRole(tx, tenantID)
}

// Update 部分更新用户，密码总是重新哈希，审计只记录变化的字段
func (s *UserService) Update(ctx context.Context, actor Actor, id string, input UpdateUserInput) (*models.User, error) {
	if input.TenantID != nil {
		return nil, apperr.InvalidParam(msgTenantIDReadOnly)
	}

	tenantID := actor.ActiveTenant
	var user *models.User

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		var err error
		if user, err = getUser(tx, tenantID, id); err != nil {
			return nil, err
		}
		if err := ensureManageable(tx, user, &actor); err != nil {
			return nil, err
		}

		delta := datatypes.JSONMap{}
		if input.Email != nil {
			user.Email = normalizeEmail(*input.Email)
			delta["email"] = user.Email
		}
		if input.Name != nil {
			user.Name = normalizeOptional(input.Name)
			delta["name"] = user.Name
		}
		if input.Phone != nil {
			user.Phone = normalizeOptional(input.Phone)
			delta["phone"] = user.Phone
		}
		if input.IsActive != nil {
			user.IsActive = *input.IsActive
			delta["is_active"] = user.IsActive
		}
		if input.RoleID != nil {
			role, err := ResolveAssignable(tx, tenantID, strings.TrimSpace(*input.RoleID), &actor)
			if err != nil {
				return nil, err
			}
			user.RoleID = &role.ID
			delta["role_id"] = role.ID
		}
		if input.Password != nil {
			if err := user.SetPassword(*input.Password); err != nil {
				return nil, apperr.Internal("failed to hash password", err)
			}
			delta["password_changed"] = true
		}

		if err := tx.Save(user).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, apperr.Conflict(msgEmailInUse)
			}
			return nil, apperr.Internal("failed to update user", err)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     actor.UserID(),
			Action:     models.ActionUpdate,
			Resource:   models.ResourceUser,
			ResourceID: user.ID,
			Payload:    delta,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete 删除用户，审计记录删除前的数据
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	tenantID := actor.ActiveTenant

	return s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		user, err := getUser(tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if err := ensureManageable(tx, user, &actor); err != nil {
			return nil, err
		}

		result := tx.Where("id = ? AND tenant_id = ?", user.ID, tenantID).Delete(&models.User{})
		if result.Error != nil {
			return nil, apperr.Internal("failed to delete user", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperr.NotFound(msgUserNotFound)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     actor.UserID(),
			Action:     models.ActionDelete,
			Resource:   models.ResourceUser,
			ResourceID: user.ID,
			Payload:    snapshot(user),
		}, nil
	})
}
