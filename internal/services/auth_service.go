package services

import (
	"context"
	"time"

	"tenantdesk/internal/models"
	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/jwt"
	"tenantdesk/pkg/logger"
	"tenantdesk/pkg/metrics"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "Credenciales inválidas"
	msgInactiveUser       = "Usuario inactivo"
	msgRoleNotSelectable  = "No autorizado: rol no permitido en el registro"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=72"`
	Name     *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
	TenantID *string `json:"tenant_id" binding:"omitempty,uuid"`
	RoleID   *string `json:"role_id" binding:"omitempty,uuid"`
}

// LoginInput 登录参数
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token    string
	Identity jwt.Identity
}

type AuthService struct {
	db         *gorm.DB
	audit      *AuditService
	jwtManager *jwt.JWTManager
}

func NewAuthService(db *gorm.DB, audit *AuditService, jwtManager *jwt.JWTManager) *AuthService {
	return &AuthService{
		db:         db,
		audit:      audit,
		jwtManager: jwtManager,
	}
}

// IdentityOf 用户的令牌身份
func IdentityOf(user *models.User) jwt.Identity {
	return jwt.Identity{
		ID:       user.ID,
		Email:    user.Email,
		TenantID: user.TenantIDValue(),
		RoleID:   user.RoleIDValue(),
	}
}

// Register 自助注册，只能选择租户内的默认角色
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	user := &models.User{
		Email:    normalizeEmail(input.Email),
		Name:     normalizeOptional(input.Name),
		Phone:    normalizeOptional(input.Phone),
		TenantID: normalizeOptional(input.TenantID),
		IsActive: true,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	err := s.audit.Apply(ctx, func(tx *gorm.DB) (*AuditEntry, error) {
		tenantID := user.TenantIDValue()
		if tenantID != "" {
			if err := tx.Where("id = ? AND is_active = ?", tenantID, true).First(&models.Tenant{}).Error; err != nil {
				if isNotFound(err) {
					return nil, apperr.NotFound(msgTenantNotFound)
				}
				return nil, apperr.Internal("failed to load tenant", err)
			}
		}

		role, err := s.selfAssignedRole(tx, tenantID, input.RoleID)
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
			return nil, apperr.Internal("failed to register user", err)
		}

		return &AuditEntry{
			TenantID:   tenantID,
			UserID:     user.ID,
			Action:     models.ActionRegister,
			Resource:   models.ResourceUser,
			ResourceID: user.ID,
			Payload:    datatypes.JSONMap{"email": user.Email, "role_id": user.RoleID},
		}, nil
	})
	if err != nil {
		metrics.AuthRegistrationsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.AuthRegistrationsTotal.WithLabelValues("success").Inc()
	return user, nil
}

func (s *AuthService) selfAssignedRole(tx *gorm.DB, tenantID string, roleID *string) (*models.Role, error) {
	if roleID == nil || *roleID == "" {
		if tenantID == "" {
			return nil, nil
		}
		return DefaultRole(tx, tenantID)
	}

	query := tx.Where("id = ? AND is_default = ?", *roleID, true)
	if tenantID == "" {
		query = query.Where("tenant_id IS NULL")
	} else {
		query = query.Where("tenant_id = ? OR tenant_id IS NULL", tenantID)
	}

	var role models.Role
	if err := query.First(&role).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.Forbidden(msgRoleNotSelectable)
		}
		return nil, apperr.Internal("failed to load role", err)
	}
	return &role, nil
}

// Login 校验邮箱和密码并签发令牌
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(input.Email)).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			metrics.AuthLoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, apperr.Unauthenticated(msgInvalidCredentials)
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	if !user.CheckPassword(input.Password) {
		metrics.AuthLoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}

	if !user.IsActive {
		metrics.AuthLoginsTotal.WithLabelValues("inactive").Inc()
		return nil, apperr.Forbidden(msgInactiveUser)
	}

	identity := IdentityOf(&user)
	token, err := s.jwtManager.GenerateToken(identity)
	if err != nil {
		return nil, apperr.Internal("failed to sign token", err)
	}

	// 登录时间写入失败不影响登录
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to stamp last login")
	}

	s.audit.Record(ctx, &AuditEntry{
		TenantID:   identity.TenantID,
		UserID:     identity.ID,
		Action:     models.ActionLogin,
		Resource:   models.ResourceAuth,
		ResourceID: identity.ID,
	})

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	return &LoginResult{Token: token, Identity: identity}, nil
}

// Logout 令牌有效时记录登出
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := s.jwtManager.VerifyToken(token)
	if err != nil {
		return
	}

	s.audit.Record(ctx, &AuditEntry{
		TenantID:   claims.TenantID,
		UserID:     claims.Identity.ID,
		Action:     models.ActionLogout,
		Resource:   models.ResourceAuth,
		ResourceID: claims.Identity.ID,
	})
}

// VerifyToken 验证令牌
func (s *AuthService) VerifyToken(token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.VerifyToken(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Token inválido o expirado", err)
	}
	return claims, nil
}

// TokenDuration 令牌有效期
func (s *AuthService) TokenDuration() time.Duration {
	return s.jwtManager.GetTokenDuration()
}
