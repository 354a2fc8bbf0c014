package middleware

import (
	"context"

	"tenantdesk/internal/models"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/jwt"
	"tenantdesk/pkg/tenancy"

	"github.com/gin-gonic/gin"
)

type contextKey int

const (
	claimsKey contextKey = iota
	roleKey
)

// WithClaims 保存已验证的令牌声明
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext 取出令牌声明
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// WithRole 保存已授权的角色
func WithRole(ctx context.Context, role *models.Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFromContext 取出已授权的角色
func RoleFromContext(ctx context.Context) (*models.Role, bool) {
	role, ok := ctx.Value(roleKey).(*models.Role)
	return role, ok && role != nil
}

// CurrentActor 组装当前请求的操作者
func CurrentActor(c *gin.Context) services.Actor {
	ctx := c.Request.Context()

	var actor services.Actor
	if claims, ok := ClaimsFromContext(ctx); ok {
		actor.Identity = claims.Identity
	}
	if res, ok := tenancy.FromContext(ctx); ok {
		actor.ActiveTenant = res.TenantID
	}
	if role, ok := RoleFromContext(ctx); ok {
		actor.Role = role
	}
	return actor
}

func setContext(c *gin.Context, ctx context.Context) {
	c.Request = c.Request.WithContext(ctx)
}
