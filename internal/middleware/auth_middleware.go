package middleware

import (
	"strings"

	"tenantdesk/internal/services"
	"tenantdesk/pkg/authcookie"
	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/jwt"
	"tenantdesk/pkg/response"
	"tenantdesk/pkg/tenancy"

	"github.com/gin-gonic/gin"
)

const (
	msgMissingToken   = "No autorizado: falta el token"
	msgTenantInactive = "No autorizado: tenant inactivo o inexistente"
	msgTenantRequired = "tenantId requerido"
)

// AuthMiddleware 认证、租户与角色中间件
type AuthMiddleware struct {
	authService   *services.AuthService
	tenantService *services.TenantService
	authorizer    *services.Authorizer
	publicPaths   map[string]struct{}
}

func NewAuthMiddleware(authService *services.AuthService, tenantService *services.TenantService, authorizer *services.Authorizer, publicPaths ...string) *AuthMiddleware {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &AuthMiddleware{
		authService:   authService,
		tenantService: tenantService,
		authorizer:    authorizer,
		publicPaths:   public,
	}
}

func (m *AuthMiddleware) isPublic(path string) bool {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	_, ok := m.publicPaths[path]
	return ok
}

// Gate 除登录、注册、登出外，所有请求必须携带有效令牌
func (m *AuthMiddleware) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, err := m.verifyCookie(c)
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		setContext(c, WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func (m *AuthMiddleware) verifyCookie(c *gin.Context) (*jwt.Claims, error) {
	token, ok := authcookie.Get(c.Request)
	if !ok {
		return nil, apperr.Unauthenticated(msgMissingToken)
	}
	return m.authService.VerifyToken(token)
}

// RequireIdentity 要求有效身份；属于租户的身份要求租户存在且启用
func (m *AuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c.Request.Context())
		if !ok {
			var err error
			if claims, err = m.verifyCookie(c); err != nil {
				response.FromError(c, err)
				c.Abort()
				return
			}
			setContext(c, WithClaims(c.Request.Context(), claims))
		}

		if !claims.IsGlobal() {
			if _, err := m.tenantService.FindActive(c.Request.Context(), claims.TenantID); err != nil {
				if apperr.IsKind(err, apperr.KindNotFound) {
					err = apperr.Unauthenticated(msgTenantInactive)
				}
				response.FromError(c, err)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// RequireTenant 解析当前租户；来自查询参数或请求头的租户必须存在且启用
func (m *AuthMiddleware) RequireTenant() gin.HandlerFunc {
	return m.resolveTenant(true)
}

// OptionalTenant 尽量解析当前租户，解析不到时继续
func (m *AuthMiddleware) OptionalTenant() gin.HandlerFunc {
	return m.resolveTenant(false)
}

func (m *AuthMiddleware) resolveTenant(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c.Request.Context())

		res, ok := tenancy.Resolve(c.Request, claims)
		if !ok {
			if required {
				response.FromError(c, apperr.TenantRequired(msgTenantRequired))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if res.FromRequest() {
			if _, err := m.tenantService.FindActive(c.Request.Context(), res.TenantID); err != nil {
				response.FromError(c, err)
				c.Abort()
				return
			}
		}

		setContext(c, tenancy.WithTenant(c.Request.Context(), res))
		c.Next()
	}
}

// RequireRole 按策略校验角色，必须在 RequireIdentity 之后使用
func (m *AuthMiddleware) RequireRole(policy services.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			response.FromError(c, apperr.Unauthenticated(msgMissingToken))
			c.Abort()
			return
		}

		var activeTenant string
		if res, ok := tenancy.FromContext(ctx); ok {
			activeTenant = res.TenantID
		}

		role, err := m.authorizer.RequireRole(ctx, claims.Identity, activeTenant, policy)
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		setContext(c, WithRole(ctx, role))
		c.Next()
	}
}
