package router

import (
	"net/http"
	"time"

	"tenantdesk/internal/handlers"
	"tenantdesk/internal/middleware"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/config"
	"tenantdesk/pkg/jwt"
	"tenantdesk/pkg/response"
	"tenantdesk/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// 无需令牌的认证入口
const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	logoutPath   = "/api/auth/logout"
)

// Deps 路由依赖
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	JWTManager *jwt.JWTManager
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) *gin.Engine {
	validation.Register()

	router := gin.New()

	// 中间件
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(deps.Config.CORS))

	// 健康检查与监控
	router.GET("/health", healthCheck)
	router.GET("/ping", ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerRoutes(router, deps)
	return router
}

// 注册所有API路由
func registerRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config
	db := deps.DB

	auditService := services.NewAuditService(db, cfg.Audit.Strict)
	authService := services.NewAuthService(db, auditService, deps.JWTManager)
	tenantService := services.NewTenantService(db, auditService, cfg.Tenancy)
	userService := services.NewUserService(db, auditService)
	clientService := services.NewClientService(db, auditService)
	roleService := services.NewRoleService(db)
	authorizer := services.NewAuthorizer(db)

	auth := middleware.NewAuthMiddleware(authService, tenantService, authorizer, loginPath, registerPath, logoutPath)
	identity := auth.RequireIdentity()
	tenant := auth.RequireTenant()

	api := router.Group("/api")
	api.Use(auth.Gate())

	// 认证
	authHandler := handlers.NewAuthHandler(authService, cfg.Server.Production)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", identity, authHandler.Me)
	}

	// 租户：列表可按租户自我限定，其余只允许全局管理员
	tenantHandler := handlers.NewTenantHandler(tenantService)
	tenants := api.Group("/tenants", identity)
	{
		tenants.GET("", auth.OptionalTenant(), auth.RequireRole(services.PolicyAdmin), tenantHandler.List)
		tenants.POST("", auth.RequireRole(services.PolicyGlobalAdmin), tenantHandler.Create)
		tenants.GET("/:id", auth.RequireRole(services.PolicyGlobalAdmin), tenantHandler.Get)
		tenants.PUT("/:id", auth.RequireRole(services.PolicyGlobalAdmin), tenantHandler.Update)
		tenants.DELETE("/:id", auth.RequireRole(services.PolicyGlobalAdmin), tenantHandler.Delete)
	}

	// 用户
	userHandler := handlers.NewUserHandler(userService)
	users := api.Group("/users", identity, tenant)
	{
		adminOnly := auth.RequireRole(services.PolicyAdmin)
		users.GET("", adminOnly, userHandler.List)
		users.POST("", adminOnly, userHandler.Create)
		users.GET("/:id", adminOnly, userHandler.Get)
		users.PUT("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	// 客户
	clientHandler := handlers.NewClientHandler(clientService)
	clients := api.Group("/clients", identity, tenant)
	{
		adminOrOwner := auth.RequireRole(services.PolicyAdminOrOwner)
		clients.GET("", adminOrOwner, clientHandler.List)
		clients.POST("", adminOrOwner, clientHandler.Create)
		clients.GET("/:id", adminOrOwner, clientHandler.Get)
		clients.PUT("/:id", adminOrOwner, clientHandler.Update)
		clients.DELETE("/:id", auth.RequireRole(services.PolicyClientDelete), clientHandler.Delete)
	}

	// 角色
	roleHandler := handlers.NewRoleHandler(roleService)
	api.GET("/roles", identity, tenant, roleHandler.List)
}

func healthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
