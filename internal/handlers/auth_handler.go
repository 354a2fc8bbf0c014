package handlers

import (
	"net/http"

	"tenantdesk/internal/middleware"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/authcookie"
	"tenantdesk/pkg/metrics"
	"tenantdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := bindAuthJSON(c, &req); err != nil {
		metrics.AuthRegistrationsTotal.WithLabelValues("invalid_body").Inc()
		response.FromError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "Usuario registrado con éxito", gin.H{"user": user})
}

// Login 用户登录，令牌写入 cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := bindAuthJSON(c, &req); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("invalid_body").Inc()
		response.FromError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	authcookie.Set(c, result.Token, authcookie.Options{
		MaxAge: h.authService.TokenDuration(),
		Secure: h.secureCookie,
	})
	response.Message(c, http.StatusOK, "Login exitoso", gin.H{"user": result.Identity})
}

// Logout 用户登出，没有令牌也算成功
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, ok := authcookie.Get(c.Request); ok {
		h.authService.Logout(c.Request.Context(), token)
	}

	authcookie.Clear(c, h.secureCookie)
	response.Message(c, http.StatusOK, "Logout exitoso", nil)
}

// Me 当前登录用户的令牌声明
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "No autenticado")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": claims})
}
