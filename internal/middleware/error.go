package middleware

import (
	"tenantdesk/pkg/logger"
	"tenantdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorHandler 错误处理中间件 - 主要处理panic
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.FromContext(c.Request.Context()).Errorf("Panic recovered: %v", err)
				response.ServerError(c, "Error interno del servidor")
				c.Abort()
			}
		}()

		c.Next()
	}
}
