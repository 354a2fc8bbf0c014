package response

import (
	"net/http"

	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/logger"
	"tenantdesk/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// ========== 基础返回方法 ==========

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created 创建成功返回
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Message 返回消息及附加字段
func Message(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// SuccessWithPage 分页成功返回
func SuccessWithPage(c *gin.Context, data interface{}, pageInfo *pagination.PageInfo) {
	c.JSON(http.StatusOK, gin.H{
		"data":        data,
		"page":        pageInfo.Page,
		"limit":       pageInfo.Limit,
		"total":       pageInfo.Total,
		"total_pages": pageInfo.TotalPages,
		"has_next":    pageInfo.HasNext,
		"has_prev":    pageInfo.HasPrev,
	})
}

// Error 通用错误返回
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// ErrorWithDetails 错误返回（附带明细）
func ErrorWithDetails(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, gin.H{"error": message, "details": details})
}

// FromError 按错误分类返回，未知错误记录日志并返回500
func FromError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		logger.FromContext(c.Request.Context()).WithError(err).Error("unhandled error")
		ServerError(c, "Error interno del servidor")
		return
	}

	if appErr.Kind == apperr.KindInternal {
		logger.FromContext(c.Request.Context()).WithError(appErr).Error(appErr.Message)
	}

	if appErr.Details != nil {
		ErrorWithDetails(c, appErr.Kind.Status(), appErr.Message, appErr.Details)
		return
	}
	Error(c, appErr.Kind.Status(), appErr.Message)
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message string) {
	Error(c, apperr.CodeInvalidParam, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, apperr.CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, apperr.CodeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, apperr.CodeNotFound, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, apperr.CodeServerError, message)
}
