package handlers

import (
	"errors"

	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/pagination"
	"tenantdesk/pkg/tenancy"
	"tenantdesk/pkg/validation"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidData = "Datos inválidos"
	msgInvalidSort = "Parámetro sort inválido"
)

// bindJSON 请求体格式错误返回 400，字段校验失败返回 422
func bindJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	if details := validation.Details(err); details != nil {
		return apperr.Validation(msgInvalidData).WithDetails(details)
	}
	return apperr.Wrap(apperr.KindInvalidParam, msgInvalidData, err)
}

// bindAuthJSON 认证接口的任何输入错误都返回 400
func bindAuthJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	appErr := apperr.Wrap(apperr.KindInvalidParam, msgInvalidData, err)
	if details := validation.Details(err); details != nil {
		appErr.WithDetails(details)
	}
	return appErr
}

// pathID 路径中的ID，格式不合法的ID视为不存在
func pathID(c *gin.Context, notFound string) (string, error) {
	id := c.Param("id")
	if !tenancy.IsValidID(id) {
		return "", apperr.NotFound(notFound)
	}
	return id, nil
}

// listParams 解析分页参数，未知排序列返回 422
func listParams(c *gin.Context, sortable []string) (*pagination.ListParams, error) {
	params, err := pagination.ParseListParams(c, sortable)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidSort) {
			return nil, apperr.Validation(msgInvalidSort).WithDetails(gin.H{"sort": c.Query("sort")})
		}
		return nil, apperr.Wrap(apperr.KindInvalidParam, msgInvalidData, err)
	}
	return params, nil
}
