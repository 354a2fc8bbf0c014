package handlers

import (
	"net/http"

	"tenantdesk/internal/middleware"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/pagination"
	"tenantdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

const msgTenantNotFound = "Tenant no encontrado"

type TenantHandler struct {
	service *services.TenantService
}

func NewTenantHandler(service *services.TenantService) *TenantHandler {
	return &TenantHandler{
		service: service,
	}
}

// List 租户列表
func (h *TenantHandler) List(c *gin.Context) {
	params, err := listParams(c, services.TenantSortColumns)
	if err != nil {
		response.FromError(c, err)
		return
	}

	tenants, total, err := h.service.List(c.Request.Context(), middleware.CurrentActor(c), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, tenants, pagination.NewPageInfo(params.Page, params.Limit, total))
}

// Get 获取租户
func (h *TenantHandler) Get(c *gin.Context) {
	id, err := pathID(c, msgTenantNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	tenant, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Create 创建租户
func (h *TenantHandler) Create(c *gin.Context) {
	var req services.CreateTenantInput
	if err := bindJSON(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	tenant, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, tenant)
}

// Update 更新租户
func (h *TenantHandler) Update(c *gin.Context) {
	id, err := pathID(c, msgTenantNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req services.UpdateTenantInput
	if err := bindJSON(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	tenant, err := h.service.Update(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Delete 删除租户
func (h *TenantHandler) Delete(c *gin.Context) {
	id, err := pathID(c, msgTenantNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Tenant eliminado", gin.H{"id": id})
}
