package handlers

import (
	"net/http"

	"tenantdesk/internal/middleware"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/pagination"
	"tenantdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

const msgClientNotFound = "Cliente no encontrado"

type ClientHandler struct {
	service *services.ClientService
}

func NewClientHandler(service *services.ClientService) *ClientHandler {
	return &ClientHandler{
		service: service,
	}
}

// List 客户列表（分页、搜索、排序）
func (h *ClientHandler) List(c *gin.Context) {
	params, err := listParams(c, services.ClientSortColumns)
	if err != nil {
		response.FromError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	clients, total, err := h.service.List(c.Request.Context(), actor.ActiveTenant, params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, clients, pagination.NewPageInfo(params.Page, params.Limit, total))
}

// Get 获取客户
func (h *ClientHandler) Get(c *gin.Context) {
	id, err := pathID(c, msgClientNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	client, err := h.service.Get(c.Request.Context(), middleware.CurrentActor(c).ActiveTenant, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, client)
}

// Create 创建客户
func (h *ClientHandler) Create(c *gin.Context) {
	var req services.CreateClientInput
	if err := bindJSON(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	client, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, client)
}

// Update 更新客户
func (h *ClientHandler) Update(c *gin.Context) {
	id, err := pathID(c, msgClientNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req services.UpdateClientInput
	if err := bindJSON(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	client, err := h.service.Update(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, client)
}

// Delete 删除客户
func (h *ClientHandler) Delete(c *gin.Context) {
	id, err := pathID(c, msgClientNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Cliente eliminado", gin.H{"id": id})
}
