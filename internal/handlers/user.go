package handlers

import (
	"net/http"

	"tenantdesk/internal/middleware"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/pagination"
	"tenantdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

const msgUserNotFound = "Usuario no encontrado"

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// List 用户列表（分页、搜索、排序）
func (h *UserHandler) List(c *gin.Context) {
	params, err := listParams(c, services.UserSortColumns)
	if err != nil {
		response.FromError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	users, total, err := h.service.List(c.Request.Context(), actor.ActiveTenant, params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, users, pagination.NewPageInfo(params.Page, params.Limit, total))
}

// Get 获取用户
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, msgUserNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	user, err := h.service.Get(c.Request.Context(), middleware.CurrentActor(c).ActiveTenant, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, user)
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	user, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, user)
}

// Update 更新用户
func (h *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, msgUserNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req services.UpdateUserInput
	if err := bindJSON(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, user)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, msgUserNotFound)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Usuario eliminado", gin.H{"id": id})
}
