package handlers

import (
	"tenantdesk/internal/middleware"
	"tenantdesk/internal/services"
	"tenantdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{
		service: service,
	}
}

// List 当前租户可用的角色
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.service.ListUsable(c.Request.Context(), middleware.CurrentActor(c).ActiveTenant)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, roles)
}
