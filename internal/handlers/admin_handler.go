package handlers

import (
	"net/http"

	"iceberg_backend/internal/middleware"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/services"
	"iceberg_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	*BaseHandler
	roleService services.RoleService
}

func NewAdminHandler(base *BaseHandler, roleService services.RoleService) *AdminHandler {
	return &AdminHandler{
		BaseHandler: base,
		roleService: roleService,
	}
}

// RegisterRoutes регистрирует административные маршруты.
// roleMW ограничивает группу ролью ADMIN; проверка супер-админа
// выполняется внутри сервиса.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, stepUpMW gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(authMW, middleware.RequireRoles(models.UserRoleAdmin))
	{
		// Смена роли - чувствительная операция
		admin.PUT("/users/:userId/role", stepUpMW, h.ChangeUserRole)
	}
}

func (h *AdminHandler) ChangeUserRole(c *gin.Context) {
	actorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	targetUserID := c.Param("userId")

	var req dto.ChangeRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.roleService.ChangeUserRole(db, actorID, targetUserID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
