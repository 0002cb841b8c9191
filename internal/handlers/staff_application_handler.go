package handlers

import (
	"net/http"

	"iceberg_backend/internal/middleware"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/services"
	"iceberg_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type StaffApplicationHandler struct {
	*BaseHandler
	applicationService services.StaffApplicationService
}

func NewStaffApplicationHandler(base *BaseHandler, applicationService services.StaffApplicationService) *StaffApplicationHandler {
	return &StaffApplicationHandler{
		BaseHandler:        base,
		applicationService: applicationService,
	}
}

// RegisterRoutes регистрирует маршруты заявок на штатные роли
func (h *StaffApplicationHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, stepUpMW gin.HandlerFunc) {
	applications := rg.Group("/staff-applications")
	applications.Use(authMW)
	{
		applications.POST("", h.Submit)
	}

	adminApplications := rg.Group("/admin/staff-applications")
	adminApplications.Use(authMW, middleware.RequireRoles(models.UserRoleAdmin))
	{
		adminApplications.GET("", h.ListPending)
		adminApplications.POST("/:id/approve", stepUpMW, h.Approve)
		adminApplications.POST("/:id/reject", stepUpMW, h.Reject)
	}
}

func (h *StaffApplicationHandler) Submit(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StaffApplicationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.applicationService.Submit(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *StaffApplicationHandler) ListPending(c *gin.Context) {
	db := h.GetDB(c)

	response, err := h.applicationService.ListPending(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *StaffApplicationHandler) Approve(c *gin.Context) {
	actorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	// Комментарий необязателен, тело может отсутствовать
	var req dto.StaffApplicationReviewRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.applicationService.Approve(db, actorID, c.Param("id"), req.Comment)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *StaffApplicationHandler) Reject(c *gin.Context) {
	actorID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StaffApplicationReviewRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.applicationService.Reject(db, actorID, c.Param("id"), req.Comment)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
