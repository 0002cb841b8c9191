package handlers

import (
	"net/http"

	"iceberg_backend/internal/services"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type TwoFactorHandler struct {
	*BaseHandler
	twoFactorService services.TwoFactorService
}

func NewTwoFactorHandler(base *BaseHandler, twoFactorService services.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{
		BaseHandler:      base,
		twoFactorService: twoFactorService,
	}
}

// RegisterRoutes регистрирует маршруты 2FA
func (h *TwoFactorHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, stepUpMW gin.HandlerFunc) {
	public := rg.Group("/2fa")
	{
		// Завершение логина вторым фактором: сессии еще нет,
		// авторизация - временный токен в теле запроса
		public.POST("/login/verify", h.VerifyLogin)

		// Отключение 2FA по email: пользователь мог потерять аутентификатор
		public.POST("/disable", h.RequestDisable)
		public.GET("/deactivate", h.ConfirmDisable)
	}

	authorized := rg.Group("/2fa")
	authorized.Use(authMW)
	{
		authorized.POST("/enable", h.Enable)
		authorized.POST("/verify-setup", h.VerifySetup)

		authorized.POST("/devices", stepUpMW, h.AddTrustedDevice)
		authorized.DELETE("/devices", stepUpMW, h.RemoveTrustedDevice)

		authorized.POST("/backup-codes/generate", stepUpMW, h.RegenerateBackupCodes)
		authorized.POST("/backup-codes/verify", h.VerifyBackupCode)
	}
}

func (h *TwoFactorHandler) Enable(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.twoFactorService.Enable(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TwoFactorHandler) VerifySetup(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.TwoFactorVerifySetupRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.twoFactorService.VerifySetup(db, userID, req.Code)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TwoFactorHandler) VerifyLogin(c *gin.Context) {
	var req dto.TwoFactorLoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.twoFactorService.VerifyLogin(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TwoFactorHandler) RequestDisable(c *gin.Context) {
	var req dto.TwoFactorDisableRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.twoFactorService.RequestDisable(db, req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	// Ответ одинаков для существующего и несуществующего email
	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Если адрес зарегистрирован и 2FA включена, письмо отправлено",
	})
}

func (h *TwoFactorHandler) ConfirmDisable(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Отсутствует параметр token"))
		return
	}

	db := h.GetDB(c)

	if err := h.twoFactorService.ConfirmDisable(db, token); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Двухфакторная аутентификация отключена"})
}

func (h *TwoFactorHandler) AddTrustedDevice(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.TrustedDeviceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.twoFactorService.AddTrustedDevice(db, userID, req.DeviceID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MessageResponse{Message: "Устройство добавлено в доверенные"})
}

func (h *TwoFactorHandler) RemoveTrustedDevice(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.TrustedDeviceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.twoFactorService.RemoveTrustedDevice(db, userID, req.DeviceID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Устройство удалено из доверенных"})
}

func (h *TwoFactorHandler) RegenerateBackupCodes(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.twoFactorService.RegenerateBackupCodes(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TwoFactorHandler) VerifyBackupCode(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.BackupCodeVerifyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.twoFactorService.RedeemBackupCode(db, userID, req.BackupCode); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Резервный код принят"})
}
