package middleware

import (
	"iceberg_backend/internal/services"
	"iceberg_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Заголовки step-up проверки
const (
	HeaderTwoFactorToken = "X-2FA-Token"
	HeaderDeviceID       = "X-Device-ID"
)

// RequireTwoFactor - step-up проверка для чувствительных операций.
// Пользователь с включенной 2FA подтверждает операцию TOTP-кодом в
// X-2FA-Token; запрос с доверенного устройства (X-Device-ID) проходит
// без кода. Для пользователей без 2FA middleware прозрачен.
func RequireTwoFactor(twoFactorService services.TwoFactorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			apperrors.HandleError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		code := c.GetHeader(HeaderTwoFactorToken)
		deviceID := c.GetHeader(HeaderDeviceID)

		if err := twoFactorService.CheckStepUp(dbFromContext(c), userID, code, deviceID); err != nil {
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
