package dto

// TwoFactorEnableResponse - секрет и provisioning-URL для QR кода.
// Секрет показывается ровно один раз, 2FA активируется после verify-setup.
type TwoFactorEnableResponse struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
}

// TwoFactorVerifySetupRequest - подтверждение настройки кодом из аутентификатора
type TwoFactorVerifySetupRequest struct {
	Code string `json:"code" binding:"required" validate:"is-totp-code"`
}

// TwoFactorVerifySetupResponse - 2FA включена, выданы резервные коды
type TwoFactorVerifySetupResponse struct {
	BackupCodes []string `json:"backupCodes"`
	Message     string   `json:"message"`
}

// TwoFactorLoginRequest - завершение логина: временный токен + TOTP или резервный код
type TwoFactorLoginRequest struct {
	PendingToken string `json:"pendingToken" binding:"required"`
	Code         string `json:"code"`
	BackupCode   string `json:"backupCode"`
	// Запомнить устройство как доверенное после успешной проверки
	DeviceID       string `json:"deviceId"`
	RememberDevice bool   `json:"rememberDevice"`
}

// TwoFactorDisableRequest - запрос отключения по email (ссылка в письме)
type TwoFactorDisableRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// TrustedDeviceRequest - добавление/удаление доверенного устройства
type TrustedDeviceRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// BackupCodesResponse - свежая пачка резервных кодов (старые погашены)
type BackupCodesResponse struct {
	BackupCodes []string `json:"backupCodes"`
}

// BackupCodeVerifyRequest - погашение резервного кода при step-up проверке
type BackupCodeVerifyRequest struct {
	BackupCode string `json:"backupCode" binding:"required"`
}

// MessageResponse - простой ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}
