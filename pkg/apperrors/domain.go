package apperrors

import (
	"net/http"
)

// Предопределенные ошибки подсистемы сессий, 2FA и ролей.
// Сообщения аутентификации намеренно общие - детали причины отказа
// не раскрываются клиенту (анти-oracle), различие остается в логах.

var (
	// Аутентификация
	ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Неверный email или пароль", http.StatusUnauthorized)
	ErrUnauthorized       = New(CodeUnauthorized, "auth", "Требуется аутентификация", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "auth", "Доступ запрещен", http.StatusForbidden)
	ErrInvalidToken       = New(CodeInvalidToken, "auth", "Недействительный токен", http.StatusUnauthorized)
	ErrTokenExpired       = New(CodeTokenExpired, "auth", "Срок действия токена истек", http.StatusUnauthorized)
	ErrTokenRevoked       = New(CodeUnauthorized, "auth", "Токен недействителен", http.StatusUnauthorized)

	// Пользователи
	ErrUserNotFound       = New(CodeNotFound, "user", "Пользователь не найден", http.StatusNotFound)
	ErrEmailAlreadyExists = New(CodeAlreadyExists, "user", "Пользователь с таким email уже существует", http.StatusConflict)
	ErrWeakPassword       = New(CodeValidationFailed, "user", "Пароль должен содержать не менее 8 символов", http.StatusBadRequest)
	ErrInvalidUserRole    = New(CodeValidationFailed, "user", "Недопустимая роль", http.StatusBadRequest)

	// Регистрация
	ErrInvalidVerificationCode = New(CodeValidationFailed, "registration", "Неверный код подтверждения", http.StatusBadRequest)
	ErrInvalidRegistrationToken = New(CodeInvalidToken, "registration", "Недействительный или истекший токен регистрации", http.StatusBadRequest)

	// 2FA
	ErrTwoFactorSecretMissing = New(CodeInvalidOperation, "twofactor", "Секрет 2FA не найден", http.StatusBadRequest)
	ErrInvalidTwoFactorCode   = New(CodeValidationFailed, "twofactor", "Неверный код подтверждения", http.StatusBadRequest)
	ErrTwoFactorCodeRequired  = New(CodeForbidden, "twofactor", "Требуется 2FA токен", http.StatusForbidden)
	ErrChallengeExpired       = New(CodeTokenExpired, "twofactor", "Время действия кода подтверждения истекло. Пожалуйста, войдите снова", http.StatusUnauthorized)
	ErrDeviceAlreadyTrusted   = New(CodeAlreadyExists, "twofactor", "Это устройство уже доверенное", http.StatusConflict)
	ErrDeviceNotFound         = New(CodeNotFound, "twofactor", "Устройство не найдено", http.StatusNotFound)
	ErrInvalidBackupCode      = New(CodeValidationFailed, "twofactor", "Неверный резервный код", http.StatusBadRequest)
	ErrBackupCodeAlreadyUsed  = New(CodeConflict, "twofactor", "Этот код уже использовался", http.StatusConflict)

	// Роли
	ErrSuperAdminRequired  = New(CodeForbidden, "role", "Только супер-администратор может изменять роли пользователей", http.StatusForbidden)
	ErrSupplierIDsConflict = New(CodeConflict, "role", "Поставщик с таким ИНН или ОГРН уже существует", http.StatusConflict)
	ErrRoleConflict        = New(CodeConflict, "role", "Роль пользователя уже изменяется", http.StatusConflict)

	// Заявки
	ErrApplicationNotFound     = New(CodeNotFound, "application", "Заявка не найдена", http.StatusNotFound)
	ErrApplicationNotPending   = New(CodeInvalidStatus, "application", "Заявка уже рассмотрена", http.StatusConflict)
	ErrApplicationRoleNotStaff = New(CodeValidationFailed, "application", "Заявку можно подать только на штатную роль", http.StatusBadRequest)
)

// NotFound создает 404 для произвольного ресурса
func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource, resource+" not found", http.StatusNotFound)
}

// Conflict создает 409 с доменом и сообщением
func Conflict(domain, message string) *AppError {
	return New(CodeConflict, domain, message, http.StatusConflict)
}
