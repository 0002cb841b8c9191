package dto

import (
	"time"

	"iceberg_backend/internal/models"
)

// RegisterInitiateRequest - первая фаза регистрации: данные пользователя
// еще не сохраняются в БД, а упаковываются в подписанный токен
type RegisterInitiateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" validate:"min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// RegisterInitiateResponse - токен регистрации, код подтверждения уходит на email
type RegisterInitiateResponse struct {
	RegistrationToken string `json:"registrationToken"`
	Message           string `json:"message"`
}

// RegisterCompleteRequest - вторая фаза: токен + код из письма
type RegisterCompleteRequest struct {
	RegistrationToken string `json:"registrationToken" binding:"required"`
	Code              string `json:"code" binding:"required" validate:"is-totp-code"`
}

// LoginRequest - запрос входа
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse - ответ на вход. Либо пара токенов, либо (при включенной
// 2FA с недоверенного устройства) временный токен незавершенного логина.
type LoginResponse struct {
	AccessToken       string   `json:"accessToken,omitempty"`
	RefreshToken      string   `json:"refreshToken,omitempty"`
	TwoFactorRequired bool     `json:"twoFactorRequired,omitempty"`
	PendingToken      string   `json:"pendingToken,omitempty"`
	User              *UserDTO `json:"user,omitempty"`
}

// RefreshRequest - запрос ротации refresh-токена
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenPairResponse - свежая пара токенов после ротации
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest - запрос выхода
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest - смена пароля при известном текущем
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required" validate:"min=8"`
}

// UserDTO - публичное представление пользователя
type UserDTO struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	Role             models.UserRole `json:"role"`
	TwoFactorEnabled bool            `json:"twoFactorEnabled"`
	CreatedAt        time.Time       `json:"createdAt"`
	Profile          interface{}     `json:"profile,omitempty"`
}

// NewUserDTO строит DTO из модели с активным профилем
func NewUserDTO(user *models.User) *UserDTO {
	d := &UserDTO{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		TwoFactorEnabled: user.TwoFactorEnabled,
		CreatedAt:        user.CreatedAt,
	}
	switch user.Role {
	case models.UserRoleClient:
		if user.ClientProfile != nil {
			d.Profile = user.ClientProfile
		}
	case models.UserRoleEmployee:
		if user.EmployeeProfile != nil {
			d.Profile = user.EmployeeProfile
		}
	case models.UserRoleSupplier:
		if user.SupplierProfile != nil {
			d.Profile = user.SupplierProfile
		}
	case models.UserRoleDriver:
		if user.DriverProfile != nil {
			d.Profile = user.DriverProfile
		}
	case models.UserRoleAdmin:
		if user.AdminProfile != nil {
			d.Profile = user.AdminProfile
		}
	}
	return d
}
