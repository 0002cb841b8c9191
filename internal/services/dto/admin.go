package dto

import (
	"time"

	"iceberg_backend/internal/models"
)

// ChangeRoleRequest - смена роли пользователя супер-администратором.
// Роль-специфичные поля нового профиля передаются вместе с ролью;
// недостающие контактные поля переносятся из старого профиля.
type ChangeRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required" validate:"is-user-role"`

	// Общие контактные поля (необязательные: при пропуске берутся из текущего профиля)
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	// EMPLOYEE
	Position string `json:"position"`

	// SUPPLIER
	CompanyName   string  `json:"companyName"`
	ContactPerson string  `json:"contactPerson"`
	INN           *string `json:"inn"`
	OGRN          *string `json:"ogrn"`
	BankAccount   *string `json:"bankAccount"`
	BIK           *string `json:"bik"`

	// DRIVER
	DistrictIDs []string `json:"districtIds"`
}

// StaffApplicationRequest - заявка пользователя на штатную роль
type StaffApplicationRequest struct {
	DesiredRole models.UserRole `json:"desiredRole" binding:"required" validate:"is-staff-role"`
	// Роль-специфичные поля будущего профиля
	Fields map[string]interface{} `json:"fields"`
}

// StaffApplicationReviewRequest - решение администратора по заявке
type StaffApplicationReviewRequest struct {
	Comment string `json:"comment"`
}

// StaffApplicationDTO - представление заявки в ответах
type StaffApplicationDTO struct {
	ID          string                   `json:"id"`
	UserID      string                   `json:"userId"`
	UserEmail   string                   `json:"userEmail,omitempty"`
	DesiredRole models.UserRole          `json:"desiredRole"`
	Fields      map[string]interface{}   `json:"fields,omitempty"`
	Status      models.ApplicationStatus `json:"status"`
	ReviewedBy  *string                  `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time               `json:"reviewedAt,omitempty"`
	Comment     string                   `json:"comment,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
}
