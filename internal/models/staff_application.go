package models

import (
	"time"

	"gorm.io/datatypes"
)

// StaffApplication - заявка пользователя на перевод в штатную роль
// (EMPLOYEE/SUPPLIER/DRIVER). Одобрение выполняется координатором
// смены ролей тем же транзакционным путем, что и прямая смена админом.
type StaffApplication struct {
	BaseModel
	UserID      string            `gorm:"type:uuid;not null;index" json:"userId"`
	DesiredRole UserRole          `gorm:"type:varchar(20);not null" json:"desiredRole"`
	Fields      datatypes.JSON    `json:"fields"` // роль-специфичные поля (position, companyName, ...)
	Status      ApplicationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ReviewedBy  *string           `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty"`
	Comment     string            `json:"comment"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
