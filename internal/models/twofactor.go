package models

import "time"

// TrustedDevice - устройство, с которого step-up проверка 2FA не требуется
type TrustedDevice struct {
	BaseModel
	UserID   string `gorm:"type:uuid;not null;index" json:"userId"`
	DeviceID string `gorm:"not null;uniqueIndex" json:"deviceId"`
}

// BackupCode - одноразовый резервный код 2FA.
// Повторное использование запрещено: usedAt заполняется ровно один раз.
type BackupCode struct {
	BaseModel
	UserID string     `gorm:"type:uuid;not null;index" json:"userId"`
	Code   string     `gorm:"not null;uniqueIndex" json:"-"`
	UsedAt *time.Time `json:"usedAt,omitempty"`
}
