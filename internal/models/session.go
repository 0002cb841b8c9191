package models

import "time"

// RefreshSession - одна линия refresh-токена. Несколько активных сессий
// на пользователя допустимы (мульти-девайс). Ротация инвалидирует запись,
// повторное использование того же токена - признак replay.
type RefreshSession struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index" json:"userId"`
	Token     string    `gorm:"not null;uniqueIndex" json:"-"`
	IsValid   bool      `gorm:"default:true;index" json:"isValid"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
}

// RevokedAccessToken - черный список access-токенов, отозванных
// до истечения их собственного срока (logout, смена пароля).
type RevokedAccessToken struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index" json:"userId"`
	Token     string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
}
