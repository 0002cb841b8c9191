package repositories

import (
	"time"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

// RevokedTokenRepository определяет операции над черным списком access-токенов
type RevokedTokenRepository interface {
	// Create заносит access-токен в черный список
	Create(db *gorm.DB, revoked *models.RevokedAccessToken) error

	// IsRevoked проверяет, находится ли токен в действующем черном списке
	IsRevoked(db *gorm.DB, token string) (bool, error)

	// DeleteExpired удаляет записи с истекшим сроком (фоновая очистка)
	DeleteExpired(db *gorm.DB) (int64, error)
}

type revokedTokenRepository struct{}

// NewRevokedTokenRepository создает новый экземпляр RevokedTokenRepository
func NewRevokedTokenRepository() RevokedTokenRepository {
	return &revokedTokenRepository{}
}

func (r *revokedTokenRepository) Create(db *gorm.DB, revoked *models.RevokedAccessToken) error {
	return db.Create(revoked).Error
}

func (r *revokedTokenRepository) IsRevoked(db *gorm.DB, token string) (bool, error) {
	var count int64
	err := db.Model(&models.RevokedAccessToken{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count).Error
	return count > 0, err
}

func (r *revokedTokenRepository) DeleteExpired(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.RevokedAccessToken{})
	return result.RowsAffected, result.Error
}
