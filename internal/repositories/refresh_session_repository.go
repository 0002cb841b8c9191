package repositories

import (
	"errors"
	"time"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRefreshSessionNotFound возвращается, когда валидная сессия не найдена
	ErrRefreshSessionNotFound = errors.New("refresh session not found")
)

// RefreshSessionRepository определяет операции над refresh-сессиями
type RefreshSessionRepository interface {
	// Create создает новую валидную сессию
	Create(db *gorm.DB, session *models.RefreshSession) error

	// InvalidateActive помечает сессию невалидной по значению токена.
	// Условие is_valid=true и неистекший срок входят в сам UPDATE:
	// из двух конкурентных ротаций одна получит rows=0 и проиграет.
	// Возвращает ErrRefreshSessionNotFound, если валидной сессии нет.
	InvalidateActive(db *gorm.DB, token string) (*models.RefreshSession, error)

	// InvalidateForUser помечает сессию невалидной, сверяя владельца.
	// Используется на logout: чужую сессию по подобранной строке
	// токена отозвать нельзя.
	InvalidateForUser(db *gorm.DB, token, userID string) error

	// DeleteStaleForUser удаляет невалидные и истекшие сессии пользователя
	DeleteStaleForUser(db *gorm.DB, userID string) error

	// DeleteByUserID удаляет все сессии пользователя (смена пароля)
	DeleteByUserID(db *gorm.DB, userID string) error

	// DeleteExpired удаляет все сессии с истекшим сроком (фоновая очистка)
	DeleteExpired(db *gorm.DB) (int64, error)

	// CountActiveByUserID возвращает число активных сессий пользователя
	CountActiveByUserID(db *gorm.DB, userID string) (int64, error)
}

type refreshSessionRepository struct{}

// NewRefreshSessionRepository создает новый экземпляр RefreshSessionRepository
func NewRefreshSessionRepository() RefreshSessionRepository {
	return &refreshSessionRepository{}
}

func (r *refreshSessionRepository) Create(db *gorm.DB, session *models.RefreshSession) error {
	return db.Create(session).Error
}

func (r *refreshSessionRepository) InvalidateActive(db *gorm.DB, token string) (*models.RefreshSession, error) {
	var session models.RefreshSession
	result := db.Model(&session).
		Clauses(clause.Returning{}).
		Where("token = ? AND is_valid = ? AND expires_at > ?", token, true, time.Now()).
		Update("is_valid", false)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRefreshSessionNotFound
	}
	return &session, nil
}

func (r *refreshSessionRepository) InvalidateForUser(db *gorm.DB, token, userID string) error {
	result := db.Model(&models.RefreshSession{}).
		Where("token = ? AND user_id = ?", token, userID).
		Update("is_valid", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefreshSessionNotFound
	}
	return nil
}

func (r *refreshSessionRepository) DeleteStaleForUser(db *gorm.DB, userID string) error {
	return db.
		Where("user_id = ? AND (is_valid = ? OR expires_at <= ?)", userID, false, time.Now()).
		Delete(&models.RefreshSession{}).Error
}

func (r *refreshSessionRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshSession{}).Error
}

func (r *refreshSessionRepository) DeleteExpired(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshSession{})
	return result.RowsAffected, result.Error
}

func (r *refreshSessionRepository) CountActiveByUserID(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.RefreshSession{}).
		Where("user_id = ? AND is_valid = ? AND expires_at > ?", userID, true, time.Now()).
		Count(&count).Error
	return count, err
}
