package repositories

import (
	"errors"
	"time"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrApplicationNotFound возвращается, когда заявка не найдена
	ErrApplicationNotFound = errors.New("staff application not found")
)

// StaffApplicationRepository определяет операции над заявками на штатные роли
type StaffApplicationRepository interface {
	// Create сохраняет новую заявку
	Create(db *gorm.DB, application *models.StaffApplication) error

	// FindByID находит заявку вместе с пользователем
	FindByID(db *gorm.DB, id string) (*models.StaffApplication, error)

	// FindPending возвращает нерассмотренные заявки
	FindPending(db *gorm.DB) ([]models.StaffApplication, error)

	// MarkReviewed фиксирует решение по заявке. Условие status=pending
	// входит в UPDATE: заявку нельзя рассмотреть дважды.
	MarkReviewed(db *gorm.DB, id string, status models.ApplicationStatus, reviewerID, comment string) error
}

type staffApplicationRepository struct{}

// NewStaffApplicationRepository создает новый экземпляр StaffApplicationRepository
func NewStaffApplicationRepository() StaffApplicationRepository {
	return &staffApplicationRepository{}
}

func (r *staffApplicationRepository) Create(db *gorm.DB, application *models.StaffApplication) error {
	return db.Create(application).Error
}

func (r *staffApplicationRepository) FindByID(db *gorm.DB, id string) (*models.StaffApplication, error) {
	var application models.StaffApplication
	if err := db.Preload("User").First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &application, nil
}

func (r *staffApplicationRepository) FindPending(db *gorm.DB) ([]models.StaffApplication, error) {
	var applications []models.StaffApplication
	err := db.Preload("User").
		Where("status = ?", models.ApplicationStatusPending).
		Order("created_at ASC").
		Find(&applications).Error
	return applications, err
}

func (r *staffApplicationRepository) MarkReviewed(db *gorm.DB, id string, status models.ApplicationStatus, reviewerID, comment string) error {
	now := time.Now()
	result := db.Model(&models.StaffApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"comment":     comment,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}
