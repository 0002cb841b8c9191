package repositories

import (
	"errors"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrDeviceNotFound возвращается, когда устройство не найдено
	ErrDeviceNotFound = errors.New("trusted device not found")
	// ErrDeviceAlreadyExists возвращается при повторном добавлении устройства
	ErrDeviceAlreadyExists = errors.New("trusted device already exists")
)

// TrustedDeviceRepository определяет операции над доверенными устройствами
type TrustedDeviceRepository interface {
	// Create добавляет устройство в доверенные
	Create(db *gorm.DB, device *models.TrustedDevice) error

	// Exists проверяет, доверенное ли устройство (глобально по deviceId)
	Exists(db *gorm.DB, deviceID string) (bool, error)

	// ExistsForUser проверяет, доверенное ли устройство для пользователя
	ExistsForUser(db *gorm.DB, userID, deviceID string) (bool, error)

	// DeleteForUser удаляет устройство пользователя из доверенных
	DeleteForUser(db *gorm.DB, userID, deviceID string) error

	// DeleteAllForUser удаляет все доверенные устройства (отключение 2FA)
	DeleteAllForUser(db *gorm.DB, userID string) error
}

type trustedDeviceRepository struct{}

// NewTrustedDeviceRepository создает новый экземпляр TrustedDeviceRepository
func NewTrustedDeviceRepository() TrustedDeviceRepository {
	return &trustedDeviceRepository{}
}

func (r *trustedDeviceRepository) Create(db *gorm.DB, device *models.TrustedDevice) error {
	if err := db.Create(device).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDeviceAlreadyExists
		}
		return err
	}
	return nil
}

func (r *trustedDeviceRepository) Exists(db *gorm.DB, deviceID string) (bool, error) {
	var count int64
	err := db.Model(&models.TrustedDevice{}).
		Where("device_id = ?", deviceID).
		Count(&count).Error
	return count > 0, err
}

func (r *trustedDeviceRepository) ExistsForUser(db *gorm.DB, userID, deviceID string) (bool, error) {
	var count int64
	err := db.Model(&models.TrustedDevice{}).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Count(&count).Error
	return count > 0, err
}

func (r *trustedDeviceRepository) DeleteForUser(db *gorm.DB, userID, deviceID string) error {
	result := db.Where("user_id = ? AND device_id = ?", userID, deviceID).
		Delete(&models.TrustedDevice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (r *trustedDeviceRepository) DeleteAllForUser(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.TrustedDevice{}).Error
}
