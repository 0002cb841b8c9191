package repositories

import (
	"errors"
	"time"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrBackupCodeNotFound возвращается, когда код не существует
	ErrBackupCodeNotFound = errors.New("backup code not found")
	// ErrBackupCodeUsed возвращается при повторном использовании кода
	ErrBackupCodeUsed = errors.New("backup code already used")
)

// BackupCodeRepository определяет операции над резервными кодами 2FA
type BackupCodeRepository interface {
	// CreateBatch сохраняет пачку свежих кодов
	CreateBatch(db *gorm.DB, codes []models.BackupCode) error

	// Redeem погашает код ровно один раз. Условие used_at IS NULL
	// входит в UPDATE: из N конкурентных попыток выигрывает одна,
	// остальные получают ErrBackupCodeUsed.
	Redeem(db *gorm.DB, userID, code string) error

	// DeleteForUser удаляет все коды пользователя (перегенерация, отключение 2FA)
	DeleteForUser(db *gorm.DB, userID string) error
}

type backupCodeRepository struct{}

// NewBackupCodeRepository создает новый экземпляр BackupCodeRepository
func NewBackupCodeRepository() BackupCodeRepository {
	return &backupCodeRepository{}
}

func (r *backupCodeRepository) CreateBatch(db *gorm.DB, codes []models.BackupCode) error {
	return db.Create(&codes).Error
}

func (r *backupCodeRepository) Redeem(db *gorm.DB, userID, code string) error {
	var existing models.BackupCode
	if err := db.First(&existing, "user_id = ? AND code = ?", userID, code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBackupCodeNotFound
		}
		return err
	}

	result := db.Model(&models.BackupCode{}).
		Where("user_id = ? AND code = ? AND used_at IS NULL", userID, code).
		Update("used_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Код существует, но уже погашен (возможно, конкурентным запросом)
		return ErrBackupCodeUsed
	}
	return nil
}

func (r *backupCodeRepository) DeleteForUser(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.BackupCode{}).Error
}
