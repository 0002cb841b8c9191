package repositories

import (
	"errors"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrProfileNotFound возвращается, когда профиль роли не найден
	ErrProfileNotFound = errors.New("profile not found")
)

// ProfileRepository определяет операции над профилями ролей.
// Один пользователь - ровно один вариант профиля; уникальный индекс
// user_id в каждой таблице не дает второму варианту зафиксироваться.
type ProfileRepository interface {
	CreateClientProfile(db *gorm.DB, profile *models.ClientProfile) error
	CreateEmployeeProfile(db *gorm.DB, profile *models.EmployeeProfile) error
	CreateSupplierProfile(db *gorm.DB, profile *models.SupplierProfile) error
	CreateDriverProfile(db *gorm.DB, profile *models.DriverProfile) error
	CreateAdminProfile(db *gorm.DB, profile *models.AdminProfile) error

	// DeleteAllForUser удаляет все варианты профиля пользователя,
	// кроме профиля супер-админа: он защищен от смены роли.
	DeleteAllForUser(db *gorm.DB, userID string) error

	// FindAdminProfile находит админ-профиль пользователя
	FindAdminProfile(db *gorm.DB, userID string) (*models.AdminProfile, error)

	// SupplierIdentifiersTaken проверяет занятость ИНН/ОГРН другим
	// пользователем (сам пользователь исключается из проверки)
	SupplierIdentifiersTaken(db *gorm.DB, excludeUserID string, inn, ogrn *string) (bool, error)
}

type profileRepository struct{}

// NewProfileRepository создает новый экземпляр ProfileRepository
func NewProfileRepository() ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) CreateClientProfile(db *gorm.DB, profile *models.ClientProfile) error {
	return db.Create(profile).Error
}

func (r *profileRepository) CreateEmployeeProfile(db *gorm.DB, profile *models.EmployeeProfile) error {
	return db.Create(profile).Error
}

func (r *profileRepository) CreateSupplierProfile(db *gorm.DB, profile *models.SupplierProfile) error {
	return db.Create(profile).Error
}

func (r *profileRepository) CreateDriverProfile(db *gorm.DB, profile *models.DriverProfile) error {
	return db.Create(profile).Error
}

func (r *profileRepository) CreateAdminProfile(db *gorm.DB, profile *models.AdminProfile) error {
	return db.Create(profile).Error
}

func (r *profileRepository) DeleteAllForUser(db *gorm.DB, userID string) error {
	if err := db.Where("user_id = ?", userID).Delete(&models.ClientProfile{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.EmployeeProfile{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.SupplierProfile{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.DriverProfile{}).Error; err != nil {
		return err
	}
	// Профиль супер-админа этим путем не удаляется и не понижается
	return db.Where("user_id = ? AND is_super_admin = ?", userID, false).
		Delete(&models.AdminProfile{}).Error
}

func (r *profileRepository) FindAdminProfile(db *gorm.DB, userID string) (*models.AdminProfile, error) {
	var profile models.AdminProfile
	if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) SupplierIdentifiersTaken(db *gorm.DB, excludeUserID string, inn, ogrn *string) (bool, error) {
	if inn == nil && ogrn == nil {
		return false, nil
	}

	query := db.Model(&models.SupplierProfile{}).Where("user_id <> ?", excludeUserID)
	switch {
	case inn != nil && ogrn != nil:
		query = query.Where("inn = ? OR ogrn = ?", *inn, *ogrn)
	case inn != nil:
		query = query.Where("inn = ?", *inn)
	default:
		query = query.Where("ogrn = ?", *ogrn)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
