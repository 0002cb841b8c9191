package repositories

import (
	"errors"

	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound возвращается, когда пользователь не найден в БД
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists возвращается при нарушении уникальности email
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository определяет операции над пользователями
type UserRepository interface {
	// Create создает пользователя (вместе с вложенным профилем, если задан)
	Create(db *gorm.DB, user *models.User) error

	// FindByID находит пользователя по id без профилей
	FindByID(db *gorm.DB, id string) (*models.User, error)

	// FindByIDWithProfiles находит пользователя со всеми профильными связями
	FindByIDWithProfiles(db *gorm.DB, id string) (*models.User, error)

	// FindByEmail находит пользователя по email
	FindByEmail(db *gorm.DB, email string) (*models.User, error)

	// UpdateRole меняет роль пользователя
	UpdateRole(db *gorm.DB, userID string, role models.UserRole) error

	// UpdatePasswordHash меняет хеш пароля
	UpdatePasswordHash(db *gorm.DB, userID, passwordHash string) error

	// SetTwoFactorSecret сохраняет неподтвержденный секрет 2FA
	SetTwoFactorSecret(db *gorm.DB, userID, secret string) error

	// EnableTwoFactor подтверждает 2FA (секрет был сохранен ранее)
	EnableTwoFactor(db *gorm.DB, userID string) error

	// DisableTwoFactor сбрасывает флаг и секрет 2FA
	DisableTwoFactor(db *gorm.DB, userID string) error
}

type userRepository struct{}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDWithProfiles(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.
		Preload("ClientProfile").
		Preload("EmployeeProfile").
		Preload("SupplierProfile").
		Preload("DriverProfile").
		Preload("DriverProfile.Districts").
		Preload("AdminProfile").
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.
		Preload("ClientProfile").
		Preload("EmployeeProfile").
		Preload("SupplierProfile").
		Preload("DriverProfile").
		Preload("AdminProfile").
		First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateRole(db *gorm.DB, userID string, role models.UserRole) error {
	return db.Model(&models.User{}).Where("id = ?", userID).Update("role", role).Error
}

func (r *userRepository) UpdatePasswordHash(db *gorm.DB, userID, passwordHash string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", passwordHash).Error
}

func (r *userRepository) SetTwoFactorSecret(db *gorm.DB, userID, secret string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).
		Update("two_factor_secret", secret).Error
}

func (r *userRepository) EnableTwoFactor(db *gorm.DB, userID string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).
		Update("two_factor_enabled", true).Error
}

func (r *userRepository) DisableTwoFactor(db *gorm.DB, userID string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"two_factor_enabled": false,
			"two_factor_secret":  nil,
		}).Error
}
