package services

import (
	"sync"
	"time"

	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"

	"gorm.io/gorm"
)

// In-memory фейки репозиториев для юнит-тестов сервисов.
// Параметр db игнорируется: транзакционные сценарии гоняются
// в интеграционных тестах против настоящего Postgres.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(db *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(db *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByIDWithProfiles(db *gorm.DB, id string) (*models.User, error) {
	return r.FindByID(db, id)
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateRole(db *gorm.DB, userID string, role models.UserRole) error {
	u, err := r.FindByID(db, userID)
	if err != nil {
		return err
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(db *gorm.DB, userID, passwordHash string) error {
	u, err := r.FindByID(db, userID)
	if err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) SetTwoFactorSecret(db *gorm.DB, userID, secret string) error {
	u, err := r.FindByID(db, userID)
	if err != nil {
		return err
	}
	u.TwoFactorSecret = &secret
	return nil
}

func (r *fakeUserRepo) EnableTwoFactor(db *gorm.DB, userID string) error {
	u, err := r.FindByID(db, userID)
	if err != nil {
		return err
	}
	u.TwoFactorEnabled = true
	return nil
}

func (r *fakeUserRepo) DisableTwoFactor(db *gorm.DB, userID string) error {
	u, err := r.FindByID(db, userID)
	if err != nil {
		return err
	}
	u.TwoFactorEnabled = false
	u.TwoFactorSecret = nil
	return nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]string // deviceID -> userID
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]string)}
}

func (r *fakeDeviceRepo) Create(db *gorm.DB, device *models.TrustedDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.DeviceID]; ok {
		return repositories.ErrDeviceAlreadyExists
	}
	r.devices[device.DeviceID] = device.UserID
	return nil
}

func (r *fakeDeviceRepo) Exists(db *gorm.DB, deviceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.devices[deviceID]
	return ok, nil
}

func (r *fakeDeviceRepo) ExistsForUser(db *gorm.DB, userID, deviceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.devices[deviceID]
	return ok && owner == userID, nil
}

func (r *fakeDeviceRepo) DeleteForUser(db *gorm.DB, userID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.devices[deviceID]; !ok || owner != userID {
		return repositories.ErrDeviceNotFound
	}
	delete(r.devices, deviceID)
	return nil
}

func (r *fakeDeviceRepo) DeleteAllForUser(db *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, owner := range r.devices {
		if owner == userID {
			delete(r.devices, id)
		}
	}
	return nil
}

type fakeBackupCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*models.BackupCode // code -> запись
}

func newFakeBackupCodeRepo() *fakeBackupCodeRepo {
	return &fakeBackupCodeRepo{codes: make(map[string]*models.BackupCode)}
}

func (r *fakeBackupCodeRepo) CreateBatch(db *gorm.DB, codes []models.BackupCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range codes {
		c := codes[i]
		r.codes[c.Code] = &c
	}
	return nil
}

func (r *fakeBackupCodeRepo) Redeem(db *gorm.DB, userID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.codes[code]
	if !ok || rec.UserID != userID {
		return repositories.ErrBackupCodeNotFound
	}
	if rec.UsedAt != nil {
		return repositories.ErrBackupCodeUsed
	}
	now := time.Now()
	rec.UsedAt = &now
	return nil
}

func (r *fakeBackupCodeRepo) DeleteForUser(db *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, rec := range r.codes {
		if rec.UserID == userID {
			delete(r.codes, code)
		}
	}
	return nil
}
