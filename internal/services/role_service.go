package services

import (
	"context"

	"iceberg_backend/internal/cache"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// RoleService - координатор смены роли. Переход выполняется одной
// транзакцией: старые профили удаляются, новый создается, роль
// обновляется. Частично сменившейся роли снаружи не видно никогда.
type RoleService interface {
	// ChangeUserRole переводит пользователя в новую роль.
	// actorID должен принадлежать супер-администратору.
	ChangeUserRole(db *gorm.DB, actorID, targetUserID string, req *dto.ChangeRoleRequest) (*dto.UserDTO, error)
}

type RoleServiceImpl struct {
	userRepo     repositories.UserRepository
	profileRepo  repositories.ProfileRepository
	districtRepo repositories.DistrictRepository
	cache        *cache.Cache
}

func NewRoleService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	districtRepo repositories.DistrictRepository,
	userCache *cache.Cache,
) RoleService {
	return &RoleServiceImpl{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		districtRepo: districtRepo,
		cache:        userCache,
	}
}

// ChangeUserRole - транзакционная смена роли
func (s *RoleServiceImpl) ChangeUserRole(db *gorm.DB, actorID, targetUserID string, req *dto.ChangeRoleRequest) (*dto.UserDTO, error) {
	if !models.IsValidRole(req.Role) {
		return nil, apperrors.ErrInvalidUserRole
	}

	if err := s.requireSuperAdmin(db, actorID); err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByIDWithProfiles(db, targetUserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	// Супер-админа нельзя перевести в другую роль, даже другому
	// супер-админу: в системе всегда остается хотя бы один
	if target.AdminProfile != nil && target.AdminProfile.IsSuperAdmin {
		return nil, apperrors.NewForbiddenError("Роль супер-администратора изменить нельзя")
	}

	if req.Role == models.UserRoleSupplier {
		taken, err := s.profileRepo.SupplierIdentifiersTaken(db, targetUserID, req.INN, req.OGRN)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if taken {
			return nil, apperrors.ErrSupplierIDsConflict
		}
	}

	// Недостающие контактные поля переносятся из текущего профиля
	name, phone, address := target.ActiveProfileContacts()
	if req.Name != "" {
		name = req.Name
	}
	if req.Phone != "" {
		phone = req.Phone
	}
	if req.Address != "" {
		address = req.Address
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.profileRepo.DeleteAllForUser(tx, targetUserID); err != nil {
			return apperrors.InternalError(err)
		}

		if err := s.createProfile(tx, target, req, name, phone, address); err != nil {
			return err
		}

		if err := s.userRepo.UpdateRole(tx, targetUserID, req.Role); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
	if err != nil {
		// Уникальный индекс user_id в таблице профиля: конкурентная
		// смена роли того же пользователя откатывается целиком
		if apperrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrRoleConflict
		}
		return nil, err
	}

	s.cache.ClearPattern(context.Background(), "user:"+targetUserID+":*")

	updated, err := s.userRepo.FindByIDWithProfiles(db, targetUserID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("user role changed",
		"actor_id", actorID,
		"user_id", targetUserID,
		"role", string(req.Role),
	)

	return dto.NewUserDTO(updated), nil
}

// requireSuperAdmin проверяет, что действующий пользователь - супер-админ
func (s *RoleServiceImpl) requireSuperAdmin(db *gorm.DB, actorID string) error {
	profile, err := s.profileRepo.FindAdminProfile(db, actorID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrProfileNotFound) {
			return apperrors.ErrSuperAdminRequired
		}
		return apperrors.InternalError(err)
	}
	if !profile.IsSuperAdmin {
		return apperrors.ErrSuperAdminRequired
	}
	return nil
}

// createProfile создает профиль новой роли с валидацией обязательных полей
func (s *RoleServiceImpl) createProfile(tx *gorm.DB, target *models.User, req *dto.ChangeRoleRequest, name, phone, address string) error {
	switch req.Role {
	case models.UserRoleClient:
		return wrapCreate(s.profileRepo.CreateClientProfile(tx, &models.ClientProfile{
			UserID: target.ID, Name: name, Phone: phone, Address: address,
		}))

	case models.UserRoleEmployee:
		if req.Position == "" {
			return apperrors.ValidationError(map[string]string{"position": "Обязательное поле для роли EMPLOYEE"})
		}
		return wrapCreate(s.profileRepo.CreateEmployeeProfile(tx, &models.EmployeeProfile{
			UserID: target.ID, Name: name, Phone: phone, Address: address,
			Position: req.Position,
		}))

	case models.UserRoleSupplier:
		if req.CompanyName == "" {
			return apperrors.ValidationError(map[string]string{"companyName": "Обязательное поле для роли SUPPLIER"})
		}
		contactPerson := req.ContactPerson
		if contactPerson == "" {
			contactPerson = name
		}
		return wrapCreate(s.profileRepo.CreateSupplierProfile(tx, &models.SupplierProfile{
			UserID: target.ID, CompanyName: req.CompanyName, ContactPerson: contactPerson,
			Phone: phone, Address: address,
			INN: req.INN, OGRN: req.OGRN, BankAccount: req.BankAccount, BIK: req.BIK,
		}))

	case models.UserRoleDriver:
		// Имя водителя попадает в накладные, перенос из старого
		// профиля здесь не годится
		if req.Name == "" {
			return apperrors.ValidationError(map[string]string{"name": "Обязательное поле для роли DRIVER"})
		}
		profile := &models.DriverProfile{
			UserID: target.ID, Name: req.Name, Phone: phone, Address: address,
		}
		if len(req.DistrictIDs) > 0 {
			districts, err := s.districtRepo.FindByIDs(tx, req.DistrictIDs)
			if err != nil {
				return apperrors.InternalError(err)
			}
			if len(districts) != len(req.DistrictIDs) {
				return apperrors.ValidationError(map[string]string{"districtIds": "Часть районов не найдена"})
			}
			profile.Districts = districts
		}
		return wrapCreate(s.profileRepo.CreateDriverProfile(tx, profile))

	case models.UserRoleAdmin:
		return wrapCreate(s.profileRepo.CreateAdminProfile(tx, &models.AdminProfile{
			UserID: target.ID, Name: name, Phone: phone, Address: address,
			IsSuperAdmin: false,
		}))
	}

	return apperrors.ErrInvalidUserRole
}

func wrapCreate(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrRoleConflict
	}
	return apperrors.InternalError(err)
}
