package services

import (
	"encoding/json"

	"iceberg_backend/internal/email"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StaffApplicationService - заявки пользователей на штатные роли.
// Одобрение делегирует смену роли тому же координатору, что и
// прямое изменение роли администратором.
type StaffApplicationService interface {
	// Submit подает заявку на штатную роль
	Submit(db *gorm.DB, userID string, req *dto.StaffApplicationRequest) (*dto.StaffApplicationDTO, error)

	// ListPending возвращает нерассмотренные заявки (только админ)
	ListPending(db *gorm.DB) ([]*dto.StaffApplicationDTO, error)

	// Approve одобряет заявку и переводит пользователя в желаемую роль
	Approve(db *gorm.DB, actorID, applicationID, comment string) (*dto.StaffApplicationDTO, error)

	// Reject отклоняет заявку
	Reject(db *gorm.DB, actorID, applicationID, comment string) (*dto.StaffApplicationDTO, error)
}

type StaffApplicationServiceImpl struct {
	applicationRepo repositories.StaffApplicationRepository
	roleService     RoleService
	emails          email.Provider
}

func NewStaffApplicationService(
	applicationRepo repositories.StaffApplicationRepository,
	roleService RoleService,
	emails email.Provider,
) StaffApplicationService {
	return &StaffApplicationServiceImpl{
		applicationRepo: applicationRepo,
		roleService:     roleService,
		emails:          emails,
	}
}

// Submit - подача заявки
func (s *StaffApplicationServiceImpl) Submit(db *gorm.DB, userID string, req *dto.StaffApplicationRequest) (*dto.StaffApplicationDTO, error) {
	if !models.IsStaffRole(req.DesiredRole) {
		return nil, apperrors.ErrApplicationRoleNotStaff
	}

	var fields datatypes.JSON
	if req.Fields != nil {
		raw, err := json.Marshal(req.Fields)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		fields = datatypes.JSON(raw)
	}

	application := &models.StaffApplication{
		UserID:      userID,
		DesiredRole: req.DesiredRole,
		Fields:      fields,
		Status:      models.ApplicationStatusPending,
	}

	if err := s.applicationRepo.Create(db, application); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return newStaffApplicationDTO(application), nil
}

// ListPending - нерассмотренные заявки
func (s *StaffApplicationServiceImpl) ListPending(db *gorm.DB) ([]*dto.StaffApplicationDTO, error) {
	applications, err := s.applicationRepo.FindPending(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.StaffApplicationDTO, 0, len(applications))
	for i := range applications {
		result = append(result, newStaffApplicationDTO(&applications[i]))
	}
	return result, nil
}

// Approve - одобрение заявки с переводом в роль
func (s *StaffApplicationServiceImpl) Approve(db *gorm.DB, actorID, applicationID, comment string) (*dto.StaffApplicationDTO, error) {
	application, err := s.applicationRepo.FindByID(db, applicationID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, apperrors.ErrApplicationNotPending
	}

	changeReq, err := changeRoleRequestFromApplication(application)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// MarkReviewed первым: условный UPDATE по status=pending
		// выигрывает гонку двух одновременных решений
		if err := s.applicationRepo.MarkReviewed(tx, applicationID, models.ApplicationStatusApproved, actorID, comment); err != nil {
			if apperrors.Is(err, repositories.ErrApplicationNotFound) {
				return apperrors.ErrApplicationNotPending
			}
			return apperrors.InternalError(err)
		}

		if _, err := s.roleService.ChangeUserRole(tx, actorID, application.UserID, changeReq); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyReviewed(application, models.ApplicationStatusApproved, comment)

	return s.reload(db, applicationID)
}

// Reject - отклонение заявки
func (s *StaffApplicationServiceImpl) Reject(db *gorm.DB, actorID, applicationID, comment string) (*dto.StaffApplicationDTO, error) {
	application, err := s.applicationRepo.FindByID(db, applicationID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.applicationRepo.MarkReviewed(db, applicationID, models.ApplicationStatusRejected, actorID, comment); err != nil {
		if apperrors.Is(err, repositories.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotPending
		}
		return nil, apperrors.InternalError(err)
	}

	s.notifyReviewed(application, models.ApplicationStatusRejected, comment)

	return s.reload(db, applicationID)
}

func (s *StaffApplicationServiceImpl) reload(db *gorm.DB, applicationID string) (*dto.StaffApplicationDTO, error) {
	application, err := s.applicationRepo.FindByID(db, applicationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newStaffApplicationDTO(application), nil
}

func (s *StaffApplicationServiceImpl) notifyReviewed(application *models.StaffApplication, status models.ApplicationStatus, comment string) {
	if s.emails == nil || application.User == nil {
		return
	}
	to := application.User.Email
	role := string(application.DesiredRole)
	go func() {
		if err := s.emails.SendApplicationReviewed(to, role, string(status), comment); err != nil {
			logger.Error("failed to send application review email", "to", to, "error", err.Error())
		}
	}()
}

// changeRoleRequestFromApplication распаковывает роль-специфичные поля
// заявки в запрос смены роли
func changeRoleRequestFromApplication(application *models.StaffApplication) (*dto.ChangeRoleRequest, error) {
	req := &dto.ChangeRoleRequest{Role: application.DesiredRole}
	if len(application.Fields) == 0 {
		return req, nil
	}

	var fields struct {
		Name          string   `json:"name"`
		Phone         string   `json:"phone"`
		Address       string   `json:"address"`
		Position      string   `json:"position"`
		CompanyName   string   `json:"companyName"`
		ContactPerson string   `json:"contactPerson"`
		INN           *string  `json:"inn"`
		OGRN          *string  `json:"ogrn"`
		BankAccount   *string  `json:"bankAccount"`
		BIK           *string  `json:"bik"`
		DistrictIDs   []string `json:"districtIds"`
	}
	if err := json.Unmarshal(application.Fields, &fields); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"fields": "Поля заявки не распознаны"})
	}

	req.Name = fields.Name
	req.Phone = fields.Phone
	req.Address = fields.Address
	req.Position = fields.Position
	req.CompanyName = fields.CompanyName
	req.ContactPerson = fields.ContactPerson
	req.INN = fields.INN
	req.OGRN = fields.OGRN
	req.BankAccount = fields.BankAccount
	req.BIK = fields.BIK
	req.DistrictIDs = fields.DistrictIDs
	return req, nil
}

func newStaffApplicationDTO(application *models.StaffApplication) *dto.StaffApplicationDTO {
	d := &dto.StaffApplicationDTO{
		ID:          application.ID,
		UserID:      application.UserID,
		DesiredRole: application.DesiredRole,
		Status:      application.Status,
		ReviewedBy:  application.ReviewedBy,
		ReviewedAt:  application.ReviewedAt,
		Comment:     application.Comment,
		CreatedAt:   application.CreatedAt,
	}
	if application.User != nil {
		d.UserEmail = application.User.Email
	}
	if len(application.Fields) > 0 {
		var fields map[string]interface{}
		if err := json.Unmarshal(application.Fields, &fields); err == nil {
			d.Fields = fields
		}
	}
	return d
}
