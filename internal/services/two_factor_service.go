package services

import (
	"fmt"
	"time"

	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/email"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Размер пачки резервных кодов
const backupCodeCount = 5

// TwoFactorService управляет состоянием 2FA: настройка, step-up
// проверки, доверенные устройства и резервные коды
type TwoFactorService interface {
	// Enable генерирует секрет и provisioning-URL. 2FA становится
	// активной только после VerifySetup.
	Enable(db *gorm.DB, userID string) (*dto.TwoFactorEnableResponse, error)

	// VerifySetup подтверждает настройку кодом из аутентификатора
	// и выдает резервные коды
	VerifySetup(db *gorm.DB, userID, code string) (*dto.TwoFactorVerifySetupResponse, error)

	// VerifyLogin завершает логин по временному токену: TOTP или
	// резервный код, опционально запоминает устройство
	VerifyLogin(db *gorm.DB, req *dto.TwoFactorLoginRequest) (*dto.LoginResponse, error)

	// CheckStepUp проверяет код/устройство для защищенных операций.
	// Доверенное устройство проходит без кода.
	CheckStepUp(db *gorm.DB, userID, code, deviceID string) error

	// RequestDisable отправляет на email ссылку отключения 2FA.
	// Существование email не раскрывается.
	RequestDisable(db *gorm.DB, userEmail string) error

	// ConfirmDisable отключает 2FA по токену из письма: сбрасывает
	// секрет, доверенные устройства и резервные коды
	ConfirmDisable(db *gorm.DB, token string) error

	// AddTrustedDevice помечает устройство как доверенное
	AddTrustedDevice(db *gorm.DB, userID, deviceID string) error

	// RemoveTrustedDevice убирает устройство из доверенных
	RemoveTrustedDevice(db *gorm.DB, userID, deviceID string) error

	// RegenerateBackupCodes выпускает свежую пачку кодов, гася старые
	RegenerateBackupCodes(db *gorm.DB, userID string) (*dto.BackupCodesResponse, error)

	// RedeemBackupCode погашает резервный код (одноразово)
	RedeemBackupCode(db *gorm.DB, userID, code string) error
}

type TwoFactorServiceImpl struct {
	userRepo    repositories.UserRepository
	deviceRepo  repositories.TrustedDeviceRepository
	backupRepo  repositories.BackupCodeRepository
	sessionRepo repositories.RefreshSessionRepository
	tokens      *auth.TokenIssuer
	emails      email.Provider
	issuer      string // имя приложения в аутентификаторе
	baseURL     string
}

func NewTwoFactorService(
	userRepo repositories.UserRepository,
	deviceRepo repositories.TrustedDeviceRepository,
	backupRepo repositories.BackupCodeRepository,
	sessionRepo repositories.RefreshSessionRepository,
	tokens *auth.TokenIssuer,
	emails email.Provider,
	issuer string,
	baseURL string,
) TwoFactorService {
	return &TwoFactorServiceImpl{
		userRepo:    userRepo,
		deviceRepo:  deviceRepo,
		backupRepo:  backupRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		emails:      emails,
		issuer:      issuer,
		baseURL:     baseURL,
	}
}

// Enable - генерация секрета 2FA
func (s *TwoFactorServiceImpl) Enable(db *gorm.DB, userID string) (*dto.TwoFactorEnableResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if user.TwoFactorEnabled {
		return nil, apperrors.Conflict("twofactor", "Двухфакторная аутентификация уже включена")
	}

	secret, err := auth.GenerateTOTPSecret(s.issuer, user.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Секрет сохраняется неподтвержденным: флаг two_factor_enabled
	// поднимет только VerifySetup
	if err := s.userRepo.SetTwoFactorSecret(db, userID, secret.Secret); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.TwoFactorEnableResponse{
		Secret:     secret.Secret,
		OtpauthURL: secret.OtpauthURL,
	}, nil
}

// VerifySetup - подтверждение настройки 2FA
func (s *TwoFactorServiceImpl) VerifySetup(db *gorm.DB, userID, code string) (*dto.TwoFactorVerifySetupResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if user.TwoFactorSecret == nil {
		return nil, apperrors.ErrTwoFactorSecretMissing
	}

	if !auth.VerifyTOTPCode(*user.TwoFactorSecret, code) {
		return nil, apperrors.ErrInvalidTwoFactorCode
	}

	var plain []string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.EnableTwoFactor(tx, userID); err != nil {
			return apperrors.InternalError(err)
		}
		codes, err := s.freshBackupCodes(tx, userID)
		if err != nil {
			return err
		}
		plain = codes
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.TwoFactorVerifySetupResponse{
		BackupCodes: plain,
		Message:     "Двухфакторная аутентификация включена. Сохраните резервные коды: они показываются один раз",
	}, nil
}

// VerifyLogin - завершение логина вторым фактором
func (s *TwoFactorServiceImpl) VerifyLogin(db *gorm.DB, req *dto.TwoFactorLoginRequest) (*dto.LoginResponse, error) {
	claims, err := s.tokens.ParseTwoFactorPendingToken(req.PendingToken)
	if err != nil {
		if apperrors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.ErrChallengeExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByIDWithProfiles(db, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	switch {
	case req.Code != "":
		if user.TwoFactorSecret == nil {
			return nil, apperrors.ErrTwoFactorSecretMissing
		}
		if !auth.VerifyTOTPCode(*user.TwoFactorSecret, req.Code) {
			return nil, apperrors.ErrInvalidTwoFactorCode
		}
	case req.BackupCode != "":
		if err := s.RedeemBackupCode(db, user.ID, req.BackupCode); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.ErrTwoFactorCodeRequired
	}

	var pair *dto.TokenPairResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Role)
		if err != nil {
			return apperrors.InternalError(err)
		}
		refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if err := s.sessionRepo.Create(tx, &models.RefreshSession{
			UserID:    user.ID,
			Token:     refreshToken,
			IsValid:   true,
			ExpiresAt: time.Now().Add(auth.RefreshTokenTTL),
		}); err != nil {
			return apperrors.InternalError(err)
		}

		if req.RememberDevice && req.DeviceID != "" {
			err := s.deviceRepo.Create(tx, &models.TrustedDevice{
				UserID:   user.ID,
				DeviceID: req.DeviceID,
			})
			// Повторное доверие тому же устройству не ошибка
			if err != nil && !apperrors.Is(err, repositories.ErrDeviceAlreadyExists) {
				return apperrors.InternalError(err)
			}
		}

		pair = &dto.TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         dto.NewUserDTO(user),
	}, nil
}

// CheckStepUp - step-up проверка для защищенных операций
func (s *TwoFactorServiceImpl) CheckStepUp(db *gorm.DB, userID, code, deviceID string) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return apperrors.InternalError(err)
	}

	// Без включенной 2FA step-up не требуется
	if !user.TwoFactorEnabled {
		return nil
	}

	if deviceID != "" {
		trusted, err := s.deviceRepo.ExistsForUser(db, userID, deviceID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if trusted {
			return nil
		}
	}

	if code == "" {
		return apperrors.ErrTwoFactorCodeRequired
	}
	if user.TwoFactorSecret == nil {
		return apperrors.ErrTwoFactorSecretMissing
	}
	if !auth.VerifyTOTPCode(*user.TwoFactorSecret, code) {
		return apperrors.ErrInvalidTwoFactorCode
	}
	return nil
}

// RequestDisable - запрос отключения 2FA по email
func (s *TwoFactorServiceImpl) RequestDisable(db *gorm.DB, userEmail string) error {
	user, err := s.userRepo.FindByEmail(db, userEmail)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			// Существование email не раскрываем
			return nil
		}
		return apperrors.InternalError(err)
	}

	if !user.TwoFactorEnabled {
		return nil
	}

	token, err := s.tokens.IssueTwoFactorDisableToken(user.ID)
	if err != nil {
		return apperrors.InternalError(err)
	}

	link := fmt.Sprintf("%s/api/2fa/deactivate?token=%s", s.baseURL, token)
	s.sendDisableLink(user.Email, link)
	return nil
}

// ConfirmDisable - отключение 2FA по токену из письма
func (s *TwoFactorServiceImpl) ConfirmDisable(db *gorm.DB, token string) error {
	claims, err := s.tokens.ParseTwoFactorDisableToken(token)
	if err != nil {
		if apperrors.Is(err, auth.ErrTokenExpired) {
			return apperrors.ErrTokenExpired
		}
		return apperrors.ErrInvalidToken
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.DisableTwoFactor(tx, claims.UserID); err != nil {
			return apperrors.InternalError(err)
		}
		if err := s.deviceRepo.DeleteAllForUser(tx, claims.UserID); err != nil {
			return apperrors.InternalError(err)
		}
		if err := s.backupRepo.DeleteForUser(tx, claims.UserID); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
}

// AddTrustedDevice - добавление доверенного устройства
func (s *TwoFactorServiceImpl) AddTrustedDevice(db *gorm.DB, userID, deviceID string) error {
	err := s.deviceRepo.Create(db, &models.TrustedDevice{
		UserID:   userID,
		DeviceID: deviceID,
	})
	if err != nil {
		if apperrors.Is(err, repositories.ErrDeviceAlreadyExists) {
			return apperrors.ErrDeviceAlreadyTrusted
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// RemoveTrustedDevice - удаление доверенного устройства
func (s *TwoFactorServiceImpl) RemoveTrustedDevice(db *gorm.DB, userID, deviceID string) error {
	if err := s.deviceRepo.DeleteForUser(db, userID, deviceID); err != nil {
		if apperrors.Is(err, repositories.ErrDeviceNotFound) {
			return apperrors.ErrDeviceNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// RegenerateBackupCodes - свежая пачка резервных кодов
func (s *TwoFactorServiceImpl) RegenerateBackupCodes(db *gorm.DB, userID string) (*dto.BackupCodesResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !user.TwoFactorEnabled {
		return nil, apperrors.Conflict("twofactor", "Двухфакторная аутентификация не включена")
	}

	var plain []string
	err = db.Transaction(func(tx *gorm.DB) error {
		codes, err := s.freshBackupCodes(tx, userID)
		if err != nil {
			return err
		}
		plain = codes
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.BackupCodesResponse{BackupCodes: plain}, nil
}

// RedeemBackupCode - одноразовое погашение резервного кода
func (s *TwoFactorServiceImpl) RedeemBackupCode(db *gorm.DB, userID, code string) error {
	if err := s.backupRepo.Redeem(db, userID, code); err != nil {
		switch {
		case apperrors.Is(err, repositories.ErrBackupCodeNotFound):
			return apperrors.ErrInvalidBackupCode
		case apperrors.Is(err, repositories.ErrBackupCodeUsed):
			return apperrors.ErrBackupCodeAlreadyUsed
		default:
			return apperrors.InternalError(err)
		}
	}
	return nil
}

// freshBackupCodes гасит старые коды и создает новую пачку,
// возвращая коды открытым текстом (показываются один раз)
func (s *TwoFactorServiceImpl) freshBackupCodes(tx *gorm.DB, userID string) ([]string, error) {
	if err := s.backupRepo.DeleteForUser(tx, userID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	plain := make([]string, 0, backupCodeCount)
	batch := make([]models.BackupCode, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		code, err := auth.GenerateBackupCode()
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		plain = append(plain, code)
		batch = append(batch, models.BackupCode{UserID: userID, Code: code})
	}

	if err := s.backupRepo.CreateBatch(tx, batch); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plain, nil
}

func (s *TwoFactorServiceImpl) sendDisableLink(to, link string) {
	if s.emails == nil {
		return
	}
	go func() {
		if err := s.emails.SendTwoFactorDisableLink(to, link); err != nil {
			logger.Error("failed to send 2fa disable email", "to", to, "error", err.Error())
		}
	}()
}
