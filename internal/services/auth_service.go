package services

import (
	"context"
	"time"

	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/cache"
	"iceberg_backend/internal/email"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// AuthService управляет жизненным циклом учетной записи и сессий
type AuthService interface {
	// RegisterInitiate начинает двухфазную регистрацию: данные пользователя
	// упаковываются в подписанный токен, код подтверждения уходит на email.
	// В БД на этой фазе ничего не пишется.
	RegisterInitiate(db *gorm.DB, req *dto.RegisterInitiateRequest) (*dto.RegisterInitiateResponse, error)

	// RegisterComplete завершает регистрацию: проверяет код из письма
	// и материализует пользователя с клиентским профилем
	RegisterComplete(db *gorm.DB, req *dto.RegisterCompleteRequest) (*dto.LoginResponse, error)

	// Login аутентифицирует по email и паролю. При включенной 2FA
	// с недоверенного устройства возвращает временный токен вместо пары.
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)

	// Refresh ротирует refresh-токен: старый инвалидируется, выдается
	// новая пара. Повторное предъявление того же токена отклоняется.
	Refresh(db *gorm.DB, refreshToken string) (*dto.TokenPairResponse, error)

	// Logout инвалидирует refresh-сессию и заносит access-токен в черный список
	Logout(db *gorm.DB, userID, accessToken, refreshToken string) error

	// ChangePassword меняет пароль, отзывает все refresh-сессии
	// пользователя и заносит предъявленный access-токен в черный список
	ChangePassword(db *gorm.DB, userID, accessToken string, req *dto.ChangePasswordRequest) error

	// GetMe возвращает пользователя с активным профилем
	GetMe(ctx context.Context, db *gorm.DB, userID string) (*dto.UserDTO, error)
}

type AuthServiceImpl struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	sessionRepo repositories.RefreshSessionRepository
	revokedRepo repositories.RevokedTokenRepository
	tokens      *auth.TokenIssuer
	emails      email.Provider
	cache       *cache.Cache
}

func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	sessionRepo repositories.RefreshSessionRepository,
	revokedRepo repositories.RevokedTokenRepository,
	tokens *auth.TokenIssuer,
	emails email.Provider,
	userCache *cache.Cache,
) AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		revokedRepo: revokedRepo,
		tokens:      tokens,
		emails:      emails,
		cache:       userCache,
	}
}

// RegisterInitiate - первая фаза регистрации
func (s *AuthServiceImpl) RegisterInitiate(db *gorm.DB, req *dto.RegisterInitiateRequest) (*dto.RegisterInitiateResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	// Email не должен быть занят. Гонка с параллельной регистрацией
	// не страшна: уникальный индекс поймает ее на второй фазе.
	if _, err := s.userRepo.FindByEmail(db, req.Email); err == nil {
		return nil, apperrors.ErrEmailAlreadyExists
	} else if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	token, err := s.tokens.IssueRegistrationToken(req.Email, hash, req.Name, req.Phone, req.Address, code)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.sendVerificationCode(req.Email, code)

	return &dto.RegisterInitiateResponse{
		RegistrationToken: token,
		Message:           "Код подтверждения отправлен на " + req.Email,
	}, nil
}

// RegisterComplete - вторая фаза регистрации
func (s *AuthServiceImpl) RegisterComplete(db *gorm.DB, req *dto.RegisterCompleteRequest) (*dto.LoginResponse, error) {
	claims, err := s.tokens.ParseRegistrationToken(req.RegistrationToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRegistrationToken
	}

	if claims.VerificationCode != req.Code {
		return nil, apperrors.ErrInvalidVerificationCode
	}

	user := &models.User{
		Email:        claims.Email,
		PasswordHash: claims.PasswordHash,
		Role:         models.UserRoleClient,
		ClientProfile: &models.ClientProfile{
			Name:    claims.Name,
			Phone:   claims.Phone,
			Address: claims.Address,
		},
	}

	var pair *dto.TokenPairResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(tx, user); err != nil {
			if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
				return apperrors.ErrEmailAlreadyExists
			}
			return apperrors.InternalError(err)
		}
		p, err := s.issueSessionPair(tx, user)
		if err != nil {
			return err
		}
		pair = p
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

// Login - аутентификация пользователя
func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	// 2FA: пара токенов не выдается, пока код не подтвержден.
	// Доверенные устройства логин не обходят, они освобождают
	// только от step-up проверок внутри сессии.
	if user.TwoFactorEnabled {
		pending, err := s.tokens.IssueTwoFactorPendingToken(user.ID, user.Role)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return &dto.LoginResponse{
			TwoFactorRequired: true,
			PendingToken:      pending,
		}, nil
	}

	var pair *dto.TokenPairResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		p, err := s.issueSessionPair(tx, user)
		if err != nil {
			return err
		}
		pair = p
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

// Refresh - ротация refresh-токена
func (s *AuthServiceImpl) Refresh(db *gorm.DB, refreshToken string) (*dto.TokenPairResponse, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		if apperrors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(db, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	var pair *dto.TokenPairResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		// Из двух конкурентных ротаций одного токена выигрывает одна:
		// условный UPDATE вернет 0 строк проигравшей
		if _, err := s.sessionRepo.InvalidateActive(tx, refreshToken); err != nil {
			if apperrors.Is(err, repositories.ErrRefreshSessionNotFound) {
				return apperrors.ErrTokenRevoked
			}
			return apperrors.InternalError(err)
		}

		// Попутная уборка: невалидные и истекшие сессии пользователя
		if err := s.sessionRepo.DeleteStaleForUser(tx, user.ID); err != nil {
			return apperrors.InternalError(err)
		}

		p, err := s.issueSessionPair(tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout - выход из сессии
func (s *AuthServiceImpl) Logout(db *gorm.DB, userID, accessToken, refreshToken string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.InvalidateForUser(tx, refreshToken, userID); err != nil {
			if apperrors.Is(err, repositories.ErrRefreshSessionNotFound) {
				return apperrors.ErrInvalidToken
			}
			return apperrors.InternalError(err)
		}

		// Access-токен остается криптографически валидным до exp,
		// черный список закрывает это окно
		return s.blacklistAccessToken(tx, userID, accessToken)
	})
}

// ChangePassword - смена пароля
func (s *AuthServiceImpl) ChangePassword(db *gorm.DB, userID, accessToken string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.UpdatePasswordHash(tx, userID, hash); err != nil {
			return apperrors.InternalError(err)
		}
		// Все refresh-сессии отзываются: украденный до смены пароля
		// токен не должен пережить ее
		if err := s.sessionRepo.DeleteByUserID(tx, userID); err != nil {
			return apperrors.InternalError(err)
		}
		// Текущий access-токен тоже гасится досрочно
		return s.blacklistAccessToken(tx, userID, accessToken)
	})
	if err != nil {
		return err
	}

	s.invalidateUserCache(userID)
	return nil
}

// GetMe - текущий пользователь с профилем
func (s *AuthServiceImpl) GetMe(ctx context.Context, db *gorm.DB, userID string) (*dto.UserDTO, error) {
	cacheKey := "user:" + userID + ":me"

	var cached dto.UserDTO
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	user, err := s.userRepo.FindByIDWithProfiles(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	result := dto.NewUserDTO(user)
	s.cache.SetJSON(ctx, cacheKey, result, 5*time.Minute)
	return result, nil
}

// --- Helpers ---

// issueSessionPair выдает пару токенов и фиксирует refresh-сессию
func (s *AuthServiceImpl) issueSessionPair(tx *gorm.DB, user *models.User) (*dto.TokenPairResponse, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	session := &models.RefreshSession{
		UserID:    user.ID,
		Token:     refreshToken,
		IsValid:   true,
		ExpiresAt: time.Now().Add(auth.RefreshTokenTTL),
	}
	if err := s.sessionRepo.Create(tx, session); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// blacklistAccessToken заносит access-токен в черный список до его exp
func (s *AuthServiceImpl) blacklistAccessToken(tx *gorm.DB, userID, accessToken string) error {
	if accessToken == "" {
		return nil
	}

	expiresAt, ok := s.tokens.AccessTokenExpiry(accessToken)
	if !ok {
		// Токен не распарсился: срок неизвестен, запись живет сутки
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	err := s.revokedRepo.Create(tx, &models.RevokedAccessToken{
		UserID:    userID,
		Token:     accessToken,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthServiceImpl) invalidateUserCache(userID string) {
	s.cache.ClearPattern(context.Background(), "user:"+userID+":*")
}

func (s *AuthServiceImpl) sendVerificationCode(to, code string) {
	if s.emails == nil {
		return
	}
	go func() {
		if err := s.emails.SendVerificationCode(to, code); err != nil {
			logger.Error("failed to send verification email", "to", to, "error", err.Error())
		}
	}()
}
