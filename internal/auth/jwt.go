package auth

import (
	"errors"
	"time"

	"iceberg_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Типы подписанных токенов
const (
	TokenTypeAccess           = "access"
	TokenTypeRefresh          = "refresh"
	TokenTypeTwoFactorPending = "2fa-pending"
	TokenTypeRegistration     = "registration"
	TokenTypeTwoFactorDisable = "2fa-disable"
)

// Сроки жизни токенов
const (
	AccessTokenTTL       = 15 * time.Minute
	RefreshTokenTTL      = 7 * 24 * time.Hour
	TwoFactorPendingTTL  = 5 * time.Minute
	RegistrationTokenTTL = 15 * time.Minute
	TwoFactorDisableTTL  = 1 * time.Hour
)

var (
	// ErrTokenExpired - подпись верна, но срок действия истек
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken - подпись не сходится, тип не совпадает или токен испорчен
	ErrInvalidToken = errors.New("invalid token")
)

// Claims - полезная нагрузка access/refresh/2fa токенов
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// RegistrationClaims - отложенный пользователь двухфазной регистрации.
// Пароль кладется уже захешированным: JWT подписан, но не зашифрован.
type RegistrationClaims struct {
	Email            string `json:"email"`
	PasswordHash     string `json:"passwordHash"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	VerificationCode string `json:"verificationCode"`
	Type             string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer подписывает и проверяет токены. Каждое семейство живет
// на своем секрете: access-семейство (access, 2fa-pending, registration,
// 2fa-disable) - на ACCESS_SECRET, refresh - на REFRESH_SECRET.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenIssuer создает эмитент с парой секретов
func NewTokenIssuer(accessSecret, refreshSecret string) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// IssueAccessToken выпускает access-токен с ролью, срок 15 минут
func (ti *TokenIssuer) IssueAccessToken(userID string, role models.UserRole) (string, error) {
	return ti.sign(ti.accessSecret, &Claims{
		UserID:           userID,
		Role:             string(role),
		Type:             TokenTypeAccess,
		RegisteredClaims: registered(AccessTokenTTL),
	})
}

// IssueRefreshToken выпускает refresh-токен, срок 7 дней.
// Вызывающий обязан сохранить его как RefreshSession с isValid=true.
func (ti *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return ti.sign(ti.refreshSecret, &Claims{
		UserID:           userID,
		Type:             TokenTypeRefresh,
		RegisteredClaims: registered(RefreshTokenTTL),
	})
}

// IssueTwoFactorPendingToken выпускает временный токен незавершенного
// логина. Секрета 2FA не содержит, срок 5 минут.
func (ti *TokenIssuer) IssueTwoFactorPendingToken(userID string, role models.UserRole) (string, error) {
	return ti.sign(ti.accessSecret, &Claims{
		UserID:           userID,
		Role:             string(role),
		Type:             TokenTypeTwoFactorPending,
		RegisteredClaims: registered(TwoFactorPendingTTL),
	})
}

// IssueTwoFactorDisableToken выпускает токен для отключения 2FA по
// ссылке из письма, срок 1 час. Активной сессии для перехода не нужно:
// пользователь мог потерять доступ к аутентификатору.
func (ti *TokenIssuer) IssueTwoFactorDisableToken(userID string) (string, error) {
	return ti.sign(ti.accessSecret, &Claims{
		UserID:           userID,
		Type:             TokenTypeTwoFactorDisable,
		RegisteredClaims: registered(TwoFactorDisableTTL),
	})
}

// IssueRegistrationToken выпускает токен двухфазной регистрации, срок 15 минут
func (ti *TokenIssuer) IssueRegistrationToken(email, passwordHash, name, phone, address, code string) (string, error) {
	claims := &RegistrationClaims{
		Email:            email,
		PasswordHash:     passwordHash,
		Name:             name,
		Phone:            phone,
		Address:          address,
		VerificationCode: code,
		Type:             TokenTypeRegistration,
		RegisteredClaims: registered(RegistrationTokenTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.accessSecret)
}

// ParseAccessToken проверяет подпись/срок/тип access-токена
func (ti *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	return ti.parse(ti.accessSecret, tokenString, TokenTypeAccess)
}

// ParseRefreshToken проверяет подпись/срок/тип refresh-токена
func (ti *TokenIssuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	return ti.parse(ti.refreshSecret, tokenString, TokenTypeRefresh)
}

// ParseTwoFactorPendingToken проверяет временный токен логина
func (ti *TokenIssuer) ParseTwoFactorPendingToken(tokenString string) (*Claims, error) {
	return ti.parse(ti.accessSecret, tokenString, TokenTypeTwoFactorPending)
}

// ParseTwoFactorDisableToken проверяет токен отключения 2FA
func (ti *TokenIssuer) ParseTwoFactorDisableToken(tokenString string) (*Claims, error) {
	return ti.parse(ti.accessSecret, tokenString, TokenTypeTwoFactorDisable)
}

// ParseRegistrationToken проверяет токен регистрации
func (ti *TokenIssuer) ParseRegistrationToken(tokenString string) (*RegistrationClaims, error) {
	claims := &RegistrationClaims{}
	if err := ti.parseInto(ti.accessSecret, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRegistration {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessTokenExpiry возвращает exp access-токена без проверки типа.
// Используется при занесении токена в черный список: запись живет
// ровно столько, сколько прожил бы сам токен.
func (ti *TokenIssuer) AccessTokenExpiry(tokenString string) (time.Time, bool) {
	claims := &Claims{}
	if err := ti.parseInto(ti.accessSecret, tokenString, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (ti *TokenIssuer) sign(secret []byte, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (ti *TokenIssuer) parse(secret []byte, tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	if err := ti.parseInto(secret, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Type != expectedType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (ti *TokenIssuer) parseInto(secret []byte, tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// registered заполняет стандартные claim'ы. jti делает каждый выпуск
// уникальным: два токена одного пользователя в одну секунду не совпадут.
func registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
