package services

import (
	"testing"
	"time"

	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/cache"
	"iceberg_backend/internal/email"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(users ...*models.User) (*AuthServiceImpl, *fakeUserRepo, *email.MockProvider) {
	userRepo := newFakeUserRepo(users...)
	emails := email.NewMockProvider()
	svc := NewAuthService(
		userRepo, nil, nil, nil,
		auth.NewTokenIssuer("test-access", "test-refresh"),
		emails, &cache.Cache{},
	).(*AuthServiceImpl)
	return svc, userRepo, emails
}

func clientUser(id, password string) *models.User {
	hash, _ := auth.HashPassword(password)
	u := &models.User{
		Email:        id + "@example.com",
		PasswordHash: hash,
		Role:         models.UserRoleClient,
	}
	u.ID = id
	return u
}

func TestRegisterInitiateRejectsWeakPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.RegisterInitiate(nil, &dto.RegisterInitiateRequest{
		Email:    "new@example.com",
		Password: "short",
		Name:     "Иван",
	})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
}

func TestRegisterInitiateRejectsTakenEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(clientUser("u1", "password-1"))

	_, err := svc.RegisterInitiate(nil, &dto.RegisterInitiateRequest{
		Email:    "u1@example.com",
		Password: "password-2",
		Name:     "Иван",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestRegisterInitiateIssuesTokenAndSendsCode(t *testing.T) {
	svc, userRepo, emails := newAuthFixture()

	resp, err := svc.RegisterInitiate(nil, &dto.RegisterInitiateRequest{
		Email:    "new@example.com",
		Password: "password-1",
		Name:     "Иван",
		Phone:    "+70000000000",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RegistrationToken)

	// Первая фаза ничего не пишет в БД
	_, err = userRepo.FindByEmail(nil, "new@example.com")
	assert.Error(t, err)

	claims, err := svc.tokens.ParseRegistrationToken(resp.RegistrationToken)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", claims.Email)
	assert.Equal(t, "Иван", claims.Name)
	assert.True(t, auth.CheckPasswordHash("password-1", claims.PasswordHash))
	assert.Regexp(t, `^\d{6}$`, claims.VerificationCode)

	// Код из письма совпадает с кодом в токене
	require.Eventually(t, func() bool {
		return emails.LastSent() != nil
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, emails.LastSent().To, "new@example.com")
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(clientUser("u1", "password-1"))

	_, err := svc.Login(nil, &dto.LoginRequest{Email: "ghost@example.com", Password: "password-1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(nil, &dto.LoginRequest{Email: "u1@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginWithTwoFactorAlwaysReturnsPendingToken(t *testing.T) {
	u := clientUser("u1", "password-1")
	u.TwoFactorEnabled = true
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	u.TwoFactorSecret = &secret
	svc, _, _ := newAuthFixture(u)

	// Логин при включенной 2FA никогда не выдает пару токенов;
	// доверенные устройства действуют только на step-up проверки
	resp, err := svc.Login(nil, &dto.LoginRequest{Email: "u1@example.com", Password: "password-1"})
	require.NoError(t, err)

	assert.True(t, resp.TwoFactorRequired)
	assert.Empty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
	require.NotEmpty(t, resp.PendingToken)

	claims, err := svc.tokens.ParseTwoFactorPendingToken(resp.PendingToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRegisterCompleteRejectsBadToken(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.RegisterComplete(nil, &dto.RegisterCompleteRequest{
		RegistrationToken: "garbage",
		Code:              "123456",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRegistrationToken)
}

func TestRegisterCompleteRejectsWrongCode(t *testing.T) {
	svc, _, _ := newAuthFixture()

	token, err := svc.tokens.IssueRegistrationToken(
		"new@example.com", "$2a$10$hash", "Иван", "", "", "123456",
	)
	require.NoError(t, err)

	_, err = svc.RegisterComplete(nil, &dto.RegisterCompleteRequest{
		RegistrationToken: token,
		Code:              "654321",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidVerificationCode)
}
