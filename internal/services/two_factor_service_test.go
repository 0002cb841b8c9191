package services

import (
	"testing"
	"time"

	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/email"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/services/dto"
	"iceberg_backend/pkg/apperrors"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwoFactorFixture(users ...*models.User) (*TwoFactorServiceImpl, *fakeUserRepo, *fakeDeviceRepo, *fakeBackupCodeRepo, *email.MockProvider) {
	userRepo := newFakeUserRepo(users...)
	deviceRepo := newFakeDeviceRepo()
	backupRepo := newFakeBackupCodeRepo()
	emails := email.NewMockProvider()
	svc := NewTwoFactorService(
		userRepo, deviceRepo, backupRepo, nil,
		auth.NewTokenIssuer("test-access", "test-refresh"),
		emails, "Iceberg", "http://localhost:4000",
	).(*TwoFactorServiceImpl)
	return svc, userRepo, deviceRepo, backupRepo, emails
}

func enabledUser(id string) *models.User {
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	u := &models.User{
		Email:            id + "@example.com",
		PasswordHash:     "$2a$10$hash",
		Role:             models.UserRoleClient,
		TwoFactorEnabled: true,
		TwoFactorSecret:  &secret,
	}
	u.ID = id
	return u
}

func TestEnableStoresUnconfirmedSecret(t *testing.T) {
	u := &models.User{Email: "u1@example.com", Role: models.UserRoleClient}
	u.ID = "u1"
	svc, userRepo, _, _, _ := newTwoFactorFixture(u)

	resp, err := svc.Enable(nil, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Secret)
	assert.Contains(t, resp.OtpauthURL, "otpauth://totp/")

	stored, err := userRepo.FindByID(nil, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored.TwoFactorSecret)
	assert.Equal(t, resp.Secret, *stored.TwoFactorSecret)
	// Флаг поднимает только verify-setup
	assert.False(t, stored.TwoFactorEnabled)
}

func TestEnableConflictsWhenAlreadyEnabled(t *testing.T) {
	svc, _, _, _, _ := newTwoFactorFixture(enabledUser("u1"))

	_, err := svc.Enable(nil, "u1")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestCheckStepUpSkippedWhenDisabled(t *testing.T) {
	u := &models.User{Email: "u1@example.com", Role: models.UserRoleClient}
	u.ID = "u1"
	svc, _, _, _, _ := newTwoFactorFixture(u)

	assert.NoError(t, svc.CheckStepUp(nil, "u1", "", ""))
}

func TestCheckStepUpTrustedDeviceBypass(t *testing.T) {
	svc, _, deviceRepo, _, _ := newTwoFactorFixture(enabledUser("u1"))
	require.NoError(t, deviceRepo.Create(nil, &models.TrustedDevice{UserID: "u1", DeviceID: "dev-1"}))

	// Доверенное устройство проходит без кода
	assert.NoError(t, svc.CheckStepUp(nil, "u1", "", "dev-1"))

	// Чужое устройство кода не отменяет
	err := svc.CheckStepUp(nil, "u1", "", "dev-unknown")
	assert.ErrorIs(t, err, apperrors.ErrTwoFactorCodeRequired)
}

func TestCheckStepUpValidatesCode(t *testing.T) {
	u := enabledUser("u1")
	svc, _, _, _, _ := newTwoFactorFixture(u)

	err := svc.CheckStepUp(nil, "u1", "", "")
	assert.ErrorIs(t, err, apperrors.ErrTwoFactorCodeRequired)

	err = svc.CheckStepUp(nil, "u1", "000000", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTwoFactorCode)

	code, err := totp.GenerateCode(*u.TwoFactorSecret, time.Now())
	require.NoError(t, err)
	assert.NoError(t, svc.CheckStepUp(nil, "u1", code, ""))
}

func TestRedeemBackupCodeSingleUse(t *testing.T) {
	svc, _, _, backupRepo, _ := newTwoFactorFixture(enabledUser("u1"))
	require.NoError(t, backupRepo.CreateBatch(nil, []models.BackupCode{
		{UserID: "u1", Code: "abc123"},
	}))

	require.NoError(t, svc.RedeemBackupCode(nil, "u1", "abc123"))

	// Повторное погашение различимо от несуществующего кода
	err := svc.RedeemBackupCode(nil, "u1", "abc123")
	assert.ErrorIs(t, err, apperrors.ErrBackupCodeAlreadyUsed)

	err = svc.RedeemBackupCode(nil, "u1", "nope99")
	assert.ErrorIs(t, err, apperrors.ErrInvalidBackupCode)

	// Код чужого пользователя не виден
	err = svc.RedeemBackupCode(nil, "u2", "abc123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidBackupCode)
}

func TestAddTrustedDeviceDuplicate(t *testing.T) {
	svc, _, _, _, _ := newTwoFactorFixture(enabledUser("u1"))

	require.NoError(t, svc.AddTrustedDevice(nil, "u1", "dev-1"))
	err := svc.AddTrustedDevice(nil, "u1", "dev-1")
	assert.ErrorIs(t, err, apperrors.ErrDeviceAlreadyTrusted)
}

func TestRemoveTrustedDeviceNotFound(t *testing.T) {
	svc, _, _, _, _ := newTwoFactorFixture(enabledUser("u1"))

	err := svc.RemoveTrustedDevice(nil, "u1", "dev-1")
	assert.ErrorIs(t, err, apperrors.ErrDeviceNotFound)
}

func TestRequestDisableDoesNotRevealEmail(t *testing.T) {
	svc, _, _, _, emails := newTwoFactorFixture(enabledUser("u1"))

	// Неизвестный email отвечает так же, как известный
	require.NoError(t, svc.RequestDisable(nil, "ghost@example.com"))
	assert.Nil(t, emails.LastSent())
}

func TestRequestDisableSendsLink(t *testing.T) {
	svc, _, _, _, emails := newTwoFactorFixture(enabledUser("u1"))

	require.NoError(t, svc.RequestDisable(nil, "u1@example.com"))

	// Письмо уходит асинхронно
	require.Eventually(t, func() bool {
		return emails.LastSent() != nil
	}, time.Second, 10*time.Millisecond)

	sent := emails.LastSent()
	assert.Equal(t, []string{"u1@example.com"}, sent.To)
	assert.Contains(t, sent.Body, "/api/2fa/deactivate?token=")
}

func TestVerifyLoginRejectsBadPendingToken(t *testing.T) {
	svc, _, _, _, _ := newTwoFactorFixture(enabledUser("u1"))

	_, err := svc.VerifyLogin(nil, &dto.TwoFactorLoginRequest{PendingToken: "garbage", Code: "123456"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerifyLoginRequiresSomeFactor(t *testing.T) {
	svc, _, _, _, _ := newTwoFactorFixture(enabledUser("u1"))

	pending, err := svc.tokens.IssueTwoFactorPendingToken("u1", models.UserRoleClient)
	require.NoError(t, err)

	_, err = svc.VerifyLogin(nil, &dto.TwoFactorLoginRequest{PendingToken: pending})
	assert.ErrorIs(t, err, apperrors.ErrTwoFactorCodeRequired)
}

func TestVerifyLoginRejectsWrongCode(t *testing.T) {
	svc, _, _, _, _ := newTwoFactorFixture(enabledUser("u1"))

	pending, err := svc.tokens.IssueTwoFactorPendingToken("u1", models.UserRoleClient)
	require.NoError(t, err)

	_, err = svc.VerifyLogin(nil, &dto.TwoFactorLoginRequest{PendingToken: pending, Code: "000000"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTwoFactorCode)
}
