package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTOTPSecret(t *testing.T) {
	secret, err := GenerateTOTPSecret("Iceberg", "user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret.Secret)
	assert.Contains(t, secret.OtpauthURL, "otpauth://totp/")
	assert.Contains(t, secret.OtpauthURL, "Iceberg")
}

func TestVerifyTOTPCode(t *testing.T) {
	secret, err := GenerateTOTPSecret("Iceberg", "user@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret.Secret, time.Now())
	require.NoError(t, err)

	assert.True(t, VerifyTOTPCode(secret.Secret, code))
	assert.False(t, VerifyTOTPCode(secret.Secret, "000000"))
	assert.False(t, VerifyTOTPCode(secret.Secret, ""))
}

func TestVerifyTOTPCodeIgnoresSpaces(t *testing.T) {
	secret, err := GenerateTOTPSecret("Iceberg", "user@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret.Secret, time.Now())
	require.NoError(t, err)

	// Аутентификаторы показывают код как "123 456"
	spaced := code[:3] + " " + code[3:]
	assert.True(t, VerifyTOTPCode(secret.Secret, spaced))
}

func TestVerifyTOTPCodeAllowsClockSkew(t *testing.T) {
	secret, err := GenerateTOTPSecret("Iceberg", "user@example.com")
	require.NoError(t, err)

	// Код предыдущего 30-секундного окна еще принимается
	previous, err := totp.GenerateCode(secret.Secret, time.Now().Add(-30*time.Second))
	require.NoError(t, err)
	assert.True(t, VerifyTOTPCode(secret.Secret, previous))

	// А код двухминутной давности - уже нет
	stale, err := totp.GenerateCode(secret.Secret, time.Now().Add(-2*time.Minute))
	require.NoError(t, err)
	assert.False(t, VerifyTOTPCode(secret.Secret, stale))
}
