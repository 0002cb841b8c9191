package auth

import (
	"testing"
	"time"

	"iceberg_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-access-secret", "test-refresh-secret")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ti := newTestIssuer()

	token, err := ti.IssueAccessToken("user-1", models.UserRoleClient)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ti.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, string(models.UserRoleClient), claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	ti := newTestIssuer()

	token, err := ti.IssueRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := ti.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestTokenTypeMismatchRejected(t *testing.T) {
	ti := newTestIssuer()

	access, err := ti.IssueAccessToken("user-1", models.UserRoleClient)
	require.NoError(t, err)
	refresh, err := ti.IssueRefreshToken("user-1")
	require.NoError(t, err)

	// Access-токен нельзя предъявить как refresh и наоборот
	_, err = ti.ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ti.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 2fa-pending не проходит как access
	pending, err := ti.IssueTwoFactorPendingToken("user-1", models.UserRoleClient)
	require.NoError(t, err)
	_, err = ti.ParseAccessToken(pending)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSecretRejected(t *testing.T) {
	ti := newTestIssuer()
	other := NewTokenIssuer("other-access", "other-refresh")

	token, err := other.IssueAccessToken("user-1", models.UserRoleClient)
	require.NoError(t, err)

	_, err = ti.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	ti := newTestIssuer()

	token, err := ti.IssueAccessToken("user-1", models.UserRoleClient)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = ti.ParseAccessToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegistrationTokenCarriesPendingUser(t *testing.T) {
	ti := newTestIssuer()

	token, err := ti.IssueRegistrationToken(
		"new@example.com", "$2a$10$hash", "Иван", "+70000000000", "Москва", "123456",
	)
	require.NoError(t, err)

	claims, err := ti.ParseRegistrationToken(token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", claims.Email)
	assert.Equal(t, "$2a$10$hash", claims.PasswordHash)
	assert.Equal(t, "Иван", claims.Name)
	assert.Equal(t, "123456", claims.VerificationCode)
	assert.Equal(t, TokenTypeRegistration, claims.Type)
}

func TestAccessTokenExpiry(t *testing.T) {
	ti := newTestIssuer()

	token, err := ti.IssueAccessToken("user-1", models.UserRoleClient)
	require.NoError(t, err)

	exp, ok := ti.AccessTokenExpiry(token)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), exp, 10*time.Second)

	_, ok = ti.AccessTokenExpiry("not-a-token")
	assert.False(t, ok)
}

func TestIssuedTokensAreUnique(t *testing.T) {
	ti := newTestIssuer()

	// jti гарантирует уникальность даже в одну секунду
	t1, err := ti.IssueRefreshToken("user-1")
	require.NoError(t, err)
	t2, err := ti.IssueRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}
