package integration_test

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"iceberg_backend/internal/auth"
	"iceberg_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistrationFlow - двухфазная регистрация от начала до /me
func TestRegistrationFlow(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	email := helpers.UniqueEmail("reg")

	// Фаза 1: код уходит на email, в ответе подписанный токен
	res, body := ts.SendRequest(t, "POST", "/api/auth/register/initiate", "", map[string]interface{}{
		"email":    email,
		"password": helpers.TestPassword,
		"name":     "Новый Клиент",
		"phone":    "+70000000001",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var initiate struct {
		RegistrationToken string `json:"registrationToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &initiate))
	require.NotEmpty(t, initiate.RegistrationToken)

	// До завершения пользователь не существует
	loginRes, _ := ts.SendRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": helpers.TestPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, loginRes.StatusCode)

	// Код подтверждения достаем из токена теми же секретами
	issuer := auth.NewTokenIssuer(ts.Config.JWT.AccessSecret, ts.Config.JWT.RefreshSecret)
	claims, err := issuer.ParseRegistrationToken(initiate.RegistrationToken)
	require.NoError(t, err)

	// Неверный код отклоняется
	badRes, _ := ts.SendRequest(t, "POST", "/api/auth/register/complete", "", map[string]interface{}{
		"registrationToken": initiate.RegistrationToken,
		"code":              wrongCode(claims.VerificationCode),
	})
	assert.Equal(t, http.StatusBadRequest, badRes.StatusCode)

	// Фаза 2: пользователь материализуется с клиентским профилем
	res, body = ts.SendRequest(t, "POST", "/api/auth/register/complete", "", map[string]interface{}{
		"registrationToken": initiate.RegistrationToken,
		"code":              claims.VerificationCode,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var complete struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &complete))
	require.NotEmpty(t, complete.AccessToken)

	res, body = ts.SendRequest(t, "GET", "/api/auth/me", complete.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, email)
	assert.Contains(t, body, `"role":"CLIENT"`)
	assert.Contains(t, body, "Новый Клиент")
}

// wrongCode возвращает гарантированно другой 6-значный код
func wrongCode(code string) string {
	if code == "111111" {
		return "222222"
	}
	return "111111"
}

func TestRegisterInitiate_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	user := helpers.CreateClient(t, ts.DB, helpers.UniqueEmail("dup"))

	res, body := ts.SendRequest(t, "POST", "/api/auth/register/initiate", "", map[string]interface{}{
		"email":    user.Email,
		"password": helpers.TestPassword,
		"name":     "Дубликат",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	user := helpers.CreateClient(t, ts.DB, helpers.UniqueEmail("login"))

	res, body := ts.SendRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": "wrong_password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	// Причина отказа не раскрывается
	assert.NotContains(t, body, "пароль неверен")
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, _, refresh := helpers.CreateAndLoginClient(t, ts)

	// Ротация выдает новую пару
	res, body := ts.SendRequest(t, "POST", "/api/auth/refresh", "", map[string]interface{}{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &pair))
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, refresh, pair.RefreshToken)

	// Старый refresh-токен погашен ротацией
	res, _ = ts.SendRequest(t, "POST", "/api/auth/refresh", "", map[string]interface{}{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Новый продолжает работать
	res, _ = ts.SendRequest(t, "POST", "/api/auth/refresh", "", map[string]interface{}{
		"refreshToken": pair.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRefreshRotation_SingleWinnerUnderConcurrency(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, _, refresh := helpers.CreateAndLoginClient(t, ts)

	// Один refresh-токен, десять одновременных ротаций:
	// условный UPDATE пропускает ровно одну
	const workers = 10
	statuses := make(chan int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			status, err := ts.SendRequestStatus("POST", "/api/auth/refresh", "", map[string]interface{}{
				"refreshToken": refresh,
			}, nil)
			if err != nil {
				statuses <- 0
				return
			}
			statuses <- status
		}()
	}
	wg.Wait()
	close(statuses)

	var ok, rejected int
	for status := range statuses {
		switch status {
		case http.StatusOK:
			ok++
		case http.StatusUnauthorized:
			rejected++
		default:
			t.Fatalf("неожиданный статус ротации: %d", status)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejected)
}

func TestLogout_RevokesTokens(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, access, refresh := helpers.CreateAndLoginClient(t, ts)

	res, body := ts.SendRequest(t, "POST", "/api/auth/logout", access, map[string]interface{}{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Access-токен в черном списке до конца срока жизни
	res, _ = ts.SendRequest(t, "GET", "/api/auth/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Refresh-сессия инвалидирована
	res, _ = ts.SendRequest(t, "POST", "/api/auth/refresh", "", map[string]interface{}{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	user, access, refresh := helpers.CreateAndLoginClient(t, ts)

	res, body := ts.SendRequest(t, "POST", "/api/auth/change-password", access, map[string]interface{}{
		"currentPassword": helpers.TestPassword,
		"newPassword":     "brand_new_password1",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Предъявленный access-токен попадает в черный список
	res, _ = ts.SendRequest(t, "GET", "/api/auth/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Все refresh-сессии отозваны
	res, _ = ts.SendRequest(t, "POST", "/api/auth/refresh", "", map[string]interface{}{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Старый пароль больше не работает, новый работает
	res, _ = ts.SendRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": helpers.TestPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": "brand_new_password1",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, access, _ := helpers.CreateAndLoginClient(t, ts)

	res, _ := ts.SendRequest(t, "POST", "/api/auth/change-password", access, map[string]interface{}{
		"currentPassword": "wrong_password",
		"newPassword":     "brand_new_password1",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestProtectedEndpointWithoutToken(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	res, _ := ts.SendRequest(t, "GET", "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, "GET", "/api/auth/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
