package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"iceberg_backend/internal/models"
	"iceberg_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitApplication(t *testing.T, ts *helpers.TestServer, token string, desiredRole string, fields map[string]interface{}) string {
	res, body := ts.SendRequest(t, "POST", "/api/staff-applications", token, map[string]interface{}{
		"desiredRole": desiredRole,
		"fields":      fields,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var application struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &application))
	require.NotEmpty(t, application.ID)
	require.Equal(t, "pending", application.Status)
	return application.ID
}

func TestStaffApplication_SubmitValidation(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, access, _ := helpers.CreateAndLoginClient(t, ts)

	// Заявка только на штатную роль
	res, _ := ts.SendRequest(t, "POST", "/api/staff-applications", access, map[string]interface{}{
		"desiredRole": "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Без авторизации заявки не принимаются
	res, _ = ts.SendRequest(t, "POST", "/api/staff-applications", "", map[string]interface{}{
		"desiredRole": "EMPLOYEE",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestStaffApplication_ApproveFlow(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	applicant, access, _ := helpers.CreateAndLoginClient(t, ts)
	_, adminToken, _ := helpers.CreateAndLoginSuperAdmin(t, ts)

	applicationID := submitApplication(t, ts, access, "EMPLOYEE", map[string]interface{}{
		"position": "Кладовщик",
	})

	// Заявка видна в списке нерассмотренных
	res, body := ts.SendRequest(t, "GET", "/api/admin/staff-applications", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, applicationID)
	assert.Contains(t, body, applicant.Email)

	// Одобрение переводит пользователя в желаемую роль
	res, body = ts.SendRequest(t, "POST", "/api/admin/staff-applications/"+applicationID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"approved"`)

	var user models.User
	require.NoError(t, ts.DB.First(&user, "id = ?", applicant.ID).Error)
	assert.Equal(t, models.UserRoleEmployee, user.Role)

	var profile models.EmployeeProfile
	require.NoError(t, ts.DB.First(&profile, "user_id = ?", applicant.ID).Error)
	assert.Equal(t, "Кладовщик", profile.Position)

	// Повторное решение по той же заявке - конфликт
	res, _ = ts.SendRequest(t, "POST", "/api/admin/staff-applications/"+applicationID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res, _ = ts.SendRequest(t, "POST", "/api/admin/staff-applications/"+applicationID+"/reject", adminToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestStaffApplication_RejectKeepsRole(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	applicant, access, _ := helpers.CreateAndLoginClient(t, ts)
	_, adminToken, _ := helpers.CreateAndLoginSuperAdmin(t, ts)

	applicationID := submitApplication(t, ts, access, "DRIVER", nil)

	res, body := ts.SendRequest(t, "POST", "/api/admin/staff-applications/"+applicationID+"/reject", adminToken, map[string]interface{}{
		"comment": "Нет вакансий",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"rejected"`)
	assert.Contains(t, body, "Нет вакансий")

	var user models.User
	require.NoError(t, ts.DB.First(&user, "id = ?", applicant.ID).Error)
	assert.Equal(t, models.UserRoleClient, user.Role)
}

func TestStaffApplication_ReviewRequiresAdmin(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	_, access, _ := helpers.CreateAndLoginClient(t, ts)

	applicationID := submitApplication(t, ts, access, "EMPLOYEE", map[string]interface{}{
		"position": "Логист",
	})

	// Заявитель не может рассмотреть собственную заявку
	res, _ := ts.SendRequest(t, "GET", "/api/admin/staff-applications", access, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = ts.SendRequest(t, "POST", "/api/admin/staff-applications/"+applicationID+"/approve", access, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestStaffApplication_ApproveWithMissingFields(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	applicant, access, _ := helpers.CreateAndLoginClient(t, ts)
	_, adminToken, _ := helpers.CreateAndLoginSuperAdmin(t, ts)

	// Заявка на EMPLOYEE без позиции: одобрение упирается в валидацию
	// профиля, заявка остается нерассмотренной
	applicationID := submitApplication(t, ts, access, "EMPLOYEE", nil)

	res, _ := ts.SendRequest(t, "POST", "/api/admin/staff-applications/"+applicationID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var application models.StaffApplication
	require.NoError(t, ts.DB.First(&application, "id = ?", applicationID).Error)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)

	var user models.User
	require.NoError(t, ts.DB.First(&user, "id = ?", applicant.ID).Error)
	assert.Equal(t, models.UserRoleClient, user.Role)
}
