package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestPassword - пароль всех пользователей, создаваемых хелперами
const TestPassword = "super_password123"

// UniqueEmail возвращает уникальный email: тесты идут параллельно
// против одной БД и не должны конфликтовать по данным
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@test.com", prefix, uuid.NewString()[:8])
}

// CreateClient создает клиента напрямую в БД
func CreateClient(t *testing.T, db *gorm.DB, email string) *models.User {
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Не удалось захешировать пароль: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleClient,
		ClientProfile: &models.ClientProfile{
			Name:    "Тестовый Клиент",
			Phone:   "+70000000000",
			Address: "Москва",
		},
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Не удалось создать тестового клиента: %v", err)
	}
	return user
}

// CreateSuperAdmin создает супер-администратора напрямую в БД
func CreateSuperAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Не удалось захешировать пароль: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		AdminProfile: &models.AdminProfile{
			Name:         "Тестовый Админ",
			IsSuperAdmin: true,
		},
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Не удалось создать тестового администратора: %v", err)
	}
	return user
}

// CreateAdmin создает обычного (не супер) администратора
func CreateAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Не удалось захешировать пароль: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		AdminProfile: &models.AdminProfile{
			Name: "Тестовый Админ",
		},
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Не удалось создать тестового администратора: %v", err)
	}
	return user
}

// CreateDistrict создает район доставки
func CreateDistrict(t *testing.T, db *gorm.DB, name string) *models.District {
	district := &models.District{Name: name}
	if err := db.Create(district).Error; err != nil {
		t.Fatalf("Не удалось создать район: %v", err)
	}
	return district
}

// Login логинит пользователя через API и возвращает пару токенов
func Login(t *testing.T, ts *TestServer, email string) (accessToken, refreshToken string) {
	res, body := ts.SendRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": TestPassword,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Логин %s провалился (%d): %s", email, res.StatusCode, body)
	}

	var parsed struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("Не удалось разобрать ответ логина: %v", err)
	}
	if parsed.AccessToken == "" {
		t.Fatalf("Логин %s не вернул accessToken: %s", email, body)
	}
	return parsed.AccessToken, parsed.RefreshToken
}

// CreateAndLoginClient - клиент в БД плюс его токены
func CreateAndLoginClient(t *testing.T, ts *TestServer) (*models.User, string, string) {
	user := CreateClient(t, ts.DB, UniqueEmail("client"))
	access, refresh := Login(t, ts, user.Email)
	return user, access, refresh
}

// CreateAndLoginSuperAdmin - супер-админ в БД плюс его токены
func CreateAndLoginSuperAdmin(t *testing.T, ts *TestServer) (*models.User, string, string) {
	user := CreateSuperAdmin(t, ts.DB, UniqueEmail("admin"))
	access, refresh := Login(t, ts, user.Email)
	return user, access, refresh
}
