package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"iceberg_backend/database"
	"iceberg_backend/internal/app"
	"iceberg_backend/internal/cache"
	"iceberg_backend/internal/config"

	"gorm.io/gorm"
)

// TestServer - поднятое приложение поверх httptest с прямым
// доступом к БД для подготовки данных
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Config *config.Config
}

// NewTestServer подключается к тестовой БД из DATABASE_URL,
// прогоняет миграции и поднимает полный роутер приложения
func NewTestServer(t *testing.T) *TestServer {
	config.LoadConfig()
	cfg := config.GetConfig()

	db, err := database.ConnectGorm()
	if err != nil {
		t.Fatalf("Не удалось подключиться к тестовой БД (%s): %v", cfg.Database.DSN, err)
	}
	if err := database.AutoMigrate(); err != nil {
		t.Fatalf("Не удалось выполнить миграции тестовой БД: %v", err)
	}

	// Redis в тестах не обязателен: без адреса кеш работает вхолостую
	userCache, err := cache.Connect(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		t.Fatalf("Не удалось подключиться к Redis: %v", err)
	}

	router := app.SetupRouter(cfg, db, userCache)
	server := httptest.NewServer(router)

	return &TestServer{
		Server: server,
		DB:     db,
		Config: cfg,
	}
}

// Close останавливает тестовый сервер
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// ClearTables очищает все таблицы подсистемы
func (ts *TestServer) ClearTables(t *testing.T) {
	err := ts.DB.Exec(`TRUNCATE TABLE
		users, client_profiles, employee_profiles, supplier_profiles,
		driver_profiles, driver_districts, districts, admin_profiles,
		refresh_sessions, revoked_access_tokens, trusted_devices,
		backup_codes, staff_applications
		RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("Не удалось очистить таблицы: %v", err)
	}
}

// SendRequest отправляет JSON-запрос на тестовый сервер
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	return ts.SendRequestWithHeaders(t, method, path, token, body, nil)
}

// SendRequestWithHeaders - то же с дополнительными заголовками
// (X-2FA-Token, X-Device-ID для step-up операций)
func (ts *TestServer) SendRequestWithHeaders(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (*http.Response, string) {
	url := ts.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}

	return res, string(resBodyBytes)
}

// SendRequestStatus выполняет запрос и возвращает только код ответа.
// Без *testing.T, поэтому пригоден для вызова из горутин
// конкурентных тестов
func (ts *TestServer) SendRequestStatus(method, path, token string, body interface{}, headers map[string]string) (int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	return res.StatusCode, nil
}
