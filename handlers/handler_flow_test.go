// SPDX-License-Identifier: GPL-3.0-only

package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docgate-server/cache"
	"docgate-server/db"
	"docgate-server/handlers"
	"docgate-server/models"
	"docgate-server/routes"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func int64Ptr(v int64) *int64 { return &v }

func setupFlowTest(t *testing.T) *echo.Echo {
	t.Helper()
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	t.Setenv("JWT_SECRET", "test-jwt-secret-for-handlers")
	t.Setenv("ARGON2_MEMORY", "8192")
	t.Setenv("PWNED_PASSWORDS_ENABLED", "false")
	t.Setenv("MOCK_EMAIL_NOTIFICATIONS", "true")

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	previousConn := db.Conn
	db.Conn = conn
	t.Cleanup(func() { db.Conn = previousConn })

	previousStore := cache.Store
	cache.Store = cache.NewMemoryCache()
	t.Cleanup(func() { cache.Store = previousStore })

	plan := models.Plan{
		Name:                models.FreePlan,
		DailyRequestLimit:   int64Ptr(100),
		MonthlyRequestLimit: int64Ptr(1000),
		SandboxKeysEnabled:  true,
		IsActive:            true,
	}
	if err := conn.Create(&plan).Error; err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	e := echo.New()
	routes.RegisterRoutes(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal request payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// The whole credential lifecycle through the HTTP surface: a fresh account
// signs up, logs in, mints a live key, then uses that key to read its quota.
func TestSignupLoginKeyQuotaFlow(t *testing.T) {
	e := setupFlowTest(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/auth/signup", handlers.SignupRequest{
		Email:    "flow@example.com",
		Password: "MySecretPassword@123",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from signup, got %d: %s", rec.Code, rec.Body.String())
	}
	var signup handlers.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &signup); err != nil {
		t.Fatalf("Failed to decode signup response: %v", err)
	}
	if signup.AccessToken == "" || signup.RefreshToken == "" {
		t.Fatal("Signup should return a token pair")
	}
	if signup.Plan != string(models.FreePlan) {
		t.Errorf("Expected FREE plan on signup, got %s", signup.Plan)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/auth/login", handlers.LoginRequest{
		Email:    "flow@example.com",
		Password: "MySecretPassword@123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from login, got %d: %s", rec.Code, rec.Body.String())
	}
	var login handlers.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/api-keys", handlers.CreateAPIKeyRequest{
		Name: "flow key",
		Type: "live",
	}, map[string]string{echo.HeaderAuthorization: "Bearer " + login.AccessToken})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from key creation, got %d: %s", rec.Code, rec.Body.String())
	}
	var created handlers.CreateAPIKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode key creation response: %v", err)
	}
	if !strings.HasPrefix(created.APIKey, "dg_live_") {
		t.Errorf("Expected a dg_live_ key, got %s", created.APIKey)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/quota", nil, map[string]string{"X-API-Key": created.APIKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from quota status with the raw key, got %d: %s", rec.Code, rec.Body.String())
	}
	var status handlers.QuotaStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode quota response: %v", err)
	}
	if status.Plan != string(models.FreePlan) {
		t.Errorf("Expected FREE plan in quota status, got %s", status.Plan)
	}
	if status.Quota.DailyLimit == nil || *status.Quota.DailyLimit != 100 {
		t.Errorf("Expected daily limit 100, got %v", status.Quota.DailyLimit)
	}
	if status.Quota.DailyUsed != 0 {
		t.Errorf("Expected no usage yet, got %d", status.Quota.DailyUsed)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	e := setupFlowTest(t)

	payload := handlers.SignupRequest{Email: "dup@example.com", Password: "MySecretPassword@123"}
	if rec := doJSON(t, e, http.MethodPost, "/v1/auth/signup", payload, nil); rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from first signup, got %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodPost, "/v1/auth/signup", payload, nil); rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 from duplicate signup, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := setupFlowTest(t)

	signup := handlers.SignupRequest{Email: "wrongpw@example.com", Password: "MySecretPassword@123"}
	if rec := doJSON(t, e, http.MethodPost, "/v1/auth/signup", signup, nil); rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from signup, got %d", rec.Code)
	}

	rec := doJSON(t, e, http.MethodPost, "/v1/auth/login", handlers.LoginRequest{
		Email:    "wrongpw@example.com",
		Password: "NotThePassword@123",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 from wrong password, got %d", rec.Code)
	}
}
