package router

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clfadmin/internal/auth"
	"clfadmin/internal/config"
	"clfadmin/internal/handler"
	"clfadmin/internal/model"
	"clfadmin/internal/registry"
	"clfadmin/internal/repository"
	"clfadmin/internal/service"
)

const testSecret = "router-test-secret"

// memoryTokenStore is an in-process TokenStoreInterface.
type memoryTokenStore struct {
	mu      sync.Mutex
	revoked map[string]bool
	err     error
}

func (s *memoryTokenStore) RevokeAccessToken(_ context.Context, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.revoked[tokenID] = true
	return nil
}

func (s *memoryTokenStore) IsAccessTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[tokenID], nil
}

type testServer struct {
	e          *echo.Echo
	db         *gorm.DB
	jwt        *auth.JWTService
	tokens     *memoryTokenStore
	admin      *model.User
	researcher *model.User
	other      *model.User
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.ClassificationHistory{}))

	log := zap.NewNop()
	users := repository.NewUserRepository(db)
	access := service.NewAccessControl(users)
	reg := registry.NewMemoryRegistry()
	_, err = registry.Seed(context.Background(), reg, []string{"org/seeded-model"})
	require.NoError(t, err)
	tokens := &memoryTokenStore{revoked: map[string]bool{}}

	e := echo.New()
	Register(e, &config.Config{JWTSecret: testSecret}, log, access, tokens,
		handler.NewHistoryHandler(service.NewHistoryService(repository.NewHistoryRepository(db), access, log)),
		handler.NewUserHandler(service.NewUserService(users, access, log)),
		handler.NewModelHandler(service.NewModelService(reg, access, log)),
		handler.NewAuthHandler(tokens, log),
	)

	s := &testServer{e: e, db: db, jwt: auth.NewJWTService(testSecret), tokens: tokens}
	s.admin = s.createUser(t, "admin", model.RoleAdmin)
	s.researcher = s.createUser(t, "rina", model.RoleResearcher)
	s.other = s.createUser(t, "budi", model.RoleResearcher)
	return s
}

func (s *testServer) createUser(t *testing.T, name, role string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "hash", Role: role}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func (s *testServer) createHistory(t *testing.T, userID uint, n int) []model.ClassificationHistory {
	t.Helper()
	items := make([]model.ClassificationHistory, 0, n)
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		item := model.ClassificationHistory{
			UserID:      userID,
			ModelName:   "org/seeded-model",
			ModelType:   "huggingface",
			Status:      "completed",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			ResultsJSON: datatypes.JSON(`[{"prediction":"FR"}]`),
		}
		require.NoError(t, s.db.Create(&item).Error)
		items = append(items, item)
	}
	return items
}

func (s *testServer) token(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	s := setupServer(t)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	s := setupServer(t)
	foreignSigner := auth.NewJWTService("another-secret")
	forged, err := foreignSigner.GenerateAccessToken(s.admin.ID, model.RoleAdmin)
	require.NoError(t, err)
	ghost, err := s.jwt.GenerateAccessToken(9999, model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "wrong signing key", token: forged},
		{name: "unknown subject", token: ghost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodGet, "/api/history", tt.token, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "UNAUTHORIZED", body["code"])
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	s := setupServer(t)
	token := s.token(t, s.researcher)

	rec, body := s.do(t, http.MethodGet, "/api/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, fmt.Sprint(s.researcher.ID), user["id"])
	assert.Equal(t, "rina@example.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = s.do(t, http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token has been revoked", body["error"])
}

func TestRevocationCheckFailureIsRefused(t *testing.T) {
	s := setupServer(t)
	token := s.token(t, s.admin)
	s.tokens.err = stderrors.New("redis: connection refused")

	rec, body := s.do(t, http.MethodGet, "/api/users", token, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestAdminRoutesRejectResearchers(t *testing.T) {
	s := setupServer(t)
	token := s.token(t, s.researcher)

	requests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/users", ""},
		{http.MethodPut, fmt.Sprintf("/api/users/%d", s.other.ID), `{"name":"x"}`},
		{http.MethodDelete, fmt.Sprintf("/api/users/%d", s.other.ID), ""},
		{http.MethodPost, "/api/models", `{"model_name":"org/new"}`},
		{http.MethodDelete, "/api/models/org%2Fseeded-model", ""},
		{http.MethodPost, "/api/models", `{}`},
		{http.MethodPost, "/api/models", `not json`},
		{http.MethodPut, "/api/users/abc", `{"name":"x"}`},
		{http.MethodDelete, "/api/users/abc", ""},
		{http.MethodPut, fmt.Sprintf("/api/users/%d", s.other.ID), `{"role":5}`},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.target, func(t *testing.T) {
			rec, body := s.do(t, r.method, r.target, token, r.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Access denied - Admin only", body["error"])
			assert.Equal(t, "FORBIDDEN", body["code"])
		})
	}

	var stored model.User
	require.NoError(t, s.db.First(&stored, s.other.ID).Error)
	assert.Equal(t, "budi", stored.Name)
}

func TestResearcherSelfDeleteIsInvalid(t *testing.T) {
	s := setupServer(t)

	rec, body := s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", s.researcher.ID), s.token(t, s.researcher), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OPERATION", body["code"])

	var stored model.User
	assert.NoError(t, s.db.First(&stored, s.researcher.ID).Error)
}

func TestModelRoutes(t *testing.T) {
	s := setupServer(t)
	admin := s.token(t, s.admin)

	rec, body := s.do(t, http.MethodGet, "/api/models", s.token(t, s.researcher), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	first := body["models"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "org/seeded-model", first["huggingfaceUrl"])
	assert.Equal(t, "rina", first["uploadedBy"])

	rec, body = s.do(t, http.MethodPost, "/api/models", admin, `{"model_name":"org/new-model"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(2), body["total_models"])

	rec, body = s.do(t, http.MethodPost, "/api/models", admin, `{"model_name":"org/new-model"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", body["code"])

	rec, _ = s.do(t, http.MethodPost, "/api/models", admin, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodDelete, "/api/models/org%2Fnew-model", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "org/new-model", body["model_name"])
	assert.Equal(t, float64(1), body["total_models"])

	rec, _ = s.do(t, http.MethodDelete, "/api/models/org%2Fnew-model", admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	s := setupServer(t)
	admin := s.token(t, s.admin)
	s.createHistory(t, s.other.ID, 2)

	rec, body := s.do(t, http.MethodGet, "/api/users", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["count"])
	assert.NotContains(t, rec.Body.String(), "hash")

	rec, body = s.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", s.researcher.ID), admin, `{"role":"ADMIN","email":"x@y.z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, model.RoleAdmin, user["role"])
	assert.Equal(t, "rina@example.com", user["email"])

	rec, _ = s.do(t, http.MethodPut, "/api/users/abc", admin, `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", s.admin.ID), admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OPERATION", body["code"])

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", s.other.ID), admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var count int64
	require.NoError(t, s.db.Model(&model.ClassificationHistory{}).Where("user_id = ?", s.other.ID).Count(&count).Error)
	assert.Zero(t, count)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", s.other.ID), admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryRoutes(t *testing.T) {
	s := setupServer(t)
	token := s.token(t, s.researcher)
	mine := s.createHistory(t, s.researcher.ID, 3)
	theirs := s.createHistory(t, s.other.ID, 1)

	rec, body := s.do(t, http.MethodGet, "/api/history?per_page=500&page=1", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(100), pagination["per_page"])
	assert.Equal(t, float64(3), pagination["total"])
	assert.Len(t, body["history"], 3)
	assert.Equal(t, fmt.Sprint(s.researcher.ID), body["user_id"])

	rec, body = s.do(t, http.MethodGet, "/api/history?page=9999", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["history"])
	assert.Equal(t, float64(3), body["pagination"].(map[string]interface{})["total"])

	rec, body = s.do(t, http.MethodGet, "/api/history?page=100000000000000000&per_page=100", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["history"])
	assert.Equal(t, false, body["pagination"].(map[string]interface{})["has_next"])

	foreign, foreignBody := s.do(t, http.MethodGet, fmt.Sprintf("/api/history/%d", theirs[0].ID), token, "")
	absent, absentBody := s.do(t, http.MethodGet, "/api/history/424242", token, "")
	malformed, malformedBody := s.do(t, http.MethodGet, "/api/history/abc", token, "")
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, http.StatusNotFound, absent.Code)
	assert.Equal(t, http.StatusNotFound, malformed.Code)
	assert.Equal(t, absentBody, foreignBody)
	assert.Equal(t, absentBody, malformedBody)

	rec, body = s.do(t, http.MethodPut, fmt.Sprintf("/api/history/%d/update", mine[0].ID), token, `{"predictions":[{"prediction":"NFR"},{"prediction":"FR"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["updated_predictions"])

	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/history/%d/update", mine[0].ID), token, `{"predictions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/history/%d", theirs[0].ID), token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/history/%d", mine[0].ID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, http.MethodDelete, "/api/history/clear", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["deleted_count"])

	var count int64
	require.NoError(t, s.db.Model(&model.ClassificationHistory{}).Where("user_id = ?", s.other.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := setupServer(t)
	rec, body := s.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}
