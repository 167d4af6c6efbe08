package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/app"
	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/http/middleware"
	"github.com/formula-lab/crm-api/internal/http/router"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/storage"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAPIKey = "test-api-key"

type testServer struct {
	handler   http.Handler
	db        *gorm.DB
	validator *auth.JWTValidator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	db := testutil.SetupTestDB(t)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Environment: "development"},
		Auth: config.AuthConfig{
			JWTSecret: "router-test-secret-with-entropy",
			Issuer:    "crm-test",
			Audience:  "crm-admin",
			APIKey:    testAPIKey,
		},
		Storage:   config.StorageConfig{MaxUploadSizeMB: 1},
		Stats:     config.StatsConfig{ScanLimit: 100},
		Messaging: config.MessagingConfig{GraphBaseURL: "http://127.0.0.1:1", GraphVersion: "v21.0", Timeout: 1},
		Security:  config.SecurityConfig{ContentTypeNosniff: true},
	}

	infra := &app.Infra{DB: db, Files: files}
	svc := app.NewServices(cfg, infra, log)

	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	rt := router.NewRouter(cfg, log, db, nil, authMiddleware,
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		middleware.NewAuditMiddleware(svc.Audit, nil, log),
		router.NewHandlers(svc, cfg.Storage.MaxUploadSizeMB, log))

	return &testServer{handler: rt.Setup(), db: db, validator: authMiddleware.Validator()}
}

func (s *testServer) token(t *testing.T, role domain.UserRoleType) string {
	t.Helper()
	tok, err := s.validator.IssueToken(&auth.UserContext{
		UserID:      "user-" + string(role),
		DisplayName: "Test " + string(role),
		Roles:       []domain.UserRoleType{role},
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/contacts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	req.Header.Set("x-api-key", testAPIKey)
	apiRec := httptest.NewRecorder()
	s.handler.ServeHTTP(apiRec, req)
	assert.Equal(t, http.StatusOK, apiRec.Code)
}

func TestPublicContactForm(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/public/contact", "", map[string]string{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"message": "Need a private label serum",
		"source":  "import",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var contact domain.ContactDTO
	decode(t, rec, &contact)
	assert.Equal(t, service.ContactSourceForm, contact.Source)
	assert.Equal(t, domain.ContactStatusNew, contact.Status)

	rec = s.do(t, http.MethodPost, "/api/v1/public/contact", "", map[string]string{"email": "no-name@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr domain.APIError
	decode(t, rec, &apiErr)
	assert.Contains(t, apiErr.Errors, "name")
}

func TestContactEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.RoleAdmin)
	viewer := s.token(t, domain.RoleViewer)

	rec := s.do(t, http.MethodPost, "/api/v1/contacts", admin, map[string]string{"name": "Grace", "email": "grace@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.ContactDTO
	decode(t, rec, &created)
	assert.Equal(t, "/api/v1/contacts/"+created.ID.String(), rec.Header().Get("Location"))

	t.Run("viewer cannot write", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/contacts", viewer, map[string]string{"name": "Nope"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/contacts?limit=10", viewer, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var page struct {
			Data    []domain.ContactDTO `json:"data"`
			HasMore bool                `json:"hasMore"`
		}
		decode(t, rec, &page)
		require.Len(t, page.Data, 1)
		assert.False(t, page.HasMore)
	})

	t.Run("status update", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/v1/contacts/"+created.ID.String()+"/status", admin, map[string]string{"status": "responded"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated domain.ContactDTO
		decode(t, rec, &updated)
		assert.Equal(t, domain.ContactStatusResponded, updated.Status)
	})

	t.Run("bad identifiers", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/contacts/not-a-uuid", admin, nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/contacts?cursor=zzz", admin, nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/contacts?limit=-1", admin, nil).Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/v1/contacts/"+created.ID.String(), admin, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = s.do(t, http.MethodGet, "/api/v1/contacts/"+created.ID.String(), admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRequestEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.RoleAdmin)
	superAdmin := s.token(t, domain.RoleSuperAdmin)

	rec := s.do(t, http.MethodPost, "/api/v1/requests", admin, map[string]interface{}{
		"title":          "Vitamin C serum, 5k units",
		"category":       "cosmetic_manufacturing",
		"estimatedValue": 125000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.RequestDTO
	decode(t, rec, &created)
	assert.Equal(t, fmt.Sprintf("REQ-%d-0001", time.Now().Year()), created.RequestNumber)

	rec = s.do(t, http.MethodGet, "/api/v1/requests/number/"+created.RequestNumber, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/requests", admin, map[string]interface{}{
		"title":    "Unknown category",
		"category": "rocket_science",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("only super admins delete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/v1/requests/"+created.ID.String(), admin, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodDelete, "/api/v1/requests/"+created.ID.String(), superAdmin, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestCaseToOrderRequiresWon(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.RoleAdmin)
	customer := testutil.CreateTestCustomer(t, s.db, "Acme Kozmetik", "info@acme.example")
	c := testutil.CreateTestCase(t, s.db, customer, domain.CaseStatusNegotiating)

	rec := s.do(t, http.MethodPost, "/api/v1/cases/"+c.ID.String()+"/order", admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/cases/"+c.ID.String()+"/sla", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSettingsHideMessagingSecrets(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.RoleAdmin)

	rec := s.do(t, http.MethodGet, "/api/v1/settings/messaging", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/settings/sync", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/integrations/messaging", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Success bool `json:"success"`
	}
	decode(t, rec, &env)
	assert.True(t, env.Success)
}

func TestSystemReset(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateTestContact(t, s.db, "Doomed", "doomed@example.com")

	admin := s.token(t, domain.RoleAdmin)
	superAdmin := s.token(t, domain.RoleSuperAdmin)

	rec := s.do(t, http.MethodPost, "/api/v1/system/reset", admin, map[string]string{"confirmation": service.ResetConfirmationPhrase})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/system/reset", superAdmin, map[string]string{"confirmation": "delete all data"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/system/reset", superAdmin, map[string]string{"confirmation": service.ResetConfirmationPhrase})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result domain.ResetResult
	decode(t, rec, &result)
	assert.Equal(t, int64(1), result.Deleted["contacts"])

	var n int64
	require.NoError(t, s.db.Model(&domain.Contact{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStatsAndReminders(t *testing.T) {
	s := newTestServer(t)
	viewer := s.token(t, domain.RoleViewer)

	for _, path := range []string{"/api/v1/stats/dashboard", "/api/v1/stats/contacts", "/api/v1/stats/orders", "/api/v1/reminders"} {
		rec := s.do(t, http.MethodGet, path, viewer, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/audit", viewer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", s.token(t, domain.RoleViewer), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		ID           string                  `json:"id"`
		Roles        []string                `json:"roles"`
		Permissions  []domain.PermissionType `json:"permissions"`
		IsSuperAdmin bool                    `json:"isSuperAdmin"`
	}
	decode(t, rec, &me)
	assert.Equal(t, "user-viewer", me.ID)
	assert.Equal(t, []string{"viewer"}, me.Roles)
	assert.Contains(t, me.Permissions, domain.PermissionContactsRead)
	assert.NotContains(t, me.Permissions, domain.PermissionContactsWrite)
	assert.False(t, me.IsSuperAdmin)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/permissions?check=system:reset", s.token(t, domain.RoleSuperAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var check map[string]interface{}
	decode(t, rec, &check)
	assert.Equal(t, true, check["allowed"])
}
