package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAuthConfig(apiKey string) *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret: "test-secret-with-enough-entropy",
		Issuer:    "crm-test",
		Audience:  "crm-admin",
		APIKey:    apiKey,
	}
}

func captureUser(called *bool, user **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*user, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestUserContext_HasPermission(t *testing.T) {
	tests := []struct {
		name       string
		roles      []domain.UserRoleType
		permission domain.PermissionType
		expected   bool
	}{
		{"super admin has everything", []domain.UserRoleType{domain.RoleSuperAdmin}, domain.PermissionSystemReset, true},
		{"admin cannot reset", []domain.UserRoleType{domain.RoleAdmin}, domain.PermissionSystemReset, false},
		{"admin runs sync", []domain.UserRoleType{domain.RoleAdmin}, domain.PermissionSyncRun, true},
		{"sales writes contacts", []domain.UserRoleType{domain.RoleSales}, domain.PermissionContactsWrite, true},
		{"sales cannot delete contacts", []domain.UserRoleType{domain.RoleSales}, domain.PermissionContactsDelete, false},
		{"production writes orders", []domain.UserRoleType{domain.RoleProduction}, domain.PermissionOrdersWrite, true},
		{"viewer is read only", []domain.UserRoleType{domain.RoleViewer}, domain.PermissionCasesWrite, false},
		{"roles combine", []domain.UserRoleType{domain.RoleViewer, domain.RoleProduction}, domain.PermissionOrdersWrite, true},
		{"no roles", nil, domain.PermissionContactsRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &auth.UserContext{UserID: "u1", Roles: tt.roles}
			assert.Equal(t, tt.expected, user.HasPermission(tt.permission))
		})
	}
}

func TestUserContext_Actor(t *testing.T) {
	assert.Equal(t, "Ayşe", (&auth.UserContext{UserID: "u1", DisplayName: "Ayşe", Email: "a@x.io"}).Actor())
	assert.Equal(t, "a@x.io", (&auth.UserContext{UserID: "u1", Email: "a@x.io"}).Actor())
	assert.Equal(t, "u1", (&auth.UserContext{UserID: "u1"}).Actor())
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	v := auth.NewJWTValidator(testAuthConfig(""))
	token, err := v.IssueToken(&auth.UserContext{
		UserID:      "user-42",
		DisplayName: "Deniz",
		Email:       "deniz@example.com",
		Roles:       []domain.UserRoleType{domain.RoleSales},
	}, time.Hour)
	require.NoError(t, err)

	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", user.UserID)
	assert.Equal(t, "Deniz", user.DisplayName)
	assert.True(t, user.HasRole(domain.RoleSales))
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := auth.NewJWTValidator(testAuthConfig(""))
	user := &auth.UserContext{UserID: "user-42"}

	t.Run("expired", func(t *testing.T) {
		token, err := v.IssueToken(user, -time.Minute)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testAuthConfig("")
		other.JWTSecret = "another-secret"
		token, err := auth.NewJWTValidator(other).IssueToken(user, time.Hour)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := testAuthConfig("")
		other.Audience = "someone-else"
		token, err := auth.NewJWTValidator(other).IssueToken(user, time.Hour)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no secret configured", func(t *testing.T) {
		_, err := auth.NewJWTValidator(&config.AuthConfig{}).ValidateToken("x")
		assert.ErrorIs(t, err, auth.ErrNoSecret)
	})
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	m := auth.NewMiddleware(testAuthConfig("test-api-key-12345"), zap.NewNop())

	var called bool
	var user *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("x-api-key", "test-api-key-12345")
	w := httptest.NewRecorder()

	m.Authenticate(captureUser(&called, &user)).ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, user)
	assert.Equal(t, auth.SystemUserID, user.UserID)
	assert.True(t, user.HasRole(domain.RoleSuperAdmin))
	assert.True(t, user.HasRole(domain.RoleAPIService))
}

func TestMiddleware_Authenticate_Rejections(t *testing.T) {
	m := auth.NewMiddleware(testAuthConfig("correct-key"), zap.NewNop())

	tests := []struct {
		name   string
		header map[string]string
	}{
		{"invalid api key", map[string]string{"x-api-key": "wrong"}},
		{"missing header", map[string]string{}},
		{"basic scheme", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}},
		{"empty bearer", map[string]string{"Authorization": "Bearer "}},
		{"invalid token", map[string]string{"Authorization": "Bearer abc.def.ghi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var user *auth.UserContext
			req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			m.Authenticate(captureUser(&called, &user)).ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_Authenticate_WithBearer(t *testing.T) {
	cfg := testAuthConfig("")
	m := auth.NewMiddleware(cfg, zap.NewNop())
	token, err := m.Validator().IssueToken(&auth.UserContext{
		UserID: "user-7",
		Roles:  []domain.UserRoleType{domain.RoleViewer},
	}, time.Hour)
	require.NoError(t, err)

	var called bool
	var user *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	m.Authenticate(captureUser(&called, &user)).ServeHTTP(w, req)

	assert.True(t, called)
	require.NotNil(t, user)
	assert.Equal(t, "user-7", user.UserID)
}

func TestMiddleware_OptionalAuthenticate(t *testing.T) {
	m := auth.NewMiddleware(testAuthConfig("key"), zap.NewNop())

	var called bool
	var user *auth.UserContext
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/contact", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w := httptest.NewRecorder()

	m.OptionalAuthenticate(captureUser(&called, &user)).ServeHTTP(w, req)

	assert.True(t, called)
	assert.Nil(t, user)
}

func TestMiddleware_RequirePermission(t *testing.T) {
	m := auth.NewMiddleware(testAuthConfig(""), zap.NewNop())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := m.RequirePermission(domain.PermissionSystemReset)(next)

	tests := []struct {
		name     string
		user     *auth.UserContext
		expected int
	}{
		{"no user", nil, http.StatusForbidden},
		{"admin", &auth.UserContext{UserID: "a", Roles: []domain.UserRoleType{domain.RoleAdmin}}, http.StatusForbidden},
		{"super admin", &auth.UserContext{UserID: "s", Roles: []domain.UserRoleType{domain.RoleSuperAdmin}}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	m := auth.NewMiddleware(testAuthConfig(""), zap.NewNop())
	handler := m.RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{
		UserID: "v", Roles: []domain.UserRoleType{domain.RoleViewer},
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
