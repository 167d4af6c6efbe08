package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/http/middleware"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditedRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	svc := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)
	am := middleware.NewAuditMiddleware(svc, nil, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserContext(r.Context(), &auth.UserContext{
				UserID: "u-1", DisplayName: "Ada", Roles: []domain.UserRoleType{domain.RoleAdmin},
			})))
		})
	})
	r.Use(am.Audit)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Get("/api/v1/contacts", ok)
	r.Put("/api/v1/contacts/{id}", ok)
	r.Post("/health/ready", ok)
	r.Post("/api/v1/integrations/messaging", ok)
	return r, db
}

func auditRows(t *testing.T, db *gorm.DB) []domain.AuditLog {
	t.Helper()
	var rows []domain.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	return rows
}

func TestAuditMiddleware_RecordsMutations(t *testing.T) {
	h, db := newAuditedRouter(t)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/contacts/"+id.String(), strings.NewReader(`{"status":"closed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool { return len(auditRows(t, db)) == 1 }, 2*time.Second, 10*time.Millisecond)
	row := auditRows(t, db)[0]
	assert.Equal(t, domain.AuditActionUpdate, row.Action)
	assert.Equal(t, "contact", row.EntityType)
	require.NotNil(t, row.EntityID)
	assert.Equal(t, id, *row.EntityID)
	assert.Equal(t, "u-1", row.UserID)
	assert.Equal(t, http.MethodPut, row.Method)
	assert.Contains(t, row.Changes, "closed")
}

func TestAuditMiddleware_SkipsReadsAndHealth(t *testing.T) {
	h, db := newAuditedRouter(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil),
		httptest.NewRequest(http.MethodPost, "/health/ready", nil),
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, auditRows(t, db))
}

func TestAuditMiddleware_StripsCredentials(t *testing.T) {
	h, db := newAuditedRouter(t)

	body := `{"enabled":true,"accessToken":"EAAGverysecret","appSecret":"shh"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/integrations/messaging", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Eventually(t, func() bool { return len(auditRows(t, db)) == 1 }, 2*time.Second, 10*time.Millisecond)
	row := auditRows(t, db)[0]
	assert.Equal(t, "messaging", row.EntityType)
	assert.Contains(t, row.Changes, "enabled")
	assert.NotContains(t, row.Changes, "EAAGverysecret")
	assert.NotContains(t, row.Changes, "shh")
}
