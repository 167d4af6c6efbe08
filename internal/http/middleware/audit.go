package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxAuditBody caps how much of a request body is read for the audit trail
const maxAuditBody = 64 << 10

// sensitiveFields are dropped from recorded request bodies
var sensitiveFields = []string{"password", "secret", "token", "apiKey", "appSecret", "accessToken", "webhookVerifyToken", "confirmation"}

// entityTypes maps route segments to audited entity types
var entityTypes = map[string]string{
	"contacts":      "contact",
	"requests":      "request",
	"companies":     "company",
	"customers":     "customer",
	"cases":         "case",
	"orders":        "order",
	"conversations": "conversation",
	"settings":      "settings",
	"messaging":     "messaging",
	"sync":          "sync",
	"system":        "system",
}

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths are path prefixes that are never audited
	SkipPaths []string
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{"/health", "/swagger"},
	}
}

// AuditMiddleware records mutating requests in the audit log
type AuditMiddleware struct {
	auditService *service.AuditLogService
	config       *AuditConfig
	logger       *zap.Logger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditService *service.AuditLogService, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditService: auditService,
		config:       config,
		logger:       logger,
	}
}

// Audit records POST, PUT, PATCH and DELETE requests once the handler has
// answered. The entry is written in the background.
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil && r.Method != http.MethodDelete && isJSON(r) {
			body, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		entityType, entityID := m.extractEntityInfo(r)
		entry := service.LogEntry{
			Action:     methodToAction(r.Method),
			EntityType: entityType,
			EntityID:   entityID,
			StatusCode: rw.statusCode,
			Changes:    sanitizeBody(body),
		}
		ctx := context.WithoutCancel(r.Context())
		go m.write(ctx, r, entry)
	})
}

func (m *AuditMiddleware) write(ctx context.Context, r *http.Request, entry service.LogEntry) {
	if m.auditService == nil {
		return
	}
	if err := m.auditService.Log(ctx, r, entry); err != nil {
		m.logger.Warn("failed to create audit log entry",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
	}
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	for _, skip := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skip) {
			return false
		}
	}
	return true
}

func methodToAction(method string) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditActionCreate
	case http.MethodDelete:
		return domain.AuditActionDelete
	default:
		return domain.AuditActionUpdate
	}
}

// extractEntityInfo reads the entity type from the matched route pattern and
// the entity id from the {id} parameter
func (m *AuditMiddleware) extractEntityInfo(r *http.Request) (string, *uuid.UUID) {
	path := r.URL.Path
	var entityID *uuid.UUID
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			path = p
		}
		if id, err := uuid.Parse(rctx.URLParam("id")); err == nil {
			entityID = &id
		}
	}
	return entityFromPath(path), entityID
}

func entityFromPath(path string) string {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if t, ok := entityTypes[part]; ok {
			return t
		}
	}
	return "unknown"
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(ct, "application/json")
}

// sanitizeBody parses a JSON object body and strips credentials. Anything
// else is not recorded.
func sanitizeBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var parsed map[string]interface{}
	if json.Unmarshal(body, &parsed) != nil {
		return nil
	}
	for _, f := range sensitiveFields {
		delete(parsed, f)
	}
	return parsed
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
