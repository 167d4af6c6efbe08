package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxAuditChangesBytes caps the request body stored on an entry
const maxAuditChangesBytes = 8 << 10

// AuditLogService records and queries the audit trail of mutating calls
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LogEntry is the input for one audit entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	StatusCode int
	Changes    interface{}
}

// Log writes an entry attributed to the caller in ctx. r may be nil for
// entries produced outside a request, such as scheduled jobs.
func (s *AuditLogService) Log(ctx context.Context, r *http.Request, entry LogEntry) error {
	auditLog := &domain.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		StatusCode: entry.StatusCode,
		Changes:    encodeChanges(entry.Changes),
	}
	auditLog.CreatedAt = s.now()

	if user, ok := auth.FromContext(ctx); ok {
		auditLog.UserID = user.UserID
		auditLog.UserName = user.Actor()
	} else {
		auditLog.UserName = "system"
	}

	if r != nil {
		auditLog.Method = r.Method
		auditLog.Path = r.URL.Path
		auditLog.IPAddress = clientIP(r)
	} else {
		auditLog.Method = "-"
		auditLog.Path = "-"
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		return err
	}
	return nil
}

// LogExport records a spreadsheet export
func (s *AuditLogService) LogExport(ctx context.Context, r *http.Request, entityType string, count int) error {
	return s.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionExport,
		EntityType: entityType,
		StatusCode: http.StatusOK,
		Changes:    map[string]interface{}{"count": count, "format": "xlsx"},
	})
}

// LogReset records a data reset with the row counts it removed
func (s *AuditLogService) LogReset(ctx context.Context, r *http.Request, result *domain.ResetResult) error {
	return s.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionReset,
		EntityType: "system",
		StatusCode: http.StatusOK,
		Changes:    result.Deleted,
	})
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	UserID     string
	Action     *domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	StartTime  *time.Time
	EndTime    *time.Time
}

// List returns a cursor page of entries, newest first
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams, cursor repository.CursorParams) (*domain.CursorPage, error) {
	filter := &repository.AuditLogFilter{
		UserID:     params.UserID,
		Action:     params.Action,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		StartTime:  params.StartTime,
		EndTime:    params.EndTime,
	}
	page, err := s.auditRepo.List(ctx, filter, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	dtos := make([]domain.AuditLogDTO, len(page.Items))
	for i := range page.Items {
		dtos[i] = mapper.ToAuditLogDTO(&page.Items[i])
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

// GetByID retrieves a specific audit log entry
func (s *AuditLogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLogDTO, error) {
	log, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditLogNotFound
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	dto := mapper.ToAuditLogDTO(log)
	return &dto, nil
}

// CleanupOldLogs removes entries older than the retention period
func (s *AuditLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	before := s.now().AddDate(0, 0, -retentionDays)
	count, err := s.auditRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		s.logger.Error("failed to cleanup old audit logs",
			zap.Int("retention_days", retentionDays),
			zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("cleaned up old audit logs",
			zap.Int64("deleted_count", count),
			zap.Int("retention_days", retentionDays))
	}
	return count, nil
}

func encodeChanges(v interface{}) string {
	if v == nil {
		return ""
	}
	var data []byte
	switch t := v.(type) {
	case []byte:
		data = t
	case json.RawMessage:
		data = t
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return ""
		}
	}
	if len(data) > maxAuditChangesBytes {
		data = data[:maxAuditChangesBytes]
	}
	return string(data)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
