package repository

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	UserID     string
	Action     *domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	StartTime  *time.Time
	EndTime    *time.Time
}

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create inserts a new audit log entry (append-only - no updates allowed)
func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByID retrieves an audit log by ID
func (r *AuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	var log domain.AuditLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// List retrieves a cursor page of audit logs with optional filters
func (r *AuditLogRepository) List(ctx context.Context, filter *AuditLogFilter, params CursorParams) (Page[domain.AuditLog], error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.AuditLog{}), filter)
	query, err := applyCursor(ctx, r.db, query, "audit_logs", params)
	if err != nil {
		return Page[domain.AuditLog]{}, err
	}

	var logs []domain.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return Page[domain.AuditLog]{}, err
	}
	return newPage(logs, params.Limit, func(l *domain.AuditLog) uuid.UUID { return l.ID }), nil
}

func (r *AuditLogRepository) applyFilters(query *gorm.DB, filter *AuditLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	return query
}

// DeleteOlderThan removes entries created before the cutoff
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&domain.AuditLog{})
	return result.RowsAffected, result.Error
}
