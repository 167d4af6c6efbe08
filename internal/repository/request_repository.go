package repository

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilters holds filters for listing requests
type RequestFilters struct {
	Search    string
	Status    *domain.RequestStatus
	Category  *domain.RequestCategory
	Priority  *domain.Priority
	CompanyID *uuid.UUID
}

// RequestRepository handles database operations for requests
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, request *domain.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var request domain.Request
	err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByNumber finds a request by its REQ-YYYY-NNNN number
func (r *RequestRepository) GetByNumber(ctx context.Context, number string) (*domain.Request, error) {
	var request domain.Request
	err := r.db.WithContext(ctx).First(&request, "request_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) Update(ctx context.Context, request *domain.Request) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Request{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus sets the status and stamps updated_at
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RequestRepository) applyFilters(query *gorm.DB, filters *RequestFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Search != "" {
		p := likePattern(filters.Search)
		query = query.Where(
			"LOWER(title) LIKE ? ESCAPE '!' OR LOWER(request_number) LIKE ? ESCAPE '!' OR LOWER(company_name) LIKE ? ESCAPE '!' OR LOWER(contact_name) LIKE ? ESCAPE '!'",
			p, p, p, p,
		)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.CompanyID != nil {
		query = query.Where("company_id = ?", *filters.CompanyID)
	}
	return query
}

// List returns a cursor page of requests, newest first
func (r *RequestRepository) List(ctx context.Context, filters *RequestFilters, params CursorParams) (Page[domain.Request], error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.Request{}), filters)
	query, err := applyCursor(ctx, r.db, query, "requests", params)
	if err != nil {
		return Page[domain.Request]{}, err
	}

	var requests []domain.Request
	if err := query.Find(&requests).Error; err != nil {
		return Page[domain.Request]{}, err
	}
	return newPage(requests, params.Limit, func(r *domain.Request) uuid.UUID { return r.ID }), nil
}

// ListForExport returns up to limit requests matching filters, newest first
func (r *RequestRepository) ListForExport(ctx context.Context, filters *RequestFilters, limit int) ([]domain.Request, error) {
	var requests []domain.Request
	err := r.applyFilters(r.db.WithContext(ctx).Model(&domain.Request{}), filters).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// ListRecent returns the most recent requests up to limit
func (r *RequestRepository) ListRecent(ctx context.Context, limit int) ([]domain.Request, error) {
	var requests []domain.Request
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// ListOpen returns requests that are not in a terminal status
func (r *RequestRepository) ListOpen(ctx context.Context, limit int) ([]domain.Request, error) {
	var requests []domain.Request
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []domain.RequestStatus{
			domain.RequestStatusCompleted,
			domain.RequestStatusCancelled,
			domain.RequestStatusRejected,
		}).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// ClearCompany detaches requests from a deleted company. The company name
// snapshot is kept.
func (r *RequestRepository) ClearCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("company_id = ?", companyID).
		Updates(map[string]interface{}{
			"company_id": nil,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// ReassignCompany moves requests from the given companies to target
func (r *RequestRepository) ReassignCompany(ctx context.Context, from []uuid.UUID, target *domain.Company) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("company_id IN ?", from).
		Updates(map[string]interface{}{
			"company_id":   target.ID,
			"company_name": target.Name,
			"updated_at":   time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *RequestRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}
