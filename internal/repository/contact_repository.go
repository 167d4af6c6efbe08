package repository

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactFilters holds filters for listing contacts
type ContactFilters struct {
	Search   string
	Status   *domain.ContactStatus
	Priority *domain.Priority
}

// ContactRepository handles database operations for contacts
type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus sets the status of a single contact
func (r *ContactRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContactStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
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

// MarkPromoted links the contact to the request it was promoted into
func (r *ContactRepository) MarkPromoted(ctx context.Context, id, requestID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.ContactStatusInProgress,
			"request_id": requestID,
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

// ClearRequest unlinks contacts from a deleted request so they can be
// promoted again
func (r *ContactRepository) ClearRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"request_id": nil,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// List returns a cursor page of contacts, newest first
func (r *ContactRepository) List(ctx context.Context, filters *ContactFilters, params CursorParams) (Page[domain.Contact], error) {
	query := r.db.WithContext(ctx).Model(&domain.Contact{})
	if filters != nil {
		if filters.Search != "" {
			p := likePattern(filters.Search)
			query = query.Where(
				"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(company) LIKE ? ESCAPE '!'",
				p, p, p,
			)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.Priority != nil {
			query = query.Where("priority = ?", *filters.Priority)
		}
	}

	query, err := applyCursor(ctx, r.db, query, "contacts", params)
	if err != nil {
		return Page[domain.Contact]{}, err
	}

	var contacts []domain.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return Page[domain.Contact]{}, err
	}
	return newPage(contacts, params.Limit, func(c *domain.Contact) uuid.UUID { return c.ID }), nil
}

// ListRecent returns the most recent contacts up to limit
func (r *ContactRepository) ListRecent(ctx context.Context, limit int) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&contacts).Error
	return contacts, err
}

// ListNewCreatedBefore returns contacts still in status new that were created before t
func (r *ContactRepository) ListNewCreatedBefore(ctx context.Context, t time.Time, limit int) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.ContactStatusNew, t).
		Order("created_at ASC").
		Limit(limit).
		Find(&contacts).Error
	return contacts, err
}

func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).Count(&count).Error
	return count, err
}
