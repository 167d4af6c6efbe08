package repository

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CaseFilters holds filters for listing cases
type CaseFilters struct {
	Search     string
	Status     *domain.CaseStatus
	Type       *domain.CaseType
	CustomerID *uuid.UUID
	AssignedTo string
}

// CaseRepository handles database operations for cases
type CaseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Case, error) {
	var c domain.Case
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByIDForUpdate reads a case and holds a row lock until the surrounding
// transaction ends
func (r *CaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Case, error) {
	var c domain.Case
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AttachOrder points a case at its order. It reports false when the case
// already has an order or does not exist.
func (r *CaseRepository) AttachOrder(ctx context.Context, id, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Case{}).
		Where("id = ? AND order_id IS NULL", id).
		Updates(map[string]interface{}{"order_id": orderID, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *CaseRepository) Update(ctx context.Context, c *domain.Case) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Case{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a cursor page of cases, newest first
func (r *CaseRepository) List(ctx context.Context, filters *CaseFilters, params CursorParams) (Page[domain.Case], error) {
	query := r.db.WithContext(ctx).Model(&domain.Case{})
	if filters != nil {
		if filters.Search != "" {
			p := likePattern(filters.Search)
			query = query.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(customer_name) LIKE ? ESCAPE '!'", p, p)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.CustomerID != nil {
			query = query.Where("customer_id = ?", *filters.CustomerID)
		}
		if filters.AssignedTo != "" {
			query = query.Where("assigned_to = ?", filters.AssignedTo)
		}
	}

	query, err := applyCursor(ctx, r.db, query, "cases", params)
	if err != nil {
		return Page[domain.Case]{}, err
	}

	var cases []domain.Case
	if err := query.Find(&cases).Error; err != nil {
		return Page[domain.Case]{}, err
	}
	return newPage(cases, params.Limit, func(c *domain.Case) uuid.UUID { return c.ID }), nil
}

// ListOpen returns cases that are neither won nor lost, oldest status change first
func (r *CaseRepository) ListOpen(ctx context.Context, limit int) ([]domain.Case, error) {
	var cases []domain.Case
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []domain.CaseStatus{domain.CaseStatusWon, domain.CaseStatusLost}).
		Order("status_changed_at ASC").
		Limit(limit).
		Find(&cases).Error
	return cases, err
}

// ListInStatusSince returns cases in one of statuses whose status changed before t
func (r *CaseRepository) ListInStatusSince(ctx context.Context, statuses []domain.CaseStatus, before time.Time, limit int) ([]domain.Case, error) {
	var cases []domain.Case
	err := r.db.WithContext(ctx).
		Where("status IN ? AND status_changed_at < ?", statuses, before).
		Order("status_changed_at ASC").
		Limit(limit).
		Find(&cases).Error
	return cases, err
}

// ListRecent returns the most recent cases up to limit
func (r *CaseRepository) ListRecent(ctx context.Context, limit int) ([]domain.Case, error) {
	var cases []domain.Case
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&cases).Error
	return cases, err
}

// ReassignCustomer moves cases from the given customers to target
func (r *CaseRepository) ReassignCustomer(ctx context.Context, from []uuid.UUID, target *domain.Customer) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Case{}).
		Where("customer_id IN ?", from).
		Updates(map[string]interface{}{
			"customer_id":   target.ID,
			"customer_name": target.Name,
			"updated_at":    time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// CaseAggregate holds per-customer case counters
type CaseAggregate struct {
	Total    int
	Won      int
	Lost     int
	WonValue float64
}

// AggregateForCustomer counts cases and sums won value for a customer
func (r *CaseRepository) AggregateForCustomer(ctx context.Context, customerID uuid.UUID) (CaseAggregate, error) {
	var agg CaseAggregate
	err := r.db.WithContext(ctx).
		Model(&domain.Case{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS won, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS lost, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN financials_final_value ELSE 0 END), 0) AS won_value",
			domain.CaseStatusWon, domain.CaseStatusLost, domain.CaseStatusWon,
		).
		Where("customer_id = ?", customerID).
		Scan(&agg).Error
	return agg, err
}
