package repository

import (
	"context"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerFilters holds filters for listing customers
type CustomerFilters struct {
	Search string
	Type   *domain.CustomerType
	Status *domain.CustomerStatus
}

// CustomerRepository handles database operations for customers
type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByIDs removes several customers at once
func (r *CustomerRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&domain.Customer{}, "id IN ?", ids)
	return result.RowsAffected, result.Error
}

// List returns a cursor page of customers, newest first
func (r *CustomerRepository) List(ctx context.Context, filters *CustomerFilters, params CursorParams) (Page[domain.Customer], error) {
	query := r.db.WithContext(ctx).Model(&domain.Customer{})
	if filters != nil {
		if filters.Search != "" {
			p := likePattern(filters.Search)
			query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(company_name) LIKE ? ESCAPE '!'", p, p, p)
		}
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
	}

	query, err := applyCursor(ctx, r.db, query, "customers", params)
	if err != nil {
		return Page[domain.Customer]{}, err
	}

	var customers []domain.Customer
	if err := query.Find(&customers).Error; err != nil {
		return Page[domain.Customer]{}, err
	}
	return newPage(customers, params.Limit, func(c *domain.Customer) uuid.UUID { return c.ID }), nil
}

// ListAll returns every customer, oldest first
func (r *CustomerRepository) ListAll(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&customers).Error
	return customers, err
}

func (r *CustomerRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Customer, error) {
	var customers []domain.Customer
	if len(ids) == 0 {
		return customers, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&customers).Error
	return customers, err
}

// FindByNameOrEmail returns customers whose name, company name or email
// equals the given values, ignoring case. With unlinkedOnly, customers that
// already have a company link are excluded.
func (r *CustomerRepository) FindByNameOrEmail(ctx context.Context, name, email string, unlinkedOnly bool) ([]domain.Customer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	email = domain.NormalizeEmail(email)
	if name == "" && email == "" {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&domain.Customer{})
	switch {
	case name != "" && email != "":
		query = query.Where("LOWER(name) = ? OR LOWER(company_name) = ? OR LOWER(email) = ?", name, name, email)
	case name != "":
		query = query.Where("LOWER(name) = ? OR LOWER(company_name) = ?", name, name)
	default:
		query = query.Where("LOWER(email) = ?", email)
	}
	if unlinkedOnly {
		query = query.Where("id NOT IN (?)", r.db.Model(&domain.CompanyCustomerLink{}).Select("customer_id"))
	}

	var customers []domain.Customer
	err := query.Order("created_at ASC").Find(&customers).Error
	return customers, err
}

// UpdateStats overwrites the denormalized counters
func (r *CustomerRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats domain.EntityStats) error {
	return r.db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Updates(statsColumns(stats)).Error
}

// TouchLastContact records the time of the latest interaction
func (r *CustomerRepository) TouchLastContact(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Update("last_contact_at", at).Error
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).Count(&count).Error
	return count, err
}
