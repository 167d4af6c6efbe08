package repository

import (
	"context"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyFilters holds filters for listing companies
type CompanyFilters struct {
	Search string
	Type   *domain.CompanyType
	Status *domain.CompanyStatus
}

// CompanyRepository handles database operations for companies
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByIDs removes several companies at once
func (r *CompanyRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&domain.Company{}, "id IN ?", ids)
	return result.RowsAffected, result.Error
}

// List returns a cursor page of companies, newest first
func (r *CompanyRepository) List(ctx context.Context, filters *CompanyFilters, params CursorParams) (Page[domain.Company], error) {
	query := r.db.WithContext(ctx).Model(&domain.Company{})
	if filters != nil {
		if filters.Search != "" {
			p := likePattern(filters.Search)
			query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(city) LIKE ? ESCAPE '!'", p, p, p)
		}
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
	}

	query, err := applyCursor(ctx, r.db, query, "companies", params)
	if err != nil {
		return Page[domain.Company]{}, err
	}

	var companies []domain.Company
	if err := query.Find(&companies).Error; err != nil {
		return Page[domain.Company]{}, err
	}
	return newPage(companies, params.Limit, func(c *domain.Company) uuid.UUID { return c.ID }), nil
}

// ListAll returns every company, oldest first
func (r *CompanyRepository) ListAll(ctx context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Company, error) {
	var companies []domain.Company
	if len(ids) == 0 {
		return companies, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&companies).Error
	return companies, err
}

// FindByNameOrEmail returns companies whose name or email equals the given
// values, ignoring case. With unlinkedOnly, companies that already have a
// customer link are excluded.
func (r *CompanyRepository) FindByNameOrEmail(ctx context.Context, name, email string, unlinkedOnly bool) ([]domain.Company, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	email = domain.NormalizeEmail(email)
	if name == "" && email == "" {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&domain.Company{})
	switch {
	case name != "" && email != "":
		query = query.Where("LOWER(name) = ? OR LOWER(email) = ?", name, email)
	case name != "":
		query = query.Where("LOWER(name) = ?", name)
	default:
		query = query.Where("LOWER(email) = ?", email)
	}
	if unlinkedOnly {
		query = query.Where("id NOT IN (?)", r.db.Model(&domain.CompanyCustomerLink{}).Select("company_id"))
	}

	var companies []domain.Company
	err := query.Order("created_at ASC").Find(&companies).Error
	return companies, err
}

// UpdateStats overwrites the denormalized counters
func (r *CompanyRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats domain.EntityStats) error {
	return r.db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("id = ?", id).
		Updates(statsColumns(stats)).Error
}

func (r *CompanyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Company{}).Count(&count).Error
	return count, err
}

// statsColumns maps EntityStats to its embedded stats_ columns
func statsColumns(stats domain.EntityStats) map[string]interface{} {
	return map[string]interface{}{
		"stats_total_conversations": stats.TotalConversations,
		"stats_total_cases":         stats.TotalCases,
		"stats_total_value":         stats.TotalValue,
		"stats_won_cases":           stats.WonCases,
		"stats_lost_cases":          stats.LostCases,
		"updated_at":                time.Now().UTC(),
	}
}
