package repository

import (
	"context"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkRepository handles company/customer links. Both sides carry a unique
// index, so a second link for either side fails at the database.
type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.CompanyCustomerLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// GetByCompanyID returns the link of a company or gorm.ErrRecordNotFound
func (r *LinkRepository) GetByCompanyID(ctx context.Context, companyID uuid.UUID) (*domain.CompanyCustomerLink, error) {
	var link domain.CompanyCustomerLink
	err := r.db.WithContext(ctx).First(&link, "company_id = ?", companyID).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByCustomerID returns the link of a customer or gorm.ErrRecordNotFound
func (r *LinkRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.CompanyCustomerLink, error) {
	var link domain.CompanyCustomerLink
	err := r.db.WithContext(ctx).First(&link, "customer_id = ?", customerID).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ExistsForEither reports whether the company or the customer is linked
func (r *LinkRepository) ExistsForEither(ctx context.Context, companyID, customerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.CompanyCustomerLink{}).
		Where("company_id = ? OR customer_id = ?", companyID, customerID).
		Count(&count).Error
	return count > 0, err
}

func (r *LinkRepository) DeleteByCompanyIDs(ctx context.Context, companyIDs []uuid.UUID) (int64, error) {
	if len(companyIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&domain.CompanyCustomerLink{}, "company_id IN ?", companyIDs)
	return result.RowsAffected, result.Error
}

func (r *LinkRepository) DeleteByCustomerIDs(ctx context.Context, customerIDs []uuid.UUID) (int64, error) {
	if len(customerIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&domain.CompanyCustomerLink{}, "customer_id IN ?", customerIDs)
	return result.RowsAffected, result.Error
}

// ListByCompanyIDs returns the links of the given companies
func (r *LinkRepository) ListByCompanyIDs(ctx context.Context, companyIDs []uuid.UUID) ([]domain.CompanyCustomerLink, error) {
	var links []domain.CompanyCustomerLink
	if len(companyIDs) == 0 {
		return links, nil
	}
	err := r.db.WithContext(ctx).Where("company_id IN ?", companyIDs).Find(&links).Error
	return links, err
}

// ListByCustomerIDs returns the links of the given customers
func (r *LinkRepository) ListByCustomerIDs(ctx context.Context, customerIDs []uuid.UUID) ([]domain.CompanyCustomerLink, error) {
	var links []domain.CompanyCustomerLink
	if len(customerIDs) == 0 {
		return links, nil
	}
	err := r.db.WithContext(ctx).Where("customer_id IN ?", customerIDs).Find(&links).Error
	return links, err
}

// MoveCompany re-points a link at another company
func (r *LinkRepository) MoveCompany(ctx context.Context, linkID, companyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.CompanyCustomerLink{}).
		Where("id = ?", linkID).
		Updates(map[string]interface{}{"company_id": companyID, "method": domain.LinkMethodMerged}).Error
}

// MoveCustomer re-points a link at another customer
func (r *LinkRepository) MoveCustomer(ctx context.Context, linkID, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.CompanyCustomerLink{}).
		Where("id = ?", linkID).
		Updates(map[string]interface{}{"customer_id": customerID, "method": domain.LinkMethodMerged}).Error
}

func (r *LinkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.CompanyCustomerLink{}).Count(&count).Error
	return count, err
}
