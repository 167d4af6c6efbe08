package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompanyService handles the legacy company records
type CompanyService struct {
	companyRepo *repository.CompanyRepository
	linkRepo    *repository.LinkRepository
	customers   *CustomerService
	logger      *zap.Logger
	db          *gorm.DB
}

// NewCompanyService creates a new company service
func NewCompanyService(
	companyRepo *repository.CompanyRepository,
	linkRepo *repository.LinkRepository,
	customers *CustomerService,
	logger *zap.Logger,
	db *gorm.DB,
) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		linkRepo:    linkRepo,
		customers:   customers,
		logger:      logger,
		db:          db,
	}
}

func (s *CompanyService) Create(ctx context.Context, req *domain.CreateCompanyRequest) (*domain.CompanyDTO, error) {
	company := &domain.Company{
		Name:     strings.TrimSpace(req.Name),
		Email:    domain.NormalizeEmail(req.Email),
		Phone:    req.Phone,
		Website:  req.Website,
		Address:  req.Address,
		City:     req.City,
		Country:  req.Country,
		Industry: req.Industry,
		Type:     req.Type,
		Status:   domain.CompanyStatusActive,
		Priority: req.Priority,
		Tags:     normalizeTags(req.Tags),
		Notes:    req.Notes,
		Source:   req.Source,
	}
	if company.Type == "" {
		company.Type = domain.CompanyTypeLead
	}
	if !company.Priority.IsValid() {
		company.Priority = domain.PriorityNormal
	}

	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.Info("company created", zap.String("company_id", company.ID.String()), zap.String("name", company.Name))

	dto := mapper.ToCompanyDTO(company, nil)
	return &dto, nil
}

func (s *CompanyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CompanyDTO, error) {
	company, err := s.getCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	customerID, err := s.linkedCustomerID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToCompanyDTO(company, customerID)
	return &dto, nil
}

func (s *CompanyService) List(ctx context.Context, filters *repository.CompanyFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.companyRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	ids := make([]uuid.UUID, len(page.Items))
	for i := range page.Items {
		ids[i] = page.Items[i].ID
	}
	links, err := s.linkRepo.ListByCompanyIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list company links: %w", err)
	}
	linked := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		linked[l.CompanyID] = l.CustomerID
	}

	dtos := make([]domain.CompanyDTO, len(page.Items))
	for i := range page.Items {
		var customerID *uuid.UUID
		if id, ok := linked[page.Items[i].ID]; ok {
			customerID = &id
		}
		dtos[i] = mapper.ToCompanyDTO(&page.Items[i], customerID)
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

func (s *CompanyService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCompanyRequest) (*domain.CompanyDTO, error) {
	company, err := s.getCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		company.Email = domain.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Website != nil {
		company.Website = *req.Website
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.City != nil {
		company.City = *req.City
	}
	if req.Country != nil {
		company.Country = *req.Country
	}
	if req.Industry != nil {
		company.Industry = *req.Industry
	}
	if req.Type != nil {
		company.Type = *req.Type
	}
	if req.Status != nil {
		company.Status = *req.Status
	}
	if req.Priority != nil {
		company.Priority = *req.Priority
	}
	if req.Tags != nil {
		company.Tags = normalizeTags(req.Tags)
	}
	if req.Notes != nil {
		company.Notes = *req.Notes
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a company. Requests pointing at it lose their company id but
// keep the company name, and its customer link is removed.
func (s *CompanyService) Delete(ctx context.Context, id uuid.UUID) error {
	var cleared int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cleared, err = repository.NewRequestRepository(tx).ClearCompany(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to detach requests: %w", err)
		}
		if _, err := repository.NewLinkRepository(tx).DeleteByCompanyIDs(ctx, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("failed to delete company link: %w", err)
		}
		if err := repository.NewCompanyRepository(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return fmt.Errorf("failed to delete company: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("company deleted",
		zap.String("company_id", id.String()),
		zap.Int64("requests_detached", cleared),
		zap.String("deleted_by", actor(ctx)))
	return nil
}

// RecalculateStats copies the counters of each linked customer onto its
// company. Unlinked companies are reset to zero.
func (s *CompanyService) RecalculateStats(ctx context.Context) (*domain.RecalculateResult, error) {
	companies, err := s.companyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	ids := make([]uuid.UUID, len(companies))
	for i := range companies {
		ids[i] = companies[i].ID
	}
	links, err := s.linkRepo.ListByCompanyIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list company links: %w", err)
	}
	linked := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		linked[l.CompanyID] = l.CustomerID
	}

	result := &domain.RecalculateResult{}
	for _, company := range companies {
		result.Checked++
		var stats domain.EntityStats
		if customerID, ok := linked[company.ID]; ok {
			stats, err = s.customers.computeStats(ctx, customerID)
			if err != nil {
				return nil, err
			}
		}
		if stats == company.Stats {
			continue
		}
		if err := s.companyRepo.UpdateStats(ctx, company.ID, stats); err != nil {
			return nil, fmt.Errorf("failed to update company stats: %w", err)
		}
		result.Fixed++
	}

	s.logger.Info("company stats recalculated", zap.Int("checked", result.Checked), zap.Int("fixed", result.Fixed))
	return result, nil
}

func (s *CompanyService) getCompany(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

func (s *CompanyService) linkedCustomerID(ctx context.Context, companyID uuid.UUID) (*uuid.UUID, error) {
	link, err := s.linkRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company link: %w", err)
	}
	return &link.CustomerID, nil
}

// normalizeTags trims, drops empties and removes duplicates keeping order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
