package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CustomerService handles CRM v2 customers
type CustomerService struct {
	customerRepo     *repository.CustomerRepository
	linkRepo         *repository.LinkRepository
	caseRepo         *repository.CaseRepository
	orderRepo        *repository.OrderRepository
	conversationRepo *repository.ConversationRepository
	logger           *zap.Logger
	db               *gorm.DB
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo *repository.CustomerRepository,
	linkRepo *repository.LinkRepository,
	caseRepo *repository.CaseRepository,
	orderRepo *repository.OrderRepository,
	conversationRepo *repository.ConversationRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *CustomerService {
	return &CustomerService{
		customerRepo:     customerRepo,
		linkRepo:         linkRepo,
		caseRepo:         caseRepo,
		orderRepo:        orderRepo,
		conversationRepo: conversationRepo,
		logger:           logger,
		db:               db,
	}
}

func (s *CustomerService) Create(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.CustomerDTO, error) {
	customer := &domain.Customer{
		Name:        strings.TrimSpace(req.Name),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Email:       domain.NormalizeEmail(req.Email),
		Phone:       req.Phone,
		Type:        req.Type,
		Status:      domain.CustomerStatusLead,
		Priority:    req.Priority,
		Source:      req.Source,
		Tags:        normalizeTags(req.Tags),
		Notes:       req.Notes,
	}
	if customer.Type == "" {
		customer.Type = domain.CustomerTypeBusiness
	}
	if !customer.Priority.IsValid() {
		customer.Priority = domain.PriorityNormal
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created", zap.String("customer_id", customer.ID.String()), zap.String("name", customer.Name))

	dto := mapper.ToCustomerDTO(customer, nil)
	return &dto, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerDTO, error) {
	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	var companyID *uuid.UUID
	link, err := s.linkRepo.GetByCustomerID(ctx, id)
	switch {
	case err == nil:
		companyID = &link.CompanyID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to get customer link: %w", err)
	}

	dto := mapper.ToCustomerDTO(customer, companyID)
	return &dto, nil
}

func (s *CustomerService) List(ctx context.Context, filters *repository.CustomerFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.customerRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	ids := make([]uuid.UUID, len(page.Items))
	for i := range page.Items {
		ids[i] = page.Items[i].ID
	}
	links, err := s.linkRepo.ListByCustomerIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer links: %w", err)
	}
	linked := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		linked[l.CustomerID] = l.CompanyID
	}

	dtos := make([]domain.CustomerDTO, len(page.Items))
	for i := range page.Items {
		var companyID *uuid.UUID
		if id, ok := linked[page.Items[i].ID]; ok {
			companyID = &id
		}
		dtos[i] = mapper.ToCustomerDTO(&page.Items[i], companyID)
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.CustomerDTO, error) {
	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.CompanyName != nil {
		customer.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Email != nil {
		customer.Email = domain.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Type != nil {
		customer.Type = *req.Type
	}
	if req.Status != nil {
		customer.Status = *req.Status
	}
	if req.Priority != nil {
		customer.Priority = *req.Priority
	}
	if req.Tags != nil {
		customer.Tags = normalizeTags(req.Tags)
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a customer and its company link. Customers that still own
// cases, orders or conversations must be merged instead.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	agg, err := s.caseRepo.AggregateForCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count customer cases: %w", err)
	}
	conversations, err := s.conversationRepo.CountByCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count customer conversations: %w", err)
	}
	orders, err := s.orderRepo.CountByCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count customer orders: %w", err)
	}
	if agg.Total > 0 || orders > 0 || conversations > 0 {
		return fmt.Errorf("%w: customer has %d cases, %d orders and %d conversations",
			ErrConflict, agg.Total, orders, conversations)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewLinkRepository(tx).DeleteByCustomerIDs(ctx, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("failed to delete customer link: %w", err)
		}
		if err := repository.NewCustomerRepository(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted", zap.String("customer_id", id.String()), zap.String("deleted_by", actor(ctx)))
	return nil
}

// RefreshStats recomputes the counters of one customer
func (s *CustomerService) RefreshStats(ctx context.Context, id uuid.UUID) error {
	stats, err := s.computeStats(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.UpdateStats(ctx, id, stats); err != nil {
		return fmt.Errorf("failed to update customer stats: %w", err)
	}
	return nil
}

// RecalculateStats repairs the counters of every customer
func (s *CustomerService) RecalculateStats(ctx context.Context) (*domain.RecalculateResult, error) {
	customers, err := s.customerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	result := &domain.RecalculateResult{}
	for _, customer := range customers {
		result.Checked++
		stats, err := s.computeStats(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		if stats == customer.Stats {
			continue
		}
		if err := s.customerRepo.UpdateStats(ctx, customer.ID, stats); err != nil {
			return nil, fmt.Errorf("failed to update customer stats: %w", err)
		}
		result.Fixed++
	}

	s.logger.Info("customer stats recalculated", zap.Int("checked", result.Checked), zap.Int("fixed", result.Fixed))
	return result, nil
}

// TouchLastContact records the time of the latest interaction
func (s *CustomerService) TouchLastContact(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := s.customerRepo.TouchLastContact(ctx, id, at); err != nil {
		return fmt.Errorf("failed to update last contact: %w", err)
	}
	return nil
}

func (s *CustomerService) computeStats(ctx context.Context, customerID uuid.UUID) (domain.EntityStats, error) {
	agg, err := s.caseRepo.AggregateForCustomer(ctx, customerID)
	if err != nil {
		return domain.EntityStats{}, fmt.Errorf("failed to aggregate cases: %w", err)
	}
	conversations, err := s.conversationRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return domain.EntityStats{}, fmt.Errorf("failed to count conversations: %w", err)
	}
	return domain.EntityStats{
		TotalConversations: int(conversations),
		TotalCases:         agg.Total,
		TotalValue:         agg.WonValue,
		WonCases:           agg.Won,
		LostCases:          agg.Lost,
	}, nil
}

func (s *CustomerService) getCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}
