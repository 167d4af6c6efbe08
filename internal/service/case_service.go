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

// CaseService manages pipeline cases, their checklists and SLA clocks
type CaseService struct {
	caseRepo     *repository.CaseRepository
	customerRepo *repository.CustomerRepository
	customers    *CustomerService
	settings     *SettingsService
	scanLimit    int
	logger       *zap.Logger
	now          func() time.Time
}

// NewCaseService creates a new case service
func NewCaseService(
	caseRepo *repository.CaseRepository,
	customerRepo *repository.CustomerRepository,
	customers *CustomerService,
	settings *SettingsService,
	scanLimit int,
	logger *zap.Logger,
) *CaseService {
	return &CaseService{
		caseRepo:     caseRepo,
		customerRepo: customerRepo,
		customers:    customers,
		settings:     settings,
		scanLimit:    scanLimit,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a case for a customer with a checklist seeded from the
// template configured for its type
func (s *CaseService) Create(ctx context.Context, req *domain.CreateCaseRequest) (*domain.CaseDTO, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown case type %q", ErrInvalidInput, req.Type)
	}
	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	templates := s.settings.Checklists(ctx).Templates
	c := &domain.Case{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Type:            req.Type,
		Status:          domain.CaseStatusNew,
		StatusChangedAt: s.now(),
		Financials: domain.CaseFinancials{
			QuotedValue: req.QuotedValue,
			Currency:    req.Currency,
		},
		Checklist:  domain.ChecklistFromTemplate(templates[req.Type]),
		AssignedTo: req.AssignedTo,
	}
	if c.Financials.Currency == "" {
		c.Financials.Currency = "TRY"
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}
	s.refreshCustomer(ctx, c.CustomerID)

	s.logger.Info("case created",
		zap.String("case_id", c.ID.String()),
		zap.String("customer_id", c.CustomerID.String()),
		zap.Int("checklist_items", len(c.Checklist)))

	return s.toDTO(ctx, c), nil
}

func (s *CaseService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CaseDTO, error) {
	c, err := s.getCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, c), nil
}

func (s *CaseService) List(ctx context.Context, filters *repository.CaseFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.caseRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	sla := s.settings.SLA(ctx)
	now := s.now()
	dtos := make([]domain.CaseDTO, len(page.Items))
	for i := range page.Items {
		eval := domain.EvaluateSLA(&page.Items[i], sla, now)
		dtos[i] = mapper.ToCaseDTO(&page.Items[i], &eval)
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

func (s *CaseService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCaseRequest) (*domain.CaseDTO, error) {
	c, err := s.getCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.QuotedValue != nil {
		c.Financials.QuotedValue = *req.QuotedValue
	}
	if req.FinalValue != nil {
		c.Financials.FinalValue = *req.FinalValue
	}
	if req.AssignedTo != nil {
		c.AssignedTo = *req.AssignedTo
	}

	if err := s.caseRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	if c.Status == domain.CaseStatusWon && req.FinalValue != nil {
		s.refreshCustomer(ctx, c.CustomerID)
	}
	return s.toDTO(ctx, c), nil
}

// UpdateStatus moves a case. Moving into a later phase requires the required
// checklist items of the phases being left to be complete unless force is
// set. Closing a case refreshes the customer's counters.
func (s *CaseService) UpdateStatus(ctx context.Context, id uuid.UUID, req *domain.UpdateCaseStatusRequest) (*domain.CaseDTO, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown case status %q", ErrInvalidInput, req.Status)
	}
	c, err := s.getCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == req.Status {
		return s.toDTO(ctx, c), nil
	}

	if blocking := c.BlockingItems(req.Status); len(blocking) > 0 {
		if !req.Force {
			labels := make([]string, len(blocking))
			for i, item := range blocking {
				labels[i] = item.Label
			}
			return nil, fmt.Errorf("%w: %s", ErrChecklistIncomplete, strings.Join(labels, ", "))
		}
		s.logger.Warn("case checklist gate overridden",
			zap.String("case_id", c.ID.String()),
			zap.String("target", string(req.Status)),
			zap.Int("open_items", len(blocking)),
			zap.String("forced_by", actor(ctx)))
	}

	previous := c.Status
	switch {
	case req.Status == domain.CaseStatusOnHold:
		c.HeldFromStatus = previous
	case previous == domain.CaseStatusOnHold:
		c.HeldFromStatus = ""
	}
	switch req.Status {
	case domain.CaseStatusWon:
		if c.Financials.FinalValue == 0 {
			c.Financials.FinalValue = c.Financials.QuotedValue
		}
		c.LostReason = ""
	case domain.CaseStatusLost:
		c.LostReason = strings.TrimSpace(req.LostReason)
	}
	c.Status = req.Status
	c.StatusChangedAt = s.now()

	if err := s.caseRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}

	if previous.IsClosed() || req.Status.IsClosed() {
		s.refreshCustomer(ctx, c.CustomerID)
	}

	s.logger.Info("case status changed",
		zap.String("case_id", c.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(req.Status)),
		zap.String("changed_by", actor(ctx)))

	return s.toDTO(ctx, c), nil
}

// ToggleChecklistItem flips the completion of one checklist item
func (s *CaseService) ToggleChecklistItem(ctx context.Context, id, itemID uuid.UUID) (*domain.CaseDTO, error) {
	c, err := s.getCase(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Checklist {
		item := &c.Checklist[i]
		if item.ID != itemID {
			continue
		}
		found = true
		item.Completed = !item.Completed
		if item.Completed {
			now := s.now()
			item.CompletedAt = &now
			item.CompletedBy = actor(ctx)
		} else {
			item.CompletedAt = nil
			item.CompletedBy = ""
		}
		break
	}
	if !found {
		return nil, ErrChecklistItemMissing
	}

	if err := s.caseRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update checklist: %w", err)
	}
	return s.toDTO(ctx, c), nil
}

// EvaluateSLA reports how long the case has been in its status against the
// configured thresholds
func (s *CaseService) EvaluateSLA(ctx context.Context, id uuid.UUID) (*domain.SLAEvaluation, error) {
	c, err := s.getCase(ctx, id)
	if err != nil {
		return nil, err
	}
	eval := domain.EvaluateSLA(c, s.settings.SLA(ctx), s.now())
	return &eval, nil
}

// ListSLABreaches returns open cases past their SLA, and past the warning
// threshold too when includeWarnings is set. Longest waiting first.
func (s *CaseService) ListSLABreaches(ctx context.Context, includeWarnings bool) ([]domain.CaseDTO, error) {
	cases, err := s.caseRepo.ListOpen(ctx, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open cases: %w", err)
	}
	sla := s.settings.SLA(ctx)
	now := s.now()

	out := []domain.CaseDTO{}
	for i := range cases {
		eval := domain.EvaluateSLA(&cases[i], sla, now)
		if eval.State == domain.SLAStateBreached || (includeWarnings && eval.State == domain.SLAStateWarning) {
			out = append(out, mapper.ToCaseDTO(&cases[i], &eval))
		}
	}
	return out, nil
}

// Delete removes a case that has not produced an order
func (s *CaseService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.getCase(ctx, id)
	if err != nil {
		return err
	}
	if c.OrderID != nil {
		return ErrCaseHasOrder
	}
	if err := s.caseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}
	s.refreshCustomer(ctx, c.CustomerID)
	s.logger.Info("case deleted", zap.String("case_id", id.String()), zap.String("deleted_by", actor(ctx)))
	return nil
}

func (s *CaseService) refreshCustomer(ctx context.Context, customerID uuid.UUID) {
	if err := s.customers.RefreshStats(ctx, customerID); err != nil {
		s.logger.Warn("failed to refresh customer stats", zap.String("customer_id", customerID.String()), zap.Error(err))
	}
}

func (s *CaseService) toDTO(ctx context.Context, c *domain.Case) *domain.CaseDTO {
	eval := domain.EvaluateSLA(c, s.settings.SLA(ctx), s.now())
	dto := mapper.ToCaseDTO(c, &eval)
	return &dto
}

func (s *CaseService) getCase(ctx context.Context, id uuid.UUID) (*domain.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}
