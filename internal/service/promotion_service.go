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

// PromotionService turns contact form submissions into sales requests
type PromotionService struct {
	contactRepo *repository.ContactRepository
	companyRepo *repository.CompanyRepository
	requests    *RequestService
	logger      *zap.Logger
	db          *gorm.DB
}

// NewPromotionService creates a new promotion service
func NewPromotionService(
	contactRepo *repository.ContactRepository,
	companyRepo *repository.CompanyRepository,
	requests *RequestService,
	logger *zap.Logger,
	db *gorm.DB,
) *PromotionService {
	return &PromotionService{
		contactRepo: contactRepo,
		companyRepo: companyRepo,
		requests:    requests,
		logger:      logger,
		db:          db,
	}
}

// Preview shows what promoting the contact would create without writing
// anything
func (s *PromotionService) Preview(ctx context.Context, contactID uuid.UUID) (*domain.PromotionPreview, error) {
	contact, err := s.getContact(ctx, s.contactRepo, contactID)
	if err != nil {
		return nil, err
	}

	company, err := s.matchCompany(ctx, s.companyRepo, contact)
	if err != nil {
		return nil, err
	}

	preview := &domain.PromotionPreview{
		Contact:         mapper.ToContactDTO(contact),
		NeedsNewCompany: company == nil,
		Draft:           BuildRequestDraft(contact),
	}
	if company != nil {
		dto := mapper.ToCompanyDTO(company, nil)
		preview.MatchedCompany = &dto
	}
	return preview, nil
}

// Promote creates the request (and optionally the company) and marks the
// contact in progress. All writes share one transaction.
func (s *PromotionService) Promote(ctx context.Context, contactID uuid.UUID, req *domain.PromoteContactRequest) (*domain.PromotionResult, error) {
	if req == nil {
		req = &domain.PromoteContactRequest{}
	}

	var result domain.PromotionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contactRepo := repository.NewContactRepository(tx)
		companyRepo := repository.NewCompanyRepository(tx)

		contact, err := s.getContact(ctx, contactRepo, contactID)
		if err != nil {
			return err
		}
		if contact.RequestID != nil {
			return fmt.Errorf("%w: contact was already promoted to request %s", ErrConflict, contact.RequestID)
		}

		var company *domain.Company
		if req.CompanyID != nil {
			company, err = companyRepo.GetByID(ctx, *req.CompanyID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCompanyNotFound
				}
				return fmt.Errorf("failed to get company: %w", err)
			}
		} else {
			company, err = s.matchCompany(ctx, companyRepo, contact)
			if err != nil {
				return err
			}
		}

		if company == nil && req.CreateCompany {
			company = companyFromContact(contact)
			if err := companyRepo.Create(ctx, company); err != nil {
				return fmt.Errorf("failed to create company: %w", err)
			}
			result.CompanyCreated = true
		}

		request := requestFromContact(contact, req)
		if company != nil {
			request.CompanyID = &company.ID
			request.CompanyName = company.Name
		}
		if err := s.requests.insertNumbered(ctx, tx, request); err != nil {
			return err
		}

		if err := contactRepo.MarkPromoted(ctx, contact.ID, request.ID); err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}
		contact.Status = domain.ContactStatusInProgress
		contact.RequestID = &request.ID

		result.Request = mapper.ToRequestDTO(request)
		result.Contact = mapper.ToContactDTO(contact)
		if company != nil {
			dto := mapper.ToCompanyDTO(company, nil)
			result.Company = &dto
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact promoted",
		zap.String("contact_id", contactID.String()),
		zap.String("request_number", result.Request.RequestNumber),
		zap.Bool("company_created", result.CompanyCreated))
	return &result, nil
}

// BuildRequestDraft derives the request fields from a contact
func BuildRequestDraft(contact *domain.Contact) domain.RequestDraft {
	match := domain.DetermineCategoryFromService(contact.Service, contact.Product, contact.Message)
	draft := domain.RequestDraft{
		Title:             draftTitle(contact),
		Description:       contact.Message,
		Requirements:      buildRequirements(contact),
		Category:          match.Category,
		AmbiguousCategory: match.Ambiguous,
		Priority:          contact.Priority,
	}
	if match.Ambiguous {
		draft.MatchedCategories = match.Matches
	}
	if !draft.Priority.IsValid() {
		draft.Priority = domain.PriorityNormal
	}
	return draft
}

func draftTitle(contact *domain.Contact) string {
	subject := strings.TrimSpace(contact.Service)
	if subject == "" {
		subject = strings.TrimSpace(contact.Product)
	}
	who := strings.TrimSpace(contact.Company)
	if who == "" {
		who = strings.TrimSpace(contact.Name)
	}
	switch {
	case subject != "" && who != "":
		return fmt.Sprintf("%s - %s", who, subject)
	case subject != "":
		return subject
	case who != "":
		return who + " talebi"
	}
	return "İletişim formu talebi"
}

func buildRequirements(contact *domain.Contact) string {
	var lines []string
	if v := strings.TrimSpace(contact.Service); v != "" {
		lines = append(lines, "Hizmet: "+v)
	}
	if v := strings.TrimSpace(contact.Product); v != "" {
		lines = append(lines, "Ürün: "+v)
	}
	if v := strings.TrimSpace(contact.Message); v != "" {
		lines = append(lines, "Mesaj: "+v)
	}
	return strings.Join(lines, "\n")
}

func requestFromContact(contact *domain.Contact, req *domain.PromoteContactRequest) *domain.Request {
	draft := BuildRequestDraft(contact)
	request := &domain.Request{
		Title:        draft.Title,
		Description:  draft.Description,
		Requirements: draft.Requirements,
		Category:     draft.Category,
		Status:       domain.RequestStatusNew,
		Priority:     draft.Priority,
		Source:       ContactSourceForm,
		ContactID:    &contact.ID,
		ContactName:  contact.Name,
		ContactEmail: contact.Email,
		ContactPhone: contact.Phone,
		Currency:     "TRY",
		Notes:        []domain.RequestNote{},
		FollowUps:    []domain.RequestFollowUp{},
	}
	if req.Title != nil {
		request.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		request.Category = *req.Category
	}
	if req.Priority != nil {
		request.Priority = domain.MapPriority(*req.Priority)
	}
	if req.EstimatedValue != nil {
		request.EstimatedValue = *req.EstimatedValue
	}
	return request
}

func companyFromContact(contact *domain.Contact) *domain.Company {
	name := strings.TrimSpace(contact.Company)
	if name == "" {
		name = strings.TrimSpace(contact.Name)
	}
	return &domain.Company{
		Name:     name,
		Email:    contact.Email,
		Phone:    contact.Phone,
		Type:     domain.CompanyTypeLead,
		Status:   domain.CompanyStatusActive,
		Priority: domain.PriorityNormal,
		Tags:     []string{},
		Source:   ContactSourceForm,
	}
}

// matchCompany looks a company up by the contact's email or by its company
// name, falling back to the contact name
func (s *PromotionService) matchCompany(ctx context.Context, repo *repository.CompanyRepository, contact *domain.Contact) (*domain.Company, error) {
	name := contact.Company
	if strings.TrimSpace(name) == "" {
		name = contact.Name
	}
	companies, err := repo.FindByNameOrEmail(ctx, name, contact.Email, false)
	if err != nil {
		return nil, fmt.Errorf("failed to look up company: %w", err)
	}
	if len(companies) == 0 {
		return nil, nil
	}
	return &companies[0], nil
}

func (s *PromotionService) getContact(ctx context.Context, repo *repository.ContactRepository, id uuid.UUID) (*domain.Contact, error) {
	contact, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}
