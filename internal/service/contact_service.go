package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/spreadsheet"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContactSourceForm marks contacts created through the public contact form
const ContactSourceForm = "contact_form"

// ContactSourceImport marks contacts created by a spreadsheet import
const ContactSourceImport = "import"

// importColumns are the recognised spreadsheet columns; name is mandatory
var importColumns = []string{"name", "email", "phone", "company", "service", "product", "message", "priority", "source"}

// ContactService handles business logic for contact form submissions
type ContactService struct {
	contactRepo *repository.ContactRepository
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(contactRepo *repository.ContactRepository, logger *zap.Logger) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Create stores a contact form submission
func (s *ContactService) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.ContactDTO, error) {
	contact := &domain.Contact{
		Name:     strings.TrimSpace(req.Name),
		Email:    domain.NormalizeEmail(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Company:  strings.TrimSpace(req.Company),
		Service:  req.Service,
		Product:  req.Product,
		Message:  req.Message,
		Status:   domain.ContactStatusNew,
		Priority: req.Priority,
		Source:   req.Source,
	}
	if !contact.Priority.IsValid() {
		contact.Priority = domain.PriorityNormal
	}
	if contact.Source == "" {
		contact.Source = ContactSourceForm
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.logger.Info("contact created",
		zap.String("contact_id", contact.ID.String()),
		zap.String("source", contact.Source))

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.getContact(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) List(ctx context.Context, filters *repository.ContactFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.contactRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(page.Items))
	for i := range page.Items {
		dtos[i] = mapper.ToContactDTO(&page.Items[i])
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

// Update applies the fields present in req
func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.getContact(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		contact.Email = domain.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Company != nil {
		contact.Company = *req.Company
	}
	if req.Service != nil {
		contact.Service = *req.Service
	}
	if req.Product != nil {
		contact.Product = *req.Product
	}
	if req.Message != nil {
		contact.Message = *req.Message
	}
	if req.Status != nil {
		contact.Status = *req.Status
	}
	if req.Priority != nil {
		contact.Priority = *req.Priority
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContactStatus) (*domain.ContactDTO, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown contact status %q", ErrInvalidInput, status)
	}
	if err := s.contactRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to update contact status: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	s.logger.Info("contact deleted", zap.String("contact_id", id.String()), zap.String("deleted_by", actor(ctx)))
	return nil
}

// BulkDelete deletes each contact independently. A failure is counted and
// the remaining ids are still processed.
func (s *ContactService) BulkDelete(ctx context.Context, ids []uuid.UUID) *domain.BulkResult {
	result := &domain.BulkResult{}
	for _, id := range ids {
		result.Processed++
		if err := s.Delete(ctx, id); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.BulkError{ID: id.String(), Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	s.logger.Info("bulk contact delete finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))
	return result
}

// BulkUpdateStatus sets status on each contact independently
func (s *ContactService) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.ContactStatus) (*domain.BulkResult, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown contact status %q", ErrInvalidInput, status)
	}
	result := &domain.BulkResult{}
	for _, id := range ids {
		result.Processed++
		if err := s.contactRepo.UpdateStatus(ctx, id, status); err != nil {
			msg := err.Error()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				msg = ErrContactNotFound.Error()
			}
			result.Failed++
			result.Errors = append(result.Errors, domain.BulkError{ID: id.String(), Error: msg})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// ImportXLSX creates one contact per spreadsheet row. Rows failing
// validation are reported with their sheet row number and skipped.
func (s *ContactService) ImportXLSX(ctx context.Context, r io.Reader) (*domain.BulkResult, error) {
	table, err := spreadsheet.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !table.HasColumn("name") {
		return nil, fmt.Errorf("%w: spreadsheet must have a name column (columns: %s)", ErrInvalidInput, strings.Join(importColumns, ", "))
	}

	result := &domain.BulkResult{}
	for _, row := range table.Rows {
		result.Processed++
		req := &domain.CreateContactRequest{
			Name:     row.Get("name"),
			Email:    row.Get("email"),
			Phone:    row.Get("phone"),
			Company:  row.Get("company"),
			Service:  row.Get("service"),
			Product:  row.Get("product"),
			Message:  row.Get("message"),
			Priority: domain.MapPriority(row.Get("priority")),
			Source:   row.Get("source"),
		}
		if req.Source == "" {
			req.Source = ContactSourceImport
		}
		if err := s.validate.Struct(req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.BulkError{Row: row.Number, Error: describeValidation(err)})
			continue
		}
		if _, err := s.Create(ctx, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.BulkError{Row: row.Number, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}

	s.logger.Info("contact import finished",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *ContactService) getContact(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// describeValidation renders validator errors as "field: message" pairs
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), domain.GetValidationMessage(fe.Tag())))
	}
	return strings.Join(parts, "; ")
}
