package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/spreadsheet"
	"github.com/formula-lab/crm-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// exportRowLimit caps the number of requests written to one export workbook
const exportRowLimit = 10000

// RequestService manages sales requests, their notes, follow-ups and
// attachments.
type RequestService struct {
	requestRepo    *repository.RequestRepository
	attachmentRepo *repository.AttachmentRepository
	companyRepo    *repository.CompanyRepository
	numbers        *NumberSequenceService
	files          storage.Storage
	maxUploadBytes int64
	logger         *zap.Logger
	db             *gorm.DB
}

// NewRequestService creates a new request service. maxUploadMB limits
// attachment size.
func NewRequestService(
	requestRepo *repository.RequestRepository,
	attachmentRepo *repository.AttachmentRepository,
	companyRepo *repository.CompanyRepository,
	numbers *NumberSequenceService,
	files storage.Storage,
	maxUploadMB int64,
	logger *zap.Logger,
	db *gorm.DB,
) *RequestService {
	return &RequestService{
		requestRepo:    requestRepo,
		attachmentRepo: attachmentRepo,
		companyRepo:    companyRepo,
		numbers:        numbers,
		files:          files,
		maxUploadBytes: maxUploadMB << 20,
		logger:         logger,
		db:             db,
	}
}

// Create stores a new request with the next REQ number
func (s *RequestService) Create(ctx context.Context, req *domain.CreateRequestRequest) (*domain.RequestDTO, error) {
	request := &domain.Request{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Requirements:   req.Requirements,
		Category:       req.Category,
		Status:         domain.RequestStatusNew,
		Priority:       req.Priority,
		Source:         req.Source,
		ContactName:    req.ContactName,
		ContactEmail:   domain.NormalizeEmail(req.ContactEmail),
		ContactPhone:   req.ContactPhone,
		EstimatedValue: req.EstimatedValue,
		Currency:       req.Currency,
		AssignedTo:     req.AssignedTo,
		Notes:          []domain.RequestNote{},
		FollowUps:      []domain.RequestFollowUp{},
	}
	if !request.Priority.IsValid() {
		request.Priority = domain.PriorityNormal
	}
	if request.Currency == "" {
		request.Currency = "TRY"
	}
	if request.Source == "" {
		request.Source = "manual"
	}

	if req.CompanyID != nil {
		company, err := s.companyRepo.GetByID(ctx, *req.CompanyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCompanyNotFound
			}
			return nil, fmt.Errorf("failed to get company: %w", err)
		}
		request.CompanyID = &company.ID
		request.CompanyName = company.Name
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.insertNumbered(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request created",
		zap.String("request_id", request.ID.String()),
		zap.String("request_number", request.RequestNumber))

	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

// insertNumbered draws the next request number and inserts request using tx
func (s *RequestService) insertNumbered(ctx context.Context, tx *gorm.DB, request *domain.Request) error {
	numbers := s.numbers.WithRepository(repository.NewNumberSequenceRepository(tx))
	number, err := numbers.GenerateRequestNumber(ctx)
	if err != nil {
		return err
	}
	request.RequestNumber = number
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if err := repository.NewRequestRepository(tx).Create(ctx, request); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (s *RequestService) GetByID(ctx context.Context, id uuid.UUID) (*domain.RequestDTO, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

// GetByNumber looks a request up by its REQ number, case-insensitively
func (s *RequestService) GetByNumber(ctx context.Context, number string) (*domain.RequestDTO, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !s.numbers.ValidateNumber(number) {
		return nil, fmt.Errorf("%w: %q is not a request number", ErrInvalidInput, number)
	}
	request, err := s.requestRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

func (s *RequestService) List(ctx context.Context, filters *repository.RequestFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.requestRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	dtos := make([]domain.RequestDTO, len(page.Items))
	for i := range page.Items {
		dtos[i] = mapper.ToRequestDTO(&page.Items[i])
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

// Update applies the fields present in req
func (s *RequestService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateRequestRequest) (*domain.RequestDTO, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		request.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		request.Description = *req.Description
	}
	if req.Requirements != nil {
		request.Requirements = *req.Requirements
	}
	if req.Category != nil {
		request.Category = *req.Category
	}
	if req.Status != nil {
		request.Status = *req.Status
	}
	if req.Priority != nil {
		request.Priority = *req.Priority
	}
	if req.EstimatedValue != nil {
		request.EstimatedValue = *req.EstimatedValue
	}
	if req.ActualValue != nil {
		request.ActualValue = *req.ActualValue
	}
	if req.AssignedTo != nil {
		request.AssignedTo = *req.AssignedTo
	}
	if req.CompanyID != nil {
		company, err := s.companyRepo.GetByID(ctx, *req.CompanyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCompanyNotFound
			}
			return nil, fmt.Errorf("failed to get company: %w", err)
		}
		request.CompanyID = &company.ID
		request.CompanyName = company.Name
	}

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

// UpdateStatus moves the request to any status; no transition is forbidden
func (s *RequestService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) (*domain.RequestDTO, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown request status %q", ErrInvalidInput, status)
	}
	if err := s.requestRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	s.logger.Info("request status changed",
		zap.String("request_id", id.String()),
		zap.String("status", string(status)),
		zap.String("changed_by", actor(ctx)))

	return s.GetByID(ctx, id)
}

// Delete hard-deletes a request and its attachments and unlinks the contact
// it was promoted from. Only super admins may delete requests.
func (s *RequestService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || !userCtx.IsSuperAdmin() {
		return ErrPermissionDenied
	}

	attachments, err := s.attachmentRepo.ListByRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&domain.RequestAttachment{}).Error; err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}
		if _, err := repository.NewContactRepository(tx).ClearRequest(ctx, id); err != nil {
			return fmt.Errorf("failed to unlink source contact: %w", err)
		}
		if err := repository.NewRequestRepository(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to delete request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, a := range attachments {
		if err := s.files.Delete(ctx, a.StoragePath); err != nil {
			s.logger.Warn("failed to remove attachment file", zap.String("path", a.StoragePath), zap.Error(err))
		}
	}

	s.logger.Info("request deleted", zap.String("request_id", id.String()), zap.String("deleted_by", userCtx.Actor()))
	return nil
}

// AddNote prepends a note so notes stay newest first
func (s *RequestService) AddNote(ctx context.Context, id uuid.UUID, content string) (*domain.RequestDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", ErrInvalidInput)
	}
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	note := domain.RequestNote{
		ID:        uuid.New(),
		Content:   content,
		Author:    actor(ctx),
		CreatedAt: time.Now().UTC(),
	}
	request.Notes = append([]domain.RequestNote{note}, request.Notes...)

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

func (s *RequestService) DeleteNote(ctx context.Context, id, noteID uuid.UUID) (*domain.RequestDTO, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := make([]domain.RequestNote, 0, len(request.Notes))
	for _, n := range request.Notes {
		if n.ID != noteID {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(request.Notes) {
		return nil, ErrNoteNotFound
	}
	request.Notes = kept

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

// AddFollowUp appends a scheduled follow-up
func (s *RequestService) AddFollowUp(ctx context.Context, id uuid.UUID, req *domain.AddFollowUpRequest) (*domain.RequestDTO, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	request.FollowUps = append(request.FollowUps, domain.RequestFollowUp{
		ID:          uuid.New(),
		Type:        req.Type,
		Description: req.Description,
		DueAt:       req.DueAt.UTC(),
		CreatedBy:   actor(ctx),
		CreatedAt:   time.Now().UTC(),
	})

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to add follow-up: %w", err)
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

func (s *RequestService) CompleteFollowUp(ctx context.Context, id, followUpID uuid.UUID) (*domain.RequestDTO, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range request.FollowUps {
		if request.FollowUps[i].ID == followUpID {
			now := time.Now().UTC()
			request.FollowUps[i].Completed = true
			request.FollowUps[i].CompletedAt = &now
			found = true
			break
		}
	}
	if !found {
		return nil, ErrFollowUpNotFound
	}

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to complete follow-up: %w", err)
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

var exportHeaders = []string{
	"Request Number", "Title", "Category", "Status", "Priority", "Company",
	"Contact", "Contact Email", "Contact Phone", "Estimated Value", "Actual Value",
	"Currency", "Assigned To", "Open Follow-ups", "Created At",
}

// ExportXLSX writes the requests matching filters to w as a workbook
func (s *RequestService) ExportXLSX(ctx context.Context, filters *repository.RequestFilters, w io.Writer) (int, error) {
	requests, err := s.requestRepo.ListForExport(ctx, filters, exportRowLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list requests for export: %w", err)
	}

	rows := make([][]interface{}, 0, len(requests))
	for _, r := range requests {
		open := 0
		for _, f := range r.FollowUps {
			if !f.Completed {
				open++
			}
		}
		rows = append(rows, []interface{}{
			r.RequestNumber, r.Title, string(r.Category), string(r.Status), string(r.Priority),
			r.CompanyName, r.ContactName, r.ContactEmail, r.ContactPhone,
			r.EstimatedValue, r.ActualValue, r.Currency, r.AssignedTo, open,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if err := spreadsheet.Write(w, "Requests", exportHeaders, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// UploadAttachment stores a file against a request. Files larger than the
// configured limit are rejected.
func (s *RequestService) UploadAttachment(ctx context.Context, requestID uuid.UUID, filename, contentType string, data io.Reader) (*domain.AttachmentDTO, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	limited := io.LimitReader(data, s.maxUploadBytes+1)
	storagePath, size, err := s.files.Upload(ctx, "requests/"+requestID.String(), filename, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}
	if size > s.maxUploadBytes {
		if err := s.files.Delete(ctx, storagePath); err != nil {
			s.logger.Warn("failed to remove oversized upload", zap.String("path", storagePath), zap.Error(err))
		}
		return nil, ErrFileTooLarge
	}

	attachment := &domain.RequestAttachment{
		RequestID:   requestID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		UploadedBy:  actor(ctx),
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		_ = s.files.Delete(ctx, storagePath)
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, nil
}

func (s *RequestService) ListAttachments(ctx context.Context, requestID uuid.UUID) ([]domain.AttachmentDTO, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	attachments, err := s.attachmentRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	dtos := make([]domain.AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = mapper.ToAttachmentDTO(&attachments[i])
	}
	return dtos, nil
}

// DownloadAttachment returns the attachment metadata and an open reader the
// caller must close
func (s *RequestService) DownloadAttachment(ctx context.Context, requestID, attachmentID uuid.UUID) (*domain.AttachmentDTO, io.ReadCloser, error) {
	attachment, err := s.getAttachment(ctx, requestID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Download(ctx, attachment.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, rc, nil
}

func (s *RequestService) DeleteAttachment(ctx context.Context, requestID, attachmentID uuid.UUID) error {
	attachment, err := s.getAttachment(ctx, requestID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.attachmentRepo.Delete(ctx, attachment.ID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if err := s.files.Delete(ctx, attachment.StoragePath); err != nil {
		s.logger.Warn("failed to remove attachment file", zap.String("path", attachment.StoragePath), zap.Error(err))
	}
	return nil
}

// DueFollowUps returns open follow-ups due before t across open requests,
// earliest first
func (s *RequestService) DueFollowUps(ctx context.Context, t time.Time, limit int) ([]DueFollowUp, error) {
	requests, err := s.requestRepo.ListOpen(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	var due []DueFollowUp
	for _, r := range requests {
		for _, f := range r.FollowUps {
			if !f.Completed && !f.DueAt.After(t) {
				due = append(due, DueFollowUp{RequestID: r.ID, RequestNumber: r.RequestNumber, FollowUp: f})
			}
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FollowUp.DueAt.Before(due[j].FollowUp.DueAt) })
	return due, nil
}

// DueFollowUp is an open follow-up together with its request
type DueFollowUp struct {
	RequestID     uuid.UUID
	RequestNumber string
	FollowUp      domain.RequestFollowUp
}

func (s *RequestService) getRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

func (s *RequestService) getAttachment(ctx context.Context, requestID, attachmentID uuid.UUID) (*domain.RequestAttachment, error) {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	if attachment.RequestID != requestID {
		return nil, ErrAttachmentNotFound
	}
	return attachment, nil
}
