package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// ContactHandler handles HTTP requests for contact form submissions,
// including the public form and promotion to requests
type ContactHandler struct {
	contactService   *service.ContactService
	promotionService *service.PromotionService
	maxUploadMB      int64
	logger           *zap.Logger
}

// NewContactHandler creates a new contact handler. maxUploadMB caps
// spreadsheet imports.
func NewContactHandler(contactService *service.ContactService, promotionService *service.PromotionService, maxUploadMB int64, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService:   contactService,
		promotionService: promotionService,
		maxUploadMB:      maxUploadMB,
		logger:           logger,
	}
}

// SubmitPublic godoc
// @Summary Submit the public contact form
// @Description Unauthenticated endpoint used by the website contact form. Rate limited per client IP.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.CreateContactRequest true "Contact form"
// @Success 201 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 429 {object} domain.APIError
// @Router /public/contact [post]
func (h *ContactHandler) SubmitPublic(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Source = service.ContactSourceForm

	contact, err := h.contactService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to store contact form", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to submit contact form")
		return
	}
	respondJSON(w, http.StatusCreated, contact)
}

// List godoc
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Param cursor query string false "Id of the last contact of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param search query string false "Search name, email, company or message"
// @Param status query string false "Filter by status" Enums(new, in_progress, responded, closed)
// @Param priority query string false "Filter by priority" Enums(low, normal, high, urgent)
// @Success 200 {object} domain.CursorPage{data=[]domain.ContactDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleContactError(w, err)
		return
	}
	filters := &repository.ContactFilters{
		Search:   r.URL.Query().Get("search"),
		Status:   optionalEnum[domain.ContactStatus](r, "status"),
		Priority: optionalEnum[domain.Priority](r, "priority"),
	}

	page, err := h.contactService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list contacts", zap.Error(err))
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Create contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.CreateContactRequest true "Contact data"
// @Success 201 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [post]
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.contactService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create contact", zap.Error(err))
		h.handleContactError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/contacts/"+contact.ID.String())
	respondJSON(w, http.StatusCreated, contact)
}

// GetByID godoc
// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Success 200 {object} domain.ContactDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contact")
	if !ok {
		return
	}
	contact, err := h.contactService.GetByID(r.Context(), id)
	if err != nil {
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// Update godoc
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Param request body domain.UpdateContactRequest true "Fields to change"
// @Success 200 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contact")
	if !ok {
		return
	}
	var req domain.UpdateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.contactService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update contact", zap.Error(err), zap.String("contact_id", id.String()))
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// UpdateStatus godoc
// @Summary Update contact status
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Param request body domain.UpdateContactRequest true "Only status is read"
// @Success 200 {object} domain.ContactDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id}/status [put]
func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contact")
	if !ok {
		return
	}
	var req domain.UpdateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Status == nil {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	contact, err := h.contactService.UpdateStatus(r.Context(), id, *req.Status)
	if err != nil {
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete contact
// @Tags Contacts
// @Param id path string true "Contact ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contact")
	if !ok {
		return
	}
	if err := h.contactService.Delete(r.Context(), id); err != nil {
		h.handleContactError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete godoc
// @Summary Delete many contacts
// @Description Missing contacts are counted as failures; the rest are deleted.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.BulkContactDeleteRequest true "Contact IDs"
// @Success 200 {object} domain.BulkResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/bulk-delete [post]
func (h *ContactHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkContactDeleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.contactService.BulkDelete(r.Context(), req.IDs))
}

// BulkUpdateStatus godoc
// @Summary Set the status of many contacts
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.BulkContactStatusRequest true "Contact IDs and status"
// @Success 200 {object} domain.BulkResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/bulk-status [post]
func (h *ContactHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkContactStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.contactService.BulkUpdateStatus(r.Context(), req.IDs, req.Status)
	if err != nil {
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Import godoc
// @Summary Import contacts from a spreadsheet
// @Description Reads the first sheet of an .xlsx file. The header row must contain a name column.
// @Tags Contacts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook"
// @Success 200 {object} domain.BulkResult
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/import [post]
func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	result, err := h.contactService.ImportXLSX(r.Context(), file)
	if err != nil {
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// PreviewPromotion godoc
// @Summary Preview promoting a contact to a request
// @Description Returns the matched company and the drafted request without writing anything.
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Success 200 {object} domain.PromotionPreview
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id}/promotion [get]
func (h *ContactHandler) PreviewPromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contact")
	if !ok {
		return
	}
	preview, err := h.promotionService.Preview(r.Context(), id)
	if err != nil {
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// Promote godoc
// @Summary Promote a contact to a request
// @Description Creates the company (optional) and the request and marks the contact in progress, all or nothing.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Param request body domain.PromoteContactRequest true "Overrides"
// @Success 201 {object} domain.PromotionResult
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id}/promote [post]
func (h *ContactHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contact")
	if !ok {
		return
	}
	var req domain.PromoteContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.promotionService.Promote(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to promote contact", zap.Error(err), zap.String("contact_id", id.String()))
		h.handleContactError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// handleContactError maps service errors to HTTP status codes
func (h *ContactHandler) handleContactError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrContactNotFound):
		respondWithError(w, http.StatusNotFound, "Contact not found")
	case errors.Is(err, service.ErrContactAlreadyLinked):
		respondWithError(w, http.StatusConflict, "Contact has already been promoted to a request")
	case errors.Is(err, service.ErrCompanyNotFound):
		respondWithError(w, http.StatusBadRequest, "Company not found")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
