package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequestHandler handles HTTP requests for requests, their notes,
// follow-ups and attachments
type RequestHandler struct {
	requestService *service.RequestService
	auditService   *service.AuditLogService
	maxUploadMB    int64
	logger         *zap.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *service.RequestService, auditService *service.AuditLogService, maxUploadMB int64, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		auditService:   auditService,
		maxUploadMB:    maxUploadMB,
		logger:         logger,
	}
}

func requestFilters(r *http.Request) (*repository.RequestFilters, error) {
	companyID, err := optionalUUID(r, "companyId")
	if err != nil {
		return nil, err
	}
	return &repository.RequestFilters{
		Search:    r.URL.Query().Get("search"),
		Status:    optionalEnum[domain.RequestStatus](r, "status"),
		Category:  optionalEnum[domain.RequestCategory](r, "category"),
		Priority:  optionalEnum[domain.Priority](r, "priority"),
		CompanyID: companyID,
	}, nil
}

// List godoc
// @Summary List requests
// @Tags Requests
// @Produce json
// @Param cursor query string false "Id of the last request of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param search query string false "Search number, title, company or contact"
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param priority query string false "Filter by priority" Enums(low, normal, high, urgent)
// @Param companyId query string false "Filter by company" format(uuid)
// @Success 200 {object} domain.CursorPage{data=[]domain.RequestDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests [get]
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	filters, err := requestFilters(r)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}

	page, err := h.requestService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list requests", zap.Error(err))
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Create request
// @Description Allocates the next REQ-<year>-<seq> number.
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body domain.CreateRequestRequest true "Request data"
// @Success 201 {object} domain.RequestDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests [post]
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.requestService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create request", zap.Error(err))
		h.handleRequestError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/requests/"+request.ID.String())
	respondJSON(w, http.StatusCreated, request)
}

// GetByID godoc
// @Summary Get request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Success 200 {object} domain.RequestDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id} [get]
func (h *RequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	request, err := h.requestService.GetByID(r.Context(), id)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// GetByNumber godoc
// @Summary Get request by number
// @Tags Requests
// @Produce json
// @Param number path string true "Request number, e.g. REQ-2025-0001"
// @Success 200 {object} domain.RequestDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/number/{number} [get]
func (h *RequestHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	request, err := h.requestService.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// Update godoc
// @Summary Update request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.UpdateRequestRequest true "Fields to change"
// @Success 200 {object} domain.RequestDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id} [put]
func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	var req domain.UpdateRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.requestService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update request", zap.Error(err), zap.String("request_id", id.String()))
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// UpdateStatus godoc
// @Summary Update request status
// @Description Any status may move to any other status.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.UpdateRequestStatusRequest true "New status"
// @Success 200 {object} domain.RequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/status [put]
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	var req domain.UpdateRequestStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.requestService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// Delete godoc
// @Summary Delete request
// @Description Super admins only. Removes the attachments too.
// @Tags Requests
// @Param id path string true "Request ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	if err := h.requestService.Delete(r.Context(), id); err != nil {
		h.handleRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNote godoc
// @Summary Add a note
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.AddNoteRequest true "Note"
// @Success 201 {object} domain.RequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/notes [post]
func (h *RequestHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	var req domain.AddNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	request, err := h.requestService.AddNote(r.Context(), id, req.Content)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

// DeleteNote godoc
// @Summary Delete a note
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param noteId path string true "Note ID" format(uuid)
// @Success 200 {object} domain.RequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/notes/{noteId} [delete]
func (h *RequestHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	noteID, ok := parseID(w, r, "noteId", "note")
	if !ok {
		return
	}
	request, err := h.requestService.DeleteNote(r.Context(), id, noteID)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// AddFollowUp godoc
// @Summary Schedule a follow-up
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.AddFollowUpRequest true "Follow-up"
// @Success 201 {object} domain.RequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/follow-ups [post]
func (h *RequestHandler) AddFollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	var req domain.AddFollowUpRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	request, err := h.requestService.AddFollowUp(r.Context(), id, &req)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

// CompleteFollowUp godoc
// @Summary Complete a follow-up
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param followUpId path string true "Follow-up ID" format(uuid)
// @Success 200 {object} domain.RequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/follow-ups/{followUpId}/complete [post]
func (h *RequestHandler) CompleteFollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	followUpID, ok := parseID(w, r, "followUpId", "follow-up")
	if !ok {
		return
	}
	request, err := h.requestService.CompleteFollowUp(r.Context(), id, followUpID)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// Export godoc
// @Summary Export requests to Excel
// @Description Accepts the same filters as the list endpoint.
// @Tags Requests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/export [get]
func (h *RequestHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters, err := requestFilters(r)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}

	var buf bytes.Buffer
	count, err := h.requestService.ExportXLSX(r.Context(), filters, &buf)
	if err != nil {
		h.logger.Error("failed to export requests", zap.Error(err))
		h.handleRequestError(w, err)
		return
	}
	if h.auditService != nil {
		if err := h.auditService.LogExport(r.Context(), r, "request", count); err != nil {
			h.logger.Warn("failed to audit request export", zap.Error(err))
		}
	}

	filename := fmt.Sprintf("requests-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// UploadAttachment godoc
// @Summary Upload an attachment
// @Tags Requests
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.AttachmentDTO
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/attachments [post]
func (h *RequestHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}

	// multipart framing needs a little room above the file limit
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024+64*1024)
	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	attachment, err := h.requestService.UploadAttachment(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("failed to upload attachment", zap.Error(err), zap.String("request_id", id.String()))
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, attachment)
}

// ListAttachments godoc
// @Summary List attachments
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Success 200 {array} domain.AttachmentDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/attachments [get]
func (h *RequestHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	attachments, err := h.requestService.ListAttachments(r.Context(), id)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, attachments)
}

// DownloadAttachment godoc
// @Summary Download an attachment
// @Tags Requests
// @Produce application/octet-stream
// @Param id path string true "Request ID" format(uuid)
// @Param attachmentId path string true "Attachment ID" format(uuid)
// @Success 200
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/attachments/{attachmentId} [get]
func (h *RequestHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	attachmentID, ok := parseID(w, r, "attachmentId", "attachment")
	if !ok {
		return
	}

	attachment, reader, err := h.requestService.DownloadAttachment(r.Context(), id, attachmentID)
	if err != nil {
		h.handleRequestError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+attachment.Filename+"\"")
	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("attachment download interrupted", zap.Error(err), zap.String("attachment_id", attachmentID.String()))
	}
}

// DeleteAttachment godoc
// @Summary Delete an attachment
// @Tags Requests
// @Param id path string true "Request ID" format(uuid)
// @Param attachmentId path string true "Attachment ID" format(uuid)
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requests/{id}/attachments/{attachmentId} [delete]
func (h *RequestHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}
	attachmentID, ok := parseID(w, r, "attachmentId", "attachment")
	if !ok {
		return
	}
	if err := h.requestService.DeleteAttachment(r.Context(), id, attachmentID); err != nil {
		h.handleRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRequestError maps service errors to HTTP status codes
func (h *RequestHandler) handleRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		respondWithError(w, http.StatusNotFound, "Request not found")
	case errors.Is(err, service.ErrNoteNotFound):
		respondWithError(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, service.ErrFollowUpNotFound):
		respondWithError(w, http.StatusNotFound, "Follow-up not found")
	case errors.Is(err, service.ErrAttachmentNotFound):
		respondWithError(w, http.StatusNotFound, "Attachment not found")
	case errors.Is(err, service.ErrCompanyNotFound):
		respondWithError(w, http.StatusBadRequest, "Company not found")
	case errors.Is(err, service.ErrFileTooLarge):
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "Only super admins can delete requests")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
