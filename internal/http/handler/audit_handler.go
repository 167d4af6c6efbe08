package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Returns audit log entries newest first with optional filters
// @Tags Audit
// @Produce json
// @Param cursor query string false "Id of the last entry of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param userId query string false "Filter by user ID"
// @Param action query string false "Filter by action type" Enums(create, update, delete, import, export, reset)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID" format(uuid)
// @Param startTime query string false "Filter by start time (RFC3339)"
// @Param endTime query string false "Filter by end time (RFC3339)"
// @Success 200 {object} domain.CursorPage{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor, err := parseCursorParams(r)
	if err != nil {
		h.handleAuditError(w, err)
		return
	}
	entityID, err := optionalUUID(r, "entityId")
	if err != nil {
		h.handleAuditError(w, err)
		return
	}

	params := service.AuditLogQueryParams{
		UserID:     r.URL.Query().Get("userId"),
		Action:     optionalEnum[domain.AuditAction](r, "action"),
		EntityType: r.URL.Query().Get("entityType"),
		EntityID:   entityID,
	}
	if params.StartTime, err = optionalTime(r, "startTime"); err != nil {
		respondWithError(w, http.StatusBadRequest, "startTime must be an RFC3339 timestamp")
		return
	}
	if params.EndTime, err = optionalTime(r, "endTime"); err != nil {
		respondWithError(w, http.StatusBadRequest, "endTime must be an RFC3339 timestamp")
		return
	}

	page, err := h.auditService.List(r.Context(), params, cursor)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		h.handleAuditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetByID godoc
// @Summary Get audit log by ID
// @Tags Audit
// @Produce json
// @Param id path string true "Audit log ID" format(uuid)
// @Success 200 {object} domain.AuditLogDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit/{id} [get]
func (h *AuditHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "audit log")
	if !ok {
		return
	}
	entry, err := h.auditService.GetByID(r.Context(), id)
	if err != nil {
		h.handleAuditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func optionalTime(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *AuditHandler) handleAuditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAuditLogNotFound):
		respondWithError(w, http.StatusNotFound, "Audit log not found")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
