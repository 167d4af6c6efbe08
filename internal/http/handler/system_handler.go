package handler

import (
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// SystemHandler serves destructive maintenance operations
type SystemHandler struct {
	resetService *service.ResetService
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(resetService *service.ResetService, auditService *service.AuditLogService, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		resetService: resetService,
		auditService: auditService,
		logger:       logger,
	}
}

// Reset godoc
// @Summary Delete all business data
// @Description Requires the system:reset permission and the typed phrase "DELETE ALL DATA". Settings and audit logs are kept.
// @Tags System
// @Accept json
// @Produce json
// @Param request body domain.DataResetRequest true "Confirmation phrase"
// @Success 200 {object} domain.ResetResult
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /system/reset [post]
func (h *SystemHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req domain.DataResetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.resetService.ResetAll(r.Context(), req.Confirmation, true)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidConfirmation):
			respondWithError(w, http.StatusBadRequest, "Confirmation phrase does not match")
		case errors.Is(err, service.ErrPermissionDenied):
			respondWithError(w, http.StatusForbidden, "The system:reset permission is required")
		default:
			h.logger.Error("data reset failed", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Data reset failed")
		}
		return
	}

	if err := h.auditService.LogReset(r.Context(), r, result); err != nil {
		h.logger.Warn("failed to audit data reset", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, result)
}
