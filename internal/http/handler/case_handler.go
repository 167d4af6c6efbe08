package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// CaseHandler handles HTTP requests for pipeline cases
type CaseHandler struct {
	caseService  *service.CaseService
	orderService *service.OrderService
	logger       *zap.Logger
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *service.CaseService, orderService *service.OrderService, logger *zap.Logger) *CaseHandler {
	return &CaseHandler{
		caseService:  caseService,
		orderService: orderService,
		logger:       logger,
	}
}

// List godoc
// @Summary List cases
// @Description Each case carries its current SLA evaluation.
// @Tags Cases
// @Produce json
// @Param cursor query string false "Id of the last case of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param search query string false "Search title or customer name"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type" Enums(production, supply, service, consultation)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param assignedTo query string false "Filter by assignee"
// @Success 200 {object} domain.CursorPage{data=[]domain.CaseDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases [get]
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	customerID, err := optionalUUID(r, "customerId")
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	filters := &repository.CaseFilters{
		Search:     r.URL.Query().Get("search"),
		Status:     optionalEnum[domain.CaseStatus](r, "status"),
		Type:       optionalEnum[domain.CaseType](r, "type"),
		CustomerID: customerID,
		AssignedTo: r.URL.Query().Get("assignedTo"),
	}

	page, err := h.caseService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list cases", zap.Error(err))
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Create case
// @Description The checklist is seeded from the template configured for the case type.
// @Tags Cases
// @Accept json
// @Produce json
// @Param request body domain.CreateCaseRequest true "Case data"
// @Success 201 {object} domain.CaseDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases [post]
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := h.caseService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create case", zap.Error(err))
		h.handleCaseError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/cases/"+c.ID.String())
	respondJSON(w, http.StatusCreated, c)
}

// GetByID godoc
// @Summary Get case
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID" format(uuid)
// @Success 200 {object} domain.CaseDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id} [get]
func (h *CaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	c, err := h.caseService.GetByID(r.Context(), id)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Update godoc
// @Summary Update case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID" format(uuid)
// @Param request body domain.UpdateCaseRequest true "Fields to change"
// @Success 200 {object} domain.CaseDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id} [put]
func (h *CaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	var req domain.UpdateCaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := h.caseService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// UpdateStatus godoc
// @Summary Move a case to another status
// @Description Moving into a later phase requires the required checklist items of the phases being left, unless force is set.
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID" format(uuid)
// @Param request body domain.UpdateCaseStatusRequest true "Target status"
// @Success 200 {object} domain.CaseDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id}/status [put]
func (h *CaseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	var req domain.UpdateCaseStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := h.caseService.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// ToggleChecklistItem godoc
// @Summary Toggle a checklist item
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID" format(uuid)
// @Param itemId path string true "Checklist item ID" format(uuid)
// @Success 200 {object} domain.CaseDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id}/checklist/{itemId}/toggle [post]
func (h *CaseHandler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemId", "checklist item")
	if !ok {
		return
	}
	c, err := h.caseService.ToggleChecklistItem(r.Context(), id, itemID)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// GetSLA godoc
// @Summary Evaluate the SLA clock of a case
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID" format(uuid)
// @Success 200 {object} domain.SLAEvaluation
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id}/sla [get]
func (h *CaseHandler) GetSLA(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	eval, err := h.caseService.EvaluateSLA(r.Context(), id)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eval)
}

// ListSLABreaches godoc
// @Summary List open cases past their SLA
// @Tags Cases
// @Produce json
// @Param includeWarnings query bool false "Also include cases past the warning threshold"
// @Success 200 {array} domain.CaseDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/sla-breaches [get]
func (h *CaseHandler) ListSLABreaches(w http.ResponseWriter, r *http.Request) {
	includeWarnings, _ := strconv.ParseBool(r.URL.Query().Get("includeWarnings"))
	cases, err := h.caseService.ListSLABreaches(r.Context(), includeWarnings)
	if err != nil {
		h.logger.Error("failed to list SLA breaches", zap.Error(err))
		h.handleCaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cases)
}

// CreateOrder godoc
// @Summary Create an order from a won case
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID" format(uuid)
// @Success 201 {object} domain.OrderDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id}/order [post]
func (h *CaseHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	order, err := h.orderService.CreateFromCase(r.Context(), id)
	if err != nil {
		h.handleCaseError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}

// Delete godoc
// @Summary Delete case
// @Description Cases that produced an order cannot be deleted.
// @Tags Cases
// @Param id path string true "Case ID" format(uuid)
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cases/{id} [delete]
func (h *CaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "case")
	if !ok {
		return
	}
	if err := h.caseService.Delete(r.Context(), id); err != nil {
		h.handleCaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CaseHandler) handleCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		respondWithError(w, http.StatusNotFound, "Case not found")
	case errors.Is(err, service.ErrCustomerNotFound):
		respondWithError(w, http.StatusBadRequest, "Customer not found")
	case errors.Is(err, service.ErrChecklistItemMissing):
		respondWithError(w, http.StatusNotFound, "Checklist item not found")
	case errors.Is(err, service.ErrChecklistIncomplete):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCaseNotWon):
		respondWithError(w, http.StatusConflict, "Case must be won before an order can be created")
	case errors.Is(err, service.ErrCaseHasOrder):
		respondWithError(w, http.StatusConflict, "Case already has an order")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
