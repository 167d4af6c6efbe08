package handler

import (
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// CustomerHandler handles HTTP requests for CRM customers
type CustomerHandler struct {
	customerService     *service.CustomerService
	conversationService *service.ConversationService
	logger              *zap.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService, conversationService *service.ConversationService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService:     customerService,
		conversationService: conversationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List customers
// @Tags Customers
// @Produce json
// @Param cursor query string false "Id of the last customer of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param search query string false "Search name, company name or email"
// @Param type query string false "Filter by type" Enums(individual, business)
// @Param status query string false "Filter by status" Enums(lead, prospect, active, inactive, churned)
// @Success 200 {object} domain.CursorPage{data=[]domain.CustomerDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [get]
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleCustomerError(w, err)
		return
	}
	filters := &repository.CustomerFilters{
		Search: r.URL.Query().Get("search"),
		Type:   optionalEnum[domain.CustomerType](r, "type"),
		Status: optionalEnum[domain.CustomerStatus](r, "status"),
	}

	page, err := h.customerService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list customers", zap.Error(err))
		h.handleCustomerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body domain.CreateCustomerRequest true "Customer data"
// @Success 201 {object} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create customer", zap.Error(err))
		h.handleCustomerError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/customers/"+customer.ID.String())
	respondJSON(w, http.StatusCreated, customer)
}

// GetByID godoc
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {object} domain.CustomerDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		h.handleCustomerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Update godoc
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} domain.CustomerDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	var req domain.UpdateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update customer", zap.Error(err), zap.String("customer_id", id.String()))
		h.handleCustomerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Delete godoc
// @Summary Delete customer
// @Description Customers that still own cases or conversations cannot be deleted; merge them instead.
// @Tags Customers
// @Param id path string true "Customer ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	if err := h.customerService.Delete(r.Context(), id); err != nil {
		h.handleCustomerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListConversations godoc
// @Summary List a customer's conversations
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param cursor query string false "Id of the last conversation of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Success 200 {object} domain.CursorPage{data=[]domain.ConversationDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id}/conversations [get]
func (h *CustomerHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleCustomerError(w, err)
		return
	}
	page, err := h.conversationService.ListByCustomer(r.Context(), id, params)
	if err != nil {
		h.handleCustomerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// RecalculateStats godoc
// @Summary Recalculate customer counters
// @Tags Customers
// @Produce json
// @Success 200 {object} domain.RecalculateResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/recalculate-stats [post]
func (h *CustomerHandler) RecalculateStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.customerService.RecalculateStats(r.Context())
	if err != nil {
		h.logger.Error("failed to recalculate customer stats", zap.Error(err))
		h.handleCustomerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *CustomerHandler) handleCustomerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		respondWithError(w, http.StatusNotFound, "Customer not found")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
