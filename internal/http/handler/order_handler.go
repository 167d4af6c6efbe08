package handler

import (
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// List godoc
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param cursor query string false "Id of the last order of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param search query string false "Search number, title or customer"
// @Param type query string false "Filter by type" Enums(production, supply, service)
// @Param status query string false "Filter by status"
// @Param paymentStatus query string false "Filter by payment status" Enums(unpaid, partial, paid, refunded)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Success 200 {object} domain.CursorPage{data=[]domain.OrderDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	customerID, err := optionalUUID(r, "customerId")
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	filters := &repository.OrderFilters{
		Search:        r.URL.Query().Get("search"),
		Type:          optionalEnum[domain.OrderType](r, "type"),
		Status:        optionalEnum[domain.OrderStatus](r, "status"),
		PaymentStatus: optionalEnum[domain.PaymentStatus](r, "paymentStatus"),
		CustomerID:    customerID,
	}

	page, err := h.orderService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Create order
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body domain.CreateOrderRequest true "Order data"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create order", zap.Error(err))
		h.handleOrderError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}

// GetByID godoc
// @Summary Get order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Update godoc
// @Summary Update order
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.UpdateOrderRequest true "Fields to change"
// @Success 200 {object} domain.OrderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [put]
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// AdvanceStage godoc
// @Summary Move an order to its next stage
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/advance [post]
func (h *OrderHandler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	order, err := h.orderService.AdvanceStage(r.Context(), id)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// SetStage godoc
// @Summary Set the stage of an order
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.SetOrderStageRequest true "Stage"
// @Success 200 {object} domain.OrderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/stage [put]
func (h *OrderHandler) SetStage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.SetOrderStageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.SetStage(r.Context(), id, req.Stage)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ToggleProductionStep godoc
// @Summary Toggle a production step
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param key path string true "Step key"
// @Success 200 {object} domain.OrderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/steps/{key}/toggle [post]
func (h *OrderHandler) ToggleProductionStep(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	order, err := h.orderService.ToggleProductionStep(r.Context(), id, chi.URLParam(r, "key"))
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdatePayment godoc
// @Summary Record a payment
// @Description The payment status is derived from the paid amount unless given.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.UpdatePaymentRequest true "Payment"
// @Success 200 {object} domain.OrderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/payment [put]
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdatePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.UpdatePayment(r.Context(), id, &req)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateStatus godoc
// @Summary Update order status
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.UpdateOrderStatusRequest true "Status"
// @Success 200 {object} domain.OrderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Delete godoc
// @Summary Delete order
// @Description The originating case is released so a new order can be created from it.
// @Tags Orders
// @Param id path string true "Order ID" format(uuid)
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [delete]
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	if err := h.orderService.Delete(r.Context(), id); err != nil {
		h.handleOrderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrCustomerNotFound):
		respondWithError(w, http.StatusBadRequest, "Customer not found")
	case errors.Is(err, service.ErrCaseNotFound):
		respondWithError(w, http.StatusBadRequest, "Case not found")
	case errors.Is(err, service.ErrCaseHasOrder):
		respondWithError(w, http.StatusConflict, "Case already has an order")
	case errors.Is(err, service.ErrInvalidStage):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoNextStage):
		respondWithError(w, http.StatusConflict, "Order is already at its last stage")
	case errors.Is(err, service.ErrStepNotFound):
		respondWithError(w, http.StatusNotFound, "Production step not found")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
