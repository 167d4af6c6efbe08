package handler

import (
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// ConversationHandler handles HTTP requests for the conversation inbox
type ConversationHandler struct {
	conversationService *service.ConversationService
	logger              *zap.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *service.ConversationService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List conversations
// @Tags Conversations
// @Produce json
// @Param cursor query string false "Id of the last conversation of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param channel query string false "Filter by channel" Enums(email, whatsapp, instagram, phone, web)
// @Param status query string false "Filter by status" Enums(open, pending, closed)
// @Success 200 {object} domain.CursorPage{data=[]domain.ConversationDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations [get]
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	customerID, err := optionalUUID(r, "customerId")
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	filters := &repository.ConversationFilters{
		CustomerID: customerID,
		Channel:    optionalEnum[domain.ConversationChannel](r, "channel"),
		Status:     optionalEnum[domain.ConversationStatus](r, "status"),
	}

	page, err := h.conversationService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Start a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body domain.CreateConversationRequest true "Conversation"
// @Success 201 {object} domain.ConversationDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations [post]
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateConversationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	conversation, err := h.conversationService.Create(r.Context(), &req)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/conversations/"+conversation.ID.String())
	respondJSON(w, http.StatusCreated, conversation)
}

// GetByID godoc
// @Summary Get conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID" format(uuid)
// @Success 200 {object} domain.ConversationDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations/{id} [get]
func (h *ConversationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "conversation")
	if !ok {
		return
	}
	conversation, err := h.conversationService.GetByID(r.Context(), id)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conversation)
}

// ListMessages godoc
// @Summary List the messages of a conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID" format(uuid)
// @Success 200 {array} domain.MessageDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "conversation")
	if !ok {
		return
	}
	messages, err := h.conversationService.ListMessages(r.Context(), id)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// AddMessage godoc
// @Summary Append a message
// @Description Inbound messages reopen closed conversations; outbound messages are rejected on them.
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID" format(uuid)
// @Param request body domain.AddMessageRequest true "Message"
// @Success 201 {object} domain.MessageDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "conversation")
	if !ok {
		return
	}
	var req domain.AddMessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	message, err := h.conversationService.AddMessage(r.Context(), id, &req)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// MarkRead godoc
// @Summary Mark a conversation read
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID" format(uuid)
// @Success 200 {object} domain.ConversationDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations/{id}/read [post]
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "conversation")
	if !ok {
		return
	}
	conversation, err := h.conversationService.MarkRead(r.Context(), id)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conversation)
}

type updateConversationStatusRequest struct {
	Status domain.ConversationStatus `json:"status" validate:"required,oneof=open pending closed"`
}

// UpdateStatus godoc
// @Summary Close, park or reopen a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID" format(uuid)
// @Param request body updateConversationStatusRequest true "Status"
// @Success 200 {object} domain.ConversationDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations/{id}/status [put]
func (h *ConversationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "conversation")
	if !ok {
		return
	}
	var req updateConversationStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	conversation, err := h.conversationService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conversation)
}

// RecalculateMessageCounts godoc
// @Summary Repair denormalized message counters
// @Tags Conversations
// @Produce json
// @Success 200 {object} domain.RecalculateResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /conversations/recalculate-counts [post]
func (h *ConversationHandler) RecalculateMessageCounts(w http.ResponseWriter, r *http.Request) {
	result, err := h.conversationService.RecalculateMessageCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to recalculate message counts", zap.Error(err))
		h.handleConversationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ConversationHandler) handleConversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		respondWithError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, service.ErrConversationClosed):
		respondWithError(w, http.StatusConflict, "Conversation is closed")
	case errors.Is(err, service.ErrCustomerNotFound):
		respondWithError(w, http.StatusBadRequest, "Customer not found")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
