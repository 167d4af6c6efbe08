package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/messaging"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// MessagingResponse is the envelope every messaging integration endpoint answers with
type MessagingResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MessagingHandler manages the messaging-platform credentials. Secrets are
// only ever returned masked.
type MessagingHandler struct {
	messagingService *service.MessagingService
	logger           *zap.Logger
}

// NewMessagingHandler creates a new messaging integration handler
func NewMessagingHandler(messagingService *service.MessagingService, logger *zap.Logger) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
		logger:           logger,
	}
}

// Get godoc
// @Summary Get messaging settings or run a connection check
// @Description Without action the stored settings are returned with tokens masked. action=test validates the token, action=fetch-account loads the business account and action=debug-token inspects the token.
// @Tags Integrations
// @Produce json
// @Param action query string false "Check to run" Enums(test, fetch-account, debug-token)
// @Success 200 {object} MessagingResponse
// @Failure 400 {object} MessagingResponse
// @Failure 502 {object} MessagingResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /integrations/messaging [get]
func (h *MessagingHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		data interface{}
		err  error
	)
	switch action := r.URL.Query().Get("action"); action {
	case "":
		data = h.messagingService.Get(ctx)
	case "test":
		data, err = h.messagingService.Test(ctx)
	case "fetch-account":
		data, err = h.messagingService.FetchAccount(ctx)
	case "debug-token":
		data, err = h.messagingService.DebugToken(ctx)
	default:
		respondJSON(w, http.StatusBadRequest, MessagingResponse{Error: "unknown action: " + action})
		return
	}
	if err != nil {
		h.respondMessagingError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, MessagingResponse{Success: true, Data: data})
}

// Update godoc
// @Summary Update messaging settings
// @Description Only the fields present in the body are stored.
// @Tags Integrations
// @Accept json
// @Produce json
// @Param request body domain.UpdateMessagingSettingsRequest true "Fields to store"
// @Success 200 {object} MessagingResponse
// @Failure 400 {object} MessagingResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /integrations/messaging [post]
func (h *MessagingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMessagingSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, MessagingResponse{Error: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, MessagingResponse{Error: err.Error()})
		return
	}

	settings, err := h.messagingService.Update(r.Context(), &req)
	if err != nil {
		h.respondMessagingError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, MessagingResponse{Success: true, Data: settings})
}

// Disconnect godoc
// @Summary Disconnect the messaging integration
// @Description Clears every credential and disables the integration.
// @Tags Integrations
// @Produce json
// @Success 200 {object} MessagingResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /integrations/messaging [delete]
func (h *MessagingHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.messagingService.Disconnect(r.Context()); err != nil {
		h.respondMessagingError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, MessagingResponse{Success: true, Data: h.messagingService.Get(r.Context())})
}

func (h *MessagingHandler) respondMessagingError(w http.ResponseWriter, err error) {
	var (
		apiErr *messaging.APIError
		urlErr *url.Error
	)
	switch {
	case errors.Is(err, service.ErrMessagingNotConfigured):
		respondJSON(w, http.StatusBadRequest, MessagingResponse{Error: err.Error()})
	case errors.As(err, &apiErr):
		h.logger.Warn("messaging platform rejected request", zap.Int("status", apiErr.StatusCode), zap.String("message", apiErr.Message))
		respondJSON(w, http.StatusBadGateway, MessagingResponse{Error: apiErr.Error()})
	case errors.As(err, &urlErr):
		h.logger.Warn("messaging platform unreachable", zap.Error(err))
		respondJSON(w, http.StatusBadGateway, MessagingResponse{Error: "messaging platform is unreachable"})
	default:
		h.logger.Error("messaging request failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, MessagingResponse{Error: "internal server error"})
	}
}
