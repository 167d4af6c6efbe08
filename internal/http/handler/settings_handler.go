package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsHandler serves the singleton settings documents. Messaging
// credentials have their own masked endpoint and are not reachable here.
type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// Keys godoc
// @Summary List settings documents
// @Tags Settings
// @Produce json
// @Success 200 {array} string
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [get]
func (h *SettingsHandler) Keys(w http.ResponseWriter, r *http.Request) {
	keys := []domain.SettingsKey{}
	for _, k := range h.settingsService.Keys() {
		if k != domain.SettingsMessaging {
			keys = append(keys, k)
		}
	}
	respondJSON(w, http.StatusOK, keys)
}

// Get godoc
// @Summary Get a settings document
// @Description Falls back to the documented default when nothing is stored.
// @Tags Settings
// @Produce json
// @Param key path string true "Settings key" Enums(sync, quick_replies, checklists, sla, auto_reminders)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/{key} [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.settingsKey(w, r)
	if !ok {
		return
	}
	doc, err := h.settingsService.Get(r.Context(), key)
	if err != nil {
		h.handleSettingsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Update godoc
// @Summary Update a settings document
// @Description Deep-merges a partial JSON object into the stored document.
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Settings key" Enums(sync, quick_replies, checklists, sla, auto_reminders)
// @Param request body map[string]interface{} true "Partial document"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/{key} [put]
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key, ok := h.settingsKey(w, r)
	if !ok {
		return
	}
	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: expected a JSON object")
		return
	}
	doc, err := h.settingsService.Update(r.Context(), key, patch)
	if err != nil {
		h.handleSettingsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Reset godoc
// @Summary Reset a settings document to its default
// @Tags Settings
// @Produce json
// @Param key path string true "Settings key" Enums(sync, quick_replies, checklists, sla, auto_reminders)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/{key}/reset [post]
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	key, ok := h.settingsKey(w, r)
	if !ok {
		return
	}
	doc, err := h.settingsService.Reset(r.Context(), key)
	if err != nil {
		h.handleSettingsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (h *SettingsHandler) settingsKey(w http.ResponseWriter, r *http.Request) (domain.SettingsKey, bool) {
	key := domain.SettingsKey(chi.URLParam(r, "key"))
	if key == domain.SettingsMessaging {
		respondWithError(w, http.StatusNotFound, "Messaging settings are served by /integrations/messaging")
		return "", false
	}
	return key, true
}

func (h *SettingsHandler) handleSettingsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownSettingsKey):
		respondWithError(w, http.StatusNotFound, "Unknown settings key")
	case errors.Is(err, service.ErrInvalidSettingsPayload):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case handleCommonError(w, err):
	default:
		h.logger.Error("settings request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
