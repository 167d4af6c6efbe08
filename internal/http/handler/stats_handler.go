package handler

import (
	"net/http"
	"time"

	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// StatsHandler serves the aggregated dashboard figures and due reminders
type StatsHandler struct {
	statsService    *service.StatsService
	reminderService *service.ReminderService
	logger          *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService, reminderService *service.ReminderService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsService:    statsService,
		reminderService: reminderService,
		logger:          logger,
	}
}

// Dashboard godoc
// @Summary Dashboard statistics
// @Description Aggregates the most recent contacts, requests, cases and orders.
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.DashboardStats
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stats/dashboard [get]
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Dashboard(r.Context())
	h.respond(w, stats, err, "dashboard")
}

// Contacts godoc
// @Summary Contact statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.ContactStats
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stats/contacts [get]
func (h *StatsHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Contacts(r.Context())
	h.respond(w, stats, err, "contact")
}

// Requests godoc
// @Summary Request statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.RequestStats
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stats/requests [get]
func (h *StatsHandler) Requests(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Requests(r.Context())
	h.respond(w, stats, err, "request")
}

// Cases godoc
// @Summary Case statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.CaseStats
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stats/cases [get]
func (h *StatsHandler) Cases(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Cases(r.Context())
	h.respond(w, stats, err, "case")
}

// Orders godoc
// @Summary Order statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.OrderStats
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stats/orders [get]
func (h *StatsHandler) Orders(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Orders(r.Context())
	h.respond(w, stats, err, "order")
}

// Reminders godoc
// @Summary Due reminders
// @Description Evaluates the enabled auto-reminder rules now.
// @Tags Stats
// @Produce json
// @Success 200 {array} domain.Reminder
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reminders [get]
func (h *StatsHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.reminderService.Due(r.Context(), time.Now().UTC())
	h.respond(w, reminders, err, "reminder")
}

func (h *StatsHandler) respond(w http.ResponseWriter, data interface{}, err error, what string) {
	if err != nil {
		h.logger.Error("failed to compute "+what+" stats", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	respondJSON(w, http.StatusOK, data)
}
