package handler

import (
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// CompanyHandler serves the legacy company records
type CompanyHandler struct {
	companyService *service.CompanyService
	logger         *zap.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService *service.CompanyService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// List godoc
// @Summary List companies
// @Tags Companies
// @Produce json
// @Param cursor query string false "Id of the last company of the previous page"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param search query string false "Search name or email"
// @Param type query string false "Filter by type" Enums(lead, prospect, customer, partner, supplier)
// @Param status query string false "Filter by status" Enums(active, inactive)
// @Success 200 {object} domain.CursorPage{data=[]domain.CompanyDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies [get]
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseCursorParams(r)
	if err != nil {
		h.handleCompanyError(w, err)
		return
	}
	filters := &repository.CompanyFilters{
		Search: r.URL.Query().Get("search"),
		Type:   optionalEnum[domain.CompanyType](r, "type"),
		Status: optionalEnum[domain.CompanyStatus](r, "status"),
	}

	page, err := h.companyService.List(r.Context(), filters, params)
	if err != nil {
		h.logger.Error("failed to list companies", zap.Error(err))
		h.handleCompanyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create godoc
// @Summary Create company
// @Tags Companies
// @Accept json
// @Produce json
// @Param request body domain.CreateCompanyRequest true "Company data"
// @Success 201 {object} domain.CompanyDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies [post]
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCompanyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	company, err := h.companyService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create company", zap.Error(err))
		h.handleCompanyError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/companies/"+company.ID.String())
	respondJSON(w, http.StatusCreated, company)
}

// GetByID godoc
// @Summary Get company
// @Tags Companies
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Success 200 {object} domain.CompanyDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{id} [get]
func (h *CompanyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "company")
	if !ok {
		return
	}
	company, err := h.companyService.GetByID(r.Context(), id)
	if err != nil {
		h.handleCompanyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// Update godoc
// @Summary Update company
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Param request body domain.UpdateCompanyRequest true "Fields to change"
// @Success 200 {object} domain.CompanyDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{id} [put]
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "company")
	if !ok {
		return
	}
	var req domain.UpdateCompanyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	company, err := h.companyService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update company", zap.Error(err), zap.String("company_id", id.String()))
		h.handleCompanyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// Delete godoc
// @Summary Delete company
// @Description Requests keep the company name but lose the reference. The customer link is removed.
// @Tags Companies
// @Param id path string true "Company ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "company")
	if !ok {
		return
	}
	if err := h.companyService.Delete(r.Context(), id); err != nil {
		h.handleCompanyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecalculateStats godoc
// @Summary Recalculate company counters
// @Tags Companies
// @Produce json
// @Success 200 {object} domain.RecalculateResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/recalculate-stats [post]
func (h *CompanyHandler) RecalculateStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.companyService.RecalculateStats(r.Context())
	if err != nil {
		h.logger.Error("failed to recalculate company stats", zap.Error(err))
		h.handleCompanyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *CompanyHandler) handleCompanyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		respondWithError(w, http.StatusNotFound, "Company not found")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
