package handler

import (
	"errors"
	"net/http"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// SyncHandler exposes the company/customer synchronization and the
// duplicate tooling
type SyncHandler struct {
	syncService *service.SyncService
	logger      *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *service.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// SyncCompany godoc
// @Summary Sync one company to the CRM
// @Description Links the company to a matching customer or creates one. Linked companies are skipped.
// @Tags Sync
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Success 200 {object} domain.SyncResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/companies/{id} [post]
func (h *SyncHandler) SyncCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "company")
	if !ok {
		return
	}
	result, err := h.syncService.SyncCompanyToCRM(r.Context(), id)
	if err != nil {
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SyncCustomer godoc
// @Summary Sync one customer back to companies
// @Tags Sync
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {object} domain.SyncResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/customers/{id} [post]
func (h *SyncHandler) SyncCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	result, err := h.syncService.SyncCRMToCompany(r.Context(), id)
	if err != nil {
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RunBidirectional godoc
// @Summary Run the full bidirectional sync
// @Description Safe to re-run: records that are already linked are skipped.
// @Tags Sync
// @Produce json
// @Success 200 {object} domain.BidirectionalSyncResult
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/run [post]
func (h *SyncHandler) RunBidirectional(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncService.InitialBidirectionalSync(r.Context())
	if err != nil {
		h.logger.Error("bidirectional sync failed", zap.Error(err))
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CustomerDuplicates godoc
// @Summary Detect duplicate customers
// @Tags Sync
// @Produce json
// @Success 200 {array} domain.DuplicateGroup
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/duplicates/customers [get]
func (h *SyncHandler) CustomerDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := h.syncService.DetectDuplicateCustomers(r.Context())
	if err != nil {
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// CompanyDuplicates godoc
// @Summary Detect duplicate companies
// @Tags Sync
// @Produce json
// @Success 200 {array} domain.DuplicateGroup
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/duplicates/companies [get]
func (h *SyncHandler) CompanyDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := h.syncService.DetectDuplicateCompanies(r.Context())
	if err != nil {
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// MergeCustomers godoc
// @Summary Merge duplicate customers into a primary
// @Tags Sync
// @Accept json
// @Produce json
// @Param request body domain.MergeRequest true "Primary and duplicate IDs"
// @Success 200 {object} domain.MergeResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/merge/customers [post]
func (h *SyncHandler) MergeCustomers(w http.ResponseWriter, r *http.Request) {
	var req domain.MergeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.syncService.MergeCustomers(r.Context(), req.PrimaryID, req.DuplicateIDs)
	if err != nil {
		h.logger.Error("failed to merge customers", zap.Error(err), zap.String("primary_id", req.PrimaryID.String()))
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// MergeCompanies godoc
// @Summary Merge duplicate companies into a primary
// @Tags Sync
// @Accept json
// @Produce json
// @Param request body domain.MergeRequest true "Primary and duplicate IDs"
// @Success 200 {object} domain.MergeResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/merge/companies [post]
func (h *SyncHandler) MergeCompanies(w http.ResponseWriter, r *http.Request) {
	var req domain.MergeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.syncService.MergeCompanies(r.Context(), req.PrimaryID, req.DuplicateIDs)
	if err != nil {
		h.logger.Error("failed to merge companies", zap.Error(err), zap.String("primary_id", req.PrimaryID.String()))
		h.handleSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *SyncHandler) handleSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		respondWithError(w, http.StatusNotFound, "Company not found")
	case errors.Is(err, service.ErrCustomerNotFound):
		respondWithError(w, http.StatusNotFound, "Customer not found")
	case errors.Is(err, service.ErrAlreadyLinked):
		respondWithError(w, http.StatusConflict, "Record is already linked")
	case errors.Is(err, service.ErrSyncRunning):
		respondWithError(w, http.StatusConflict, "A sync is already running")
	case errors.Is(err, service.ErrMergeSelf):
		respondWithError(w, http.StatusBadRequest, "Primary record cannot be listed as a duplicate")
	case handleCommonError(w, err):
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
