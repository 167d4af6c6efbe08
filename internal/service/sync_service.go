package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSyncRunning is returned when a bidirectional sync is already in progress
var ErrSyncRunning = errors.New("sync already running")

// SyncService keeps legacy companies and CRM v2 customers linked one to one
type SyncService struct {
	companyRepo  *repository.CompanyRepository
	customerRepo *repository.CustomerRepository
	linkRepo     *repository.LinkRepository
	settings     *SettingsService
	logger       *zap.Logger
	db           *gorm.DB
	running      atomic.Bool
	now          func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(
	companyRepo *repository.CompanyRepository,
	customerRepo *repository.CustomerRepository,
	linkRepo *repository.LinkRepository,
	settings *SettingsService,
	logger *zap.Logger,
	db *gorm.DB,
) *SyncService {
	return &SyncService{
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		linkRepo:     linkRepo,
		settings:     settings,
		logger:       logger,
		db:           db,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// FindMatchingCustomer returns the oldest unlinked customer whose name or
// email equals the company's, or nil
func (s *SyncService) FindMatchingCustomer(ctx context.Context, company *domain.Company) (*domain.Customer, error) {
	return findMatchingCustomer(ctx, s.customerRepo, company)
}

// FindMatchingCompany returns the oldest unlinked company whose name or email
// equals the customer's, or nil
func (s *SyncService) FindMatchingCompany(ctx context.Context, customer *domain.Customer) (*domain.Company, error) {
	return findMatchingCompany(ctx, s.companyRepo, customer)
}

func findMatchingCustomer(ctx context.Context, repo *repository.CustomerRepository, company *domain.Company) (*domain.Customer, error) {
	candidates, err := repo.FindByNameOrEmail(ctx, company.Name, company.Email, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find matching customer: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

func findMatchingCompany(ctx context.Context, repo *repository.CompanyRepository, customer *domain.Customer) (*domain.Company, error) {
	name := customer.CompanyName
	if strings.TrimSpace(name) == "" {
		name = customer.Name
	}
	candidates, err := repo.FindByNameOrEmail(ctx, name, customer.Email, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find matching company: %w", err)
	}
	if len(candidates) == 0 && name != customer.Name {
		candidates, err = repo.FindByNameOrEmail(ctx, customer.Name, "", true)
		if err != nil {
			return nil, fmt.Errorf("failed to find matching company: %w", err)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// SyncCompanyToCRM links the company to a matching customer, creating the
// customer when none matches. Already linked companies are skipped.
func (s *SyncService) SyncCompanyToCRM(ctx context.Context, companyID uuid.UUID) (*domain.SyncResult, error) {
	var result *domain.SyncResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		companyRepo := repository.NewCompanyRepository(tx)
		customerRepo := repository.NewCustomerRepository(tx)
		linkRepo := repository.NewLinkRepository(tx)

		company, err := companyRepo.GetByID(ctx, companyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return fmt.Errorf("failed to get company: %w", err)
		}

		link, err := linkRepo.GetByCompanyID(ctx, companyID)
		if err == nil {
			result = &domain.SyncResult{Outcome: domain.SyncOutcomeSkipped, CompanyID: companyID, CustomerID: link.CustomerID}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get company link: %w", err)
		}

		customer, err := findMatchingCustomer(ctx, customerRepo, company)
		if err != nil {
			return err
		}
		outcome := domain.SyncOutcomeLinked
		method := domain.LinkMethodMatched
		if customer == nil {
			customer = customerFromCompany(company)
			if err := customerRepo.Create(ctx, customer); err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
			outcome = domain.SyncOutcomeCreated
			method = domain.LinkMethodCreatedCustomer
		}

		if err := s.createLink(ctx, linkRepo, company.ID, customer.ID, method); err != nil {
			return err
		}
		result = &domain.SyncResult{Outcome: outcome, CompanyID: company.ID, CustomerID: customer.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncCRMToCompany links the customer to a matching company, creating the
// company when none matches. Already linked customers are skipped.
func (s *SyncService) SyncCRMToCompany(ctx context.Context, customerID uuid.UUID) (*domain.SyncResult, error) {
	var result *domain.SyncResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		companyRepo := repository.NewCompanyRepository(tx)
		customerRepo := repository.NewCustomerRepository(tx)
		linkRepo := repository.NewLinkRepository(tx)

		customer, err := customerRepo.GetByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to get customer: %w", err)
		}

		link, err := linkRepo.GetByCustomerID(ctx, customerID)
		if err == nil {
			result = &domain.SyncResult{Outcome: domain.SyncOutcomeSkipped, CompanyID: link.CompanyID, CustomerID: customerID}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get customer link: %w", err)
		}

		company, err := findMatchingCompany(ctx, companyRepo, customer)
		if err != nil {
			return err
		}
		outcome := domain.SyncOutcomeLinked
		method := domain.LinkMethodMatched
		if company == nil {
			company = companyFromCustomer(customer)
			if err := companyRepo.Create(ctx, company); err != nil {
				return fmt.Errorf("failed to create company: %w", err)
			}
			outcome = domain.SyncOutcomeCreated
			method = domain.LinkMethodCreatedCompany
		}

		if err := s.createLink(ctx, linkRepo, company.ID, customer.ID, method); err != nil {
			return err
		}
		result = &domain.SyncResult{Outcome: outcome, CompanyID: company.ID, CustomerID: customer.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// createLink re-checks both sides inside the caller's transaction before
// inserting. The unique indexes reject any race that slips past the check.
func (s *SyncService) createLink(ctx context.Context, linkRepo *repository.LinkRepository, companyID, customerID uuid.UUID, method domain.LinkMethod) error {
	exists, err := linkRepo.ExistsForEither(ctx, companyID, customerID)
	if err != nil {
		return fmt.Errorf("failed to check existing links: %w", err)
	}
	if exists {
		return ErrAlreadyLinked
	}
	link := &domain.CompanyCustomerLink{
		CompanyID:  companyID,
		CustomerID: customerID,
		Method:     method,
		LinkedBy:   actor(ctx),
	}
	if err := linkRepo.Create(ctx, link); err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// InitialBidirectionalSync syncs every company to the CRM, then every
// customer still unlinked back to companies. Failures are tallied per record.
func (s *SyncService) InitialBidirectionalSync(ctx context.Context) (*domain.BidirectionalSyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncRunning
	}
	defer s.running.Store(false)

	result := &domain.BidirectionalSyncResult{StartedAt: s.now()}

	companies, err := s.companyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.CompaniesToCustomers.Processed++
		res, err := s.SyncCompanyToCRM(ctx, company.ID)
		if err != nil {
			result.CompaniesToCustomers.Failed++
			result.Errors = append(result.Errors, domain.BulkError{ID: company.ID.String(), Error: err.Error()})
			s.logger.Warn("company sync failed", zap.String("company_id", company.ID.String()), zap.Error(err))
			continue
		}
		tally(&result.CompaniesToCustomers, res.Outcome)
	}

	customers, err := s.customerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	for _, customer := range customers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.CustomersToCompanies.Processed++
		res, err := s.SyncCRMToCompany(ctx, customer.ID)
		if err != nil {
			result.CustomersToCompanies.Failed++
			result.Errors = append(result.Errors, domain.BulkError{ID: customer.ID.String(), Error: err.Error()})
			s.logger.Warn("customer sync failed", zap.String("customer_id", customer.ID.String()), zap.Error(err))
			continue
		}
		tally(&result.CustomersToCompanies, res.Outcome)
	}

	result.FinishedAt = s.now()

	settings := s.settings.Sync(ctx)
	settings.LastSyncAt = &result.FinishedAt
	if err := s.settings.SaveSync(ctx, settings); err != nil {
		s.logger.Warn("failed to record last sync time", zap.Error(err))
	}

	s.logger.Info("bidirectional sync finished",
		zap.Int("companies_processed", result.CompaniesToCustomers.Processed),
		zap.Int("customers_created", result.CompaniesToCustomers.Created),
		zap.Int("customers_processed", result.CustomersToCompanies.Processed),
		zap.Int("companies_created", result.CustomersToCompanies.Created),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

func tally(phase *domain.SyncPhaseResult, outcome domain.SyncOutcome) {
	switch outcome {
	case domain.SyncOutcomeCreated:
		phase.Created++
	case domain.SyncOutcomeLinked:
		phase.Linked++
	default:
		phase.Skipped++
	}
}

// DetectDuplicateCustomers groups customers sharing a normalized name or an
// email address. Nothing is modified.
func (s *SyncService) DetectDuplicateCustomers(ctx context.Context) ([]domain.DuplicateGroup, error) {
	customers, err := s.customerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	g := newDuplicateGrouper()
	for _, c := range customers {
		g.add(c.ID, c.Name, c.Email)
	}
	return g.groups(), nil
}

// DetectDuplicateCompanies groups companies sharing a normalized name or an
// email address. Nothing is modified.
func (s *SyncService) DetectDuplicateCompanies(ctx context.Context) ([]domain.DuplicateGroup, error) {
	companies, err := s.companyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	g := newDuplicateGrouper()
	for _, c := range companies {
		g.add(c.ID, c.Name, c.Email)
	}
	return g.groups(), nil
}

type duplicateGrouper struct {
	byKey map[string]*domain.DuplicateGroup
}

func newDuplicateGrouper() *duplicateGrouper {
	return &duplicateGrouper{byKey: make(map[string]*domain.DuplicateGroup)}
}

func (g *duplicateGrouper) add(id uuid.UUID, name, email string) {
	if key := domain.NormalizeName(name); key != "" {
		g.put("name:"+key, "name", id, name)
	}
	if key := domain.NormalizeEmail(email); key != "" {
		g.put("email:"+key, "email", id, name)
	}
}

func (g *duplicateGrouper) put(key, reason string, id uuid.UUID, name string) {
	group, ok := g.byKey[key]
	if !ok {
		group = &domain.DuplicateGroup{Key: key, Reason: reason}
		g.byKey[key] = group
	}
	group.IDs = append(group.IDs, id)
	group.Names = append(group.Names, name)
}

func (g *duplicateGrouper) groups() []domain.DuplicateGroup {
	out := []domain.DuplicateGroup{}
	for _, group := range g.byKey {
		if len(group.IDs) > 1 {
			out = append(out, *group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// MergeCustomers folds the duplicates into primary in one transaction. Cases,
// orders and conversations move to primary, and primary keeps or inherits a
// single company link. Duplicates are deleted.
func (s *SyncService) MergeCustomers(ctx context.Context, primaryID uuid.UUID, duplicateIDs []uuid.UUID) (*domain.MergeResult, error) {
	ids, err := mergeTargets(primaryID, duplicateIDs)
	if err != nil {
		return nil, err
	}

	result := &domain.MergeResult{PrimaryID: primaryID, MergedCount: len(ids)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerRepo := repository.NewCustomerRepository(tx)
		linkRepo := repository.NewLinkRepository(tx)

		primary, err := customerRepo.GetByID(ctx, primaryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to get primary customer: %w", err)
		}
		duplicates, err := customerRepo.ListByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load duplicates: %w", err)
		}
		if len(duplicates) != len(ids) {
			return ErrCustomerNotFound
		}

		moved, err := repository.NewCaseRepository(tx).ReassignCustomer(ctx, ids, primary)
		if err != nil {
			return fmt.Errorf("failed to reassign cases: %w", err)
		}
		result.ReassignedRows += moved
		moved, err = repository.NewOrderRepository(tx).ReassignCustomer(ctx, ids, primary)
		if err != nil {
			return fmt.Errorf("failed to reassign orders: %w", err)
		}
		result.ReassignedRows += moved
		moved, err = repository.NewConversationRepository(tx).ReassignCustomer(ctx, ids, primary.ID)
		if err != nil {
			return fmt.Errorf("failed to reassign conversations: %w", err)
		}
		result.ReassignedRows += moved

		links, err := linkRepo.ListByCustomerIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to list duplicate links: %w", err)
		}
		if _, err := linkRepo.GetByCustomerID(ctx, primary.ID); err == nil || len(links) == 0 {
			if _, err := linkRepo.DeleteByCustomerIDs(ctx, ids); err != nil {
				return fmt.Errorf("failed to drop duplicate links: %w", err)
			}
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			rest := make([]uuid.UUID, 0, len(links)-1)
			for _, l := range links[1:] {
				rest = append(rest, l.CustomerID)
			}
			if _, err := linkRepo.DeleteByCustomerIDs(ctx, rest); err != nil {
				return fmt.Errorf("failed to drop duplicate links: %w", err)
			}
			if err := linkRepo.MoveCustomer(ctx, links[0].ID, primary.ID); err != nil {
				return fmt.Errorf("failed to move link: %w", err)
			}
		} else {
			return fmt.Errorf("failed to get primary link: %w", err)
		}

		for i := range duplicates {
			absorbCustomer(primary, &duplicates[i])
		}
		if err := customerRepo.Update(ctx, primary); err != nil {
			return fmt.Errorf("failed to update primary customer: %w", err)
		}
		if _, err := customerRepo.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete duplicates: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customers merged",
		zap.String("primary_id", primaryID.String()),
		zap.Int("merged", result.MergedCount),
		zap.Int64("reassigned_rows", result.ReassignedRows),
		zap.String("merged_by", actor(ctx)))
	return result, nil
}

// MergeCompanies folds the duplicates into primary in one transaction.
// Requests move to primary and primary keeps or inherits a single customer
// link. Duplicates are deleted.
func (s *SyncService) MergeCompanies(ctx context.Context, primaryID uuid.UUID, duplicateIDs []uuid.UUID) (*domain.MergeResult, error) {
	ids, err := mergeTargets(primaryID, duplicateIDs)
	if err != nil {
		return nil, err
	}

	result := &domain.MergeResult{PrimaryID: primaryID, MergedCount: len(ids)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		companyRepo := repository.NewCompanyRepository(tx)
		linkRepo := repository.NewLinkRepository(tx)

		primary, err := companyRepo.GetByID(ctx, primaryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return fmt.Errorf("failed to get primary company: %w", err)
		}
		duplicates, err := companyRepo.ListByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load duplicates: %w", err)
		}
		if len(duplicates) != len(ids) {
			return ErrCompanyNotFound
		}

		moved, err := repository.NewRequestRepository(tx).ReassignCompany(ctx, ids, primary)
		if err != nil {
			return fmt.Errorf("failed to reassign requests: %w", err)
		}
		result.ReassignedRows += moved

		links, err := linkRepo.ListByCompanyIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to list duplicate links: %w", err)
		}
		if _, err := linkRepo.GetByCompanyID(ctx, primary.ID); err == nil || len(links) == 0 {
			if _, err := linkRepo.DeleteByCompanyIDs(ctx, ids); err != nil {
				return fmt.Errorf("failed to drop duplicate links: %w", err)
			}
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			rest := make([]uuid.UUID, 0, len(links)-1)
			for _, l := range links[1:] {
				rest = append(rest, l.CompanyID)
			}
			if _, err := linkRepo.DeleteByCompanyIDs(ctx, rest); err != nil {
				return fmt.Errorf("failed to drop duplicate links: %w", err)
			}
			if err := linkRepo.MoveCompany(ctx, links[0].ID, primary.ID); err != nil {
				return fmt.Errorf("failed to move link: %w", err)
			}
		} else {
			return fmt.Errorf("failed to get primary link: %w", err)
		}

		for i := range duplicates {
			absorbCompany(primary, &duplicates[i])
		}
		if err := companyRepo.Update(ctx, primary); err != nil {
			return fmt.Errorf("failed to update primary company: %w", err)
		}
		if _, err := companyRepo.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete duplicates: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("companies merged",
		zap.String("primary_id", primaryID.String()),
		zap.Int("merged", result.MergedCount),
		zap.Int64("reassigned_rows", result.ReassignedRows),
		zap.String("merged_by", actor(ctx)))
	return result, nil
}

// mergeTargets removes repeats from duplicateIDs and rejects merging a record
// into itself
func mergeTargets(primaryID uuid.UUID, duplicateIDs []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(duplicateIDs))
	ids := make([]uuid.UUID, 0, len(duplicateIDs))
	for _, id := range duplicateIDs {
		if id == primaryID {
			return nil, ErrMergeSelf
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one duplicate id is required", ErrInvalidInput)
	}
	return ids, nil
}

func absorbCustomer(primary, dup *domain.Customer) {
	primary.CompanyName = firstNonEmpty(primary.CompanyName, dup.CompanyName)
	primary.Email = firstNonEmpty(primary.Email, dup.Email)
	primary.Phone = firstNonEmpty(primary.Phone, dup.Phone)
	primary.Source = firstNonEmpty(primary.Source, dup.Source)
	primary.Notes = joinNotes(primary.Notes, dup.Notes)
	primary.Tags = normalizeTags(append(primary.Tags, dup.Tags...))
	primary.Stats = addStats(primary.Stats, dup.Stats)
	if dup.LastContactAt != nil && (primary.LastContactAt == nil || dup.LastContactAt.After(*primary.LastContactAt)) {
		primary.LastContactAt = dup.LastContactAt
	}
}

func absorbCompany(primary, dup *domain.Company) {
	primary.Email = firstNonEmpty(primary.Email, dup.Email)
	primary.Phone = firstNonEmpty(primary.Phone, dup.Phone)
	primary.Website = firstNonEmpty(primary.Website, dup.Website)
	primary.Address = firstNonEmpty(primary.Address, dup.Address)
	primary.City = firstNonEmpty(primary.City, dup.City)
	primary.Country = firstNonEmpty(primary.Country, dup.Country)
	primary.Industry = firstNonEmpty(primary.Industry, dup.Industry)
	primary.Source = firstNonEmpty(primary.Source, dup.Source)
	primary.Notes = joinNotes(primary.Notes, dup.Notes)
	primary.Tags = normalizeTags(append(primary.Tags, dup.Tags...))
	primary.Stats = addStats(primary.Stats, dup.Stats)
}

func addStats(a, b domain.EntityStats) domain.EntityStats {
	return domain.EntityStats{
		TotalConversations: a.TotalConversations + b.TotalConversations,
		TotalCases:         a.TotalCases + b.TotalCases,
		TotalValue:         a.TotalValue + b.TotalValue,
		WonCases:           a.WonCases + b.WonCases,
		LostCases:          a.LostCases + b.LostCases,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func joinNotes(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case b == "" || a == b:
		return a
	case a == "":
		return b
	}
	return a + "\n\n" + b
}

func customerFromCompany(company *domain.Company) *domain.Customer {
	status := domain.CustomerStatusLead
	switch company.Type {
	case domain.CompanyTypeCustomer:
		status = domain.CustomerStatusActive
	case domain.CompanyTypeProspect:
		status = domain.CustomerStatusProspect
	}
	if company.Status == domain.CompanyStatusInactive {
		status = domain.CustomerStatusInactive
	}
	return &domain.Customer{
		Name:        company.Name,
		CompanyName: company.Name,
		Email:       company.Email,
		Phone:       company.Phone,
		Type:        domain.CustomerTypeBusiness,
		Status:      status,
		Priority:    company.Priority,
		Source:      "company_sync",
		Tags:        normalizeTags(company.Tags),
		Notes:       company.Notes,
	}
}

func companyFromCustomer(customer *domain.Customer) *domain.Company {
	name := customer.CompanyName
	if strings.TrimSpace(name) == "" {
		name = customer.Name
	}
	companyType := domain.CompanyTypeLead
	switch customer.Status {
	case domain.CustomerStatusActive:
		companyType = domain.CompanyTypeCustomer
	case domain.CustomerStatusProspect:
		companyType = domain.CompanyTypeProspect
	}
	status := domain.CompanyStatusActive
	if customer.Status == domain.CustomerStatusInactive || customer.Status == domain.CustomerStatusChurned {
		status = domain.CompanyStatusInactive
	}
	return &domain.Company{
		Name:     name,
		Email:    customer.Email,
		Phone:    customer.Phone,
		Type:     companyType,
		Status:   status,
		Priority: customer.Priority,
		Tags:     normalizeTags(customer.Tags),
		Notes:    customer.Notes,
		Source:   "crm_sync",
	}
}
