package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncService_SyncCompanyToCRM(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	matched := testutil.CreateTestCompany(t, f.db, "Ada Kozmetik", "info@ada.com")
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "INFO@ada.com")
	fresh := testutil.CreateTestCompany(t, f.db, "Yeni Firma", "")

	res, err := f.sync.SyncCompanyToCRM(ctx, matched.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncOutcomeLinked, res.Outcome)
	assert.Equal(t, customer.ID, res.CustomerID)

	res, err = f.sync.SyncCompanyToCRM(ctx, matched.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncOutcomeSkipped, res.Outcome)

	res, err = f.sync.SyncCompanyToCRM(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncOutcomeCreated, res.Outcome)
	assert.NotEqual(t, customer.ID, res.CustomerID)

	var link domain.CompanyCustomerLink
	require.NoError(t, f.db.First(&link, "company_id = ?", fresh.ID).Error)
	assert.Equal(t, domain.LinkMethodCreatedCustomer, link.Method)
	assert.Equal(t, "Test Admin", link.LinkedBy)
}

func TestSyncService_InitialBidirectionalSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	testutil.CreateTestCompany(t, f.db, "Ada Kozmetik", "info@ada.com")
	testutil.CreateTestCompany(t, f.db, "Bora Kimya", "")
	testutil.CreateTestCustomer(t, f.db, "Ada", "info@ada.com")
	testutil.CreateTestCustomer(t, f.db, "Ceren Ambalaj", "ceren@ambalaj.com")

	first, err := f.sync.InitialBidirectionalSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.CompaniesToCustomers.Processed)
	assert.Equal(t, 1, first.CompaniesToCustomers.Linked)
	assert.Equal(t, 1, first.CompaniesToCustomers.Created)
	assert.Equal(t, 3, first.CustomersToCompanies.Processed)
	assert.Equal(t, 2, first.CustomersToCompanies.Skipped)
	assert.Equal(t, 1, first.CustomersToCompanies.Created)
	assert.Empty(t, first.Errors)

	links := count(t, f.db, &domain.CompanyCustomerLink{})
	companies := count(t, f.db, &domain.Company{})
	customers := count(t, f.db, &domain.Customer{})
	assert.Equal(t, int64(3), links)

	second, err := f.sync.InitialBidirectionalSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.CompaniesToCustomers.Created)
	assert.Zero(t, second.CompaniesToCustomers.Linked)
	assert.Zero(t, second.CustomersToCompanies.Created)
	assert.Zero(t, second.CustomersToCompanies.Linked)
	assert.Equal(t, links, count(t, f.db, &domain.CompanyCustomerLink{}))
	assert.Equal(t, companies, count(t, f.db, &domain.Company{}))
	assert.Equal(t, customers, count(t, f.db, &domain.Customer{}))

	settings := f.settings.Sync(ctx)
	require.NotNil(t, settings.LastSyncAt)
}

func TestSyncService_DetectDuplicateCompanies(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	a := testutil.CreateTestCompany(t, f.db, "Örnek Kimya A.Ş.", "")
	b := testutil.CreateTestCompany(t, f.db, "örnek kimya", "")
	testutil.CreateTestCompany(t, f.db, "Başka Firma", "")

	groups, err := f.sync.DetectDuplicateCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "name", groups[0].Reason)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, groups[0].IDs)

	// detection never writes
	assert.Equal(t, int64(3), count(t, f.db, &domain.Company{}))
}

func TestSyncService_MergeCustomersReassignsForeignKeys(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	primary := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	dup := testutil.CreateTestCustomer(t, f.db, "ADA", "ada@x.com")
	dup.Tags = []string{"vip"}
	require.NoError(t, f.db.Save(dup).Error)

	c := testutil.CreateTestCase(t, f.db, dup, domain.CaseStatusNew)
	conv := testutil.CreateTestConversation(t, f.db, dup)

	_, err := f.sync.SyncCRMToCompany(ctx, dup.ID)
	require.NoError(t, err)

	result, err := f.sync.MergeCustomers(ctx, primary.ID, []uuid.UUID{dup.ID, dup.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MergedCount)
	assert.Equal(t, int64(2), result.ReassignedRows)

	var movedCase domain.Case
	require.NoError(t, f.db.First(&movedCase, "id = ?", c.ID).Error)
	assert.Equal(t, primary.ID, movedCase.CustomerID)

	var movedConv domain.Conversation
	require.NoError(t, f.db.First(&movedConv, "id = ?", conv.ID).Error)
	assert.Equal(t, primary.ID, movedConv.CustomerID)

	var link domain.CompanyCustomerLink
	require.NoError(t, f.db.First(&link).Error)
	assert.Equal(t, primary.ID, link.CustomerID)

	var merged domain.Customer
	require.NoError(t, f.db.First(&merged, "id = ?", primary.ID).Error)
	assert.Equal(t, "ada@x.com", merged.Email)
	assert.Contains(t, merged.Tags, "vip")

	assert.Equal(t, int64(1), count(t, f.db, &domain.Customer{}))
}

func TestSyncService_MergeRejectsSelf(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	primary := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	_, err := f.sync.MergeCustomers(ctx, primary.ID, []uuid.UUID{primary.ID})
	assert.ErrorIs(t, err, service.ErrMergeSelf)

	_, err = f.sync.MergeCompanies(ctx, primary.ID, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSyncService_MergeCompaniesMovesRequests(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	primary := testutil.CreateTestCompany(t, f.db, "Ada Kozmetik", "")
	dup := testutil.CreateTestCompany(t, f.db, "Ada Kozmetik Ltd", "info@ada.com")

	req, err := f.requests.Create(ctx, &domain.CreateRequestRequest{
		Title:     "Serum",
		Category:  domain.CategoryCosmeticManufacturing,
		CompanyID: &dup.ID,
	})
	require.NoError(t, err)

	_, err = f.sync.MergeCompanies(ctx, primary.ID, []uuid.UUID{dup.ID})
	require.NoError(t, err)

	moved, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.CompanyID)
	assert.Equal(t, primary.ID, *moved.CompanyID)
	assert.Equal(t, "Ada Kozmetik", moved.CompanyName)

	var merged domain.Company
	require.NoError(t, f.db.First(&merged, "id = ?", primary.ID).Error)
	assert.Equal(t, "info@ada.com", merged.Email)
}
