package service_test

import (
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseService_CreateSeedsChecklist(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	c, err := f.cases.Create(ctx, &domain.CreateCaseRequest{
		CustomerID:  customer.ID,
		Title:       "Yüz kremi üretimi",
		Type:        domain.CaseTypeProduction,
		QuotedValue: 50000,
	})
	require.NoError(t, err)

	template := domain.DefaultChecklistSettings().Templates[domain.CaseTypeProduction]
	require.Len(t, c.Checklist, len(template))
	assert.Equal(t, domain.CaseStatusNew, c.Status)
	assert.Equal(t, domain.PhaseQualification, c.Phase)
	assert.Equal(t, "TRY", c.Financials.Currency)
	require.NotNil(t, c.SLA)
	assert.Equal(t, domain.SLAStateOK, c.SLA.State)
}

func TestCaseService_StatusGateRequiresChecklist(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	c, err := f.cases.Create(ctx, &domain.CreateCaseRequest{
		CustomerID: customer.ID,
		Title:      "Danışmanlık",
		Type:       domain.CaseTypeConsultation,
	})
	require.NoError(t, err)
	require.Len(t, c.Checklist, 1)

	// moving within the phase never blocks
	_, err = f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusQualifying})
	require.NoError(t, err)

	_, err = f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusQuotePreparing})
	assert.ErrorIs(t, err, service.ErrChecklistIncomplete)

	toggled, err := f.cases.ToggleChecklistItem(ctx, c.ID, c.Checklist[0].ID)
	require.NoError(t, err)
	assert.True(t, toggled.Checklist[0].Completed)
	assert.Equal(t, "Test Admin", toggled.Checklist[0].CompletedBy)

	moved, err := f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusQuotePreparing})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseQuote, moved.Phase)
}

func TestCaseService_LostCaseCannotSkipToWon(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	c, err := f.cases.Create(ctx, &domain.CreateCaseRequest{
		CustomerID: customer.ID,
		Title:      "Danışmanlık",
		Type:       domain.CaseTypeConsultation,
	})
	require.NoError(t, err)

	_, err = f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusLost})
	require.NoError(t, err)

	_, err = f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusWon})
	assert.ErrorIs(t, err, service.ErrChecklistIncomplete)

	reopened, err := f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusQualifying})
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusQualifying, reopened.Status)
}

func TestCaseService_ForceOverridesGateAndWinRefreshesCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	c, err := f.cases.Create(ctx, &domain.CreateCaseRequest{
		CustomerID:  customer.ID,
		Title:       "Ambalaj tedariki",
		Type:        domain.CaseTypeSupply,
		QuotedValue: 12000,
	})
	require.NoError(t, err)

	won, err := f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusWon, Force: true})
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusWon, won.Status)
	assert.Equal(t, 12000.0, won.Financials.FinalValue)

	dto, err := f.customers.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Stats.TotalCases)
	assert.Equal(t, 1, dto.Stats.WonCases)
	assert.Equal(t, 12000.0, dto.Stats.TotalValue)
}

func TestCaseService_OnHoldKeepsPhase(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	c := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusQuoteSent)

	held, err := f.cases.UpdateStatus(ctx, c.ID, &domain.UpdateCaseStatusRequest{Status: domain.CaseStatusOnHold})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseQuote, held.Phase)
}

func TestCaseService_ListSLABreaches(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	stale := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNew)
	require.NoError(t, f.db.Model(stale).Update("status_changed_at", time.Now().UTC().Add(-30*time.Hour)).Error)
	warning := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNew)
	require.NoError(t, f.db.Model(warning).Update("status_changed_at", time.Now().UTC().Add(-13*time.Hour)).Error)
	testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNew)

	breached, err := f.cases.ListSLABreaches(ctx, false)
	require.NoError(t, err)
	require.Len(t, breached, 1)
	assert.Equal(t, stale.ID, breached[0].ID)

	withWarnings, err := f.cases.ListSLABreaches(ctx, true)
	require.NoError(t, err)
	assert.Len(t, withWarnings, 2)
}

func TestCaseService_DeleteRefusesCaseWithOrder(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	c := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusWon)

	_, err := f.orders.CreateFromCase(ctx, c.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.cases.Delete(ctx, c.ID), service.ErrCaseHasOrder)
}
