package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Dashboard(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	testutil.CreateTestContact(t, f.db, "Ada", "ada@example.com")
	testutil.CreateTestContact(t, f.db, "Bora", "bora@example.com")
	newRequest(t, f, "Kolajen")

	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	won := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusWon)
	require.NoError(t, f.db.Model(won).Update("financials_final_value", 5000).Error)
	testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusLost)
	open := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNegotiating)
	require.NoError(t, f.db.Model(open).Update("financials_quoted_value", 2500).Error)

	stats, err := f.stats.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Contacts.Total)
	assert.Equal(t, 2, stats.Contacts.ByStatus[domain.ContactStatusNew])
	assert.Equal(t, 1, stats.Requests.Total)
	assert.Equal(t, 1, stats.Requests.ByCategory[domain.CategorySupplementManufacturing])

	assert.Equal(t, 3, stats.Cases.Total)
	assert.Equal(t, 1, stats.Cases.Open)
	assert.Equal(t, 5000.0, stats.Cases.WonValue)
	assert.Equal(t, 2500.0, stats.Cases.QuotedValue)
	assert.InDelta(t, 50.0, stats.Cases.WinRate, 0.001)

	assert.Zero(t, stats.Orders.Total)
	assert.Equal(t, 100, stats.ScanLimit)
}
