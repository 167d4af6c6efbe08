package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyService_DeleteDetachesRequests(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	company := testutil.CreateTestCompany(t, f.db, "Örnek Kimya", "info@ornek.com")
	req, err := f.requests.Create(ctx, &domain.CreateRequestRequest{
		Title:     "Sıvı sabun",
		Category:  domain.CategoryCleaningManufacturing,
		CompanyID: &company.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "Örnek Kimya", req.CompanyName)

	_, err = f.sync.SyncCompanyToCRM(ctx, company.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count(t, f.db, &domain.CompanyCustomerLink{}))

	require.NoError(t, f.companies.Delete(ctx, company.ID))

	got, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompanyID)
	assert.Equal(t, "Örnek Kimya", got.CompanyName)
	assert.Zero(t, count(t, f.db, &domain.CompanyCustomerLink{}))
	assert.Equal(t, int64(1), count(t, f.db, &domain.Customer{}))

	assert.ErrorIs(t, f.companies.Delete(ctx, company.ID), service.ErrCompanyNotFound)
}
