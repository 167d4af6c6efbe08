package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_DeleteRefusesCustomerWithOrders(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "ada@example.com")

	order, err := f.orders.Create(ctx, &domain.CreateOrderRequest{
		Type:       domain.OrderTypeService,
		CustomerID: customer.ID,
		Title:      "Eğitim",
	})
	require.NoError(t, err)

	err = f.customers.Delete(ctx, customer.ID)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, int64(1), count(t, f.db.Where("id = ?", customer.ID), &domain.Customer{}))

	require.NoError(t, f.orders.Delete(ctx, order.ID))
	require.NoError(t, f.customers.Delete(ctx, customer.ID))
	assert.Zero(t, count(t, f.db.Where("id = ?", customer.ID), &domain.Customer{}))
}

func TestCustomerService_DeleteRefusesCustomerWithCases(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNew)

	assert.ErrorIs(t, f.customers.Delete(ctx, customer.ID), service.ErrConflict)
}
