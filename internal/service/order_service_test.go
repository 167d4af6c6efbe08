package service_test

import (
	"context"
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateFromCase(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	c := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNegotiating)

	_, err := f.orders.CreateFromCase(ctx, c.ID)
	assert.ErrorIs(t, err, service.ErrCaseNotWon)

	require.NoError(t, f.db.Model(c).Updates(map[string]interface{}{
		"status":                  domain.CaseStatusWon,
		"financials_quoted_value": 8000,
	}).Error)

	order, err := f.orders.CreateFromCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderTypeProduction, order.Type)
	assert.Equal(t, 8000.0, order.TotalAmount)
	assert.Equal(t, "formulation", order.Stage)
	assert.Equal(t, 0, order.Progress)
	require.NotNil(t, order.CaseID)

	var linked domain.Case
	require.NoError(t, f.db.First(&linked, "id = ?", c.ID).Error)
	require.NotNil(t, linked.OrderID)
	assert.Equal(t, order.ID, *linked.OrderID)

	_, err = f.orders.CreateFromCase(ctx, c.ID)
	assert.ErrorIs(t, err, service.ErrCaseHasOrder)
}

func TestOrderService_ProductionProgress(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	order, err := f.orders.Create(ctx, &domain.CreateOrderRequest{
		Type:        domain.OrderTypeProduction,
		CustomerID:  customer.ID,
		Title:       "Serum üretimi",
		TotalAmount: 1000,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-\d{4}-0001$`, order.OrderNumber)

	advanced, err := f.orders.AdvanceStage(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "sampling", advanced.Stage)
	assert.Equal(t, 13, advanced.Progress)

	toggled, err := f.orders.ToggleProductionStep(ctx, order.ID, "sampling")
	require.NoError(t, err)
	assert.Equal(t, 25, toggled.Progress)

	_, err = f.orders.ToggleProductionStep(ctx, order.ID, "nope")
	assert.ErrorIs(t, err, service.ErrStepNotFound)

	_, err = f.orders.SetStage(ctx, order.ID, "in_transit")
	assert.ErrorIs(t, err, service.ErrInvalidStage)

	last, err := f.orders.SetStage(ctx, order.ID, "shipment")
	require.NoError(t, err)
	assert.Equal(t, "shipment", last.Stage)

	_, err = f.orders.AdvanceStage(ctx, order.ID)
	assert.ErrorIs(t, err, service.ErrNoNextStage)
}

func TestOrderService_StageProgressForSupply(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	order, err := f.orders.Create(ctx, &domain.CreateOrderRequest{
		Type:       domain.OrderTypeSupply,
		CustomerID: customer.ID,
		Title:      "Şişe tedariki",
		Supplier:   "Cam A.Ş.",
	})
	require.NoError(t, err)
	assert.Equal(t, "sourcing", order.Stage)
	assert.Equal(t, 17, order.Progress)

	_, err = f.orders.ToggleProductionStep(ctx, order.ID, "sourcing")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestOrderService_UpdatePaymentDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	order, err := f.orders.Create(ctx, &domain.CreateOrderRequest{
		Type:        domain.OrderTypeService,
		CustomerID:  customer.ID,
		Title:       "Eğitim",
		TotalAmount: 500,
	})
	require.NoError(t, err)

	partial, err := f.orders.UpdatePayment(ctx, order.ID, &domain.UpdatePaymentRequest{PaidAmount: 200})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPartial, partial.PaymentStatus)

	paid, err := f.orders.UpdatePayment(ctx, order.ID, &domain.UpdatePaymentRequest{PaidAmount: 500})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
}

func TestOrderService_DeleteUnlinksCase(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	c := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusWon)

	order, err := f.orders.CreateFromCase(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, f.orders.Delete(ctx, order.ID))

	var unlinked domain.Case
	require.NoError(t, f.db.First(&unlinked, "id = ?", c.ID).Error)
	assert.Nil(t, unlinked.OrderID)
	require.NoError(t, f.cases.Delete(ctx, c.ID))
}

func TestOrderService_CaseLinksToOneOrderOnly(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	c := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusWon)

	cases := repository.NewCaseRepository(f.db)
	attached, err := cases.AttachOrder(context.Background(), c.ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, attached)

	attached, err = cases.AttachOrder(context.Background(), c.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, attached, "a case that already has an order keeps it")

	_, err = f.orders.Create(ctx, &domain.CreateOrderRequest{
		Type:       domain.OrderTypeProduction,
		CustomerID: customer.ID,
		CaseID:     &c.ID,
		Title:      "Serum üretimi",
	})
	assert.ErrorIs(t, err, service.ErrCaseHasOrder)
	assert.Zero(t, count(t, f.db, &domain.Order{}))
}

func TestOrderService_CreateRejectsCaseOfOtherCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	owner := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	other := testutil.CreateTestCustomer(t, f.db, "Ece", "")
	c := testutil.CreateTestCase(t, f.db, owner, domain.CaseStatusWon)

	_, err := f.orders.Create(ctx, &domain.CreateOrderRequest{
		Type:       domain.OrderTypeSupply,
		CustomerID: other.ID,
		CaseID:     &c.ID,
		Title:      "Şişe tedariki",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Zero(t, count(t, f.db, &domain.Order{}))

	var unchanged domain.Case
	require.NoError(t, f.db.First(&unchanged, "id = ?", c.ID).Error)
	assert.Nil(t, unchanged.OrderID)
}
