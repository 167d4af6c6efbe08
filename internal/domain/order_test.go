package domain_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateStageProgress(t *testing.T) {
	assert.Equal(t, 13, domain.CalculateStageProgress(domain.OrderTypeProduction, "formulation"))
	assert.Equal(t, 100, domain.CalculateStageProgress(domain.OrderTypeProduction, "shipment"))
	assert.Equal(t, 17, domain.CalculateStageProgress(domain.OrderTypeSupply, "sourcing"))
	assert.Equal(t, 60, domain.CalculateStageProgress(domain.OrderTypeService, "in_progress"))
	assert.Zero(t, domain.CalculateStageProgress(domain.OrderTypeSupply, "unknown"))
	assert.Zero(t, domain.CalculateStageProgress(domain.OrderTypeSupply, ""))
	assert.Zero(t, domain.CalculateStageProgress(domain.OrderType("custom"), "anything"))
}

func TestNextStage(t *testing.T) {
	next, ok := domain.NextStage(domain.OrderTypeSupply, "")
	assert.True(t, ok)
	assert.Equal(t, "sourcing", next)

	next, ok = domain.NextStage(domain.OrderTypeSupply, "in_transit")
	assert.True(t, ok)
	assert.Equal(t, "received", next)

	_, ok = domain.NextStage(domain.OrderTypeSupply, "delivered")
	assert.False(t, ok)

	_, ok = domain.NextStage(domain.OrderType("custom"), "")
	assert.False(t, ok)
}

func TestCalculateProductionProgress(t *testing.T) {
	assert.Zero(t, domain.CalculateProductionProgress(nil))
	assert.Zero(t, domain.CalculateProductionProgress(&domain.ProductionInfo{}))

	info := &domain.ProductionInfo{Steps: domain.DefaultProductionSteps()}
	assert.Len(t, info.Steps, 8)
	info.Steps[0].Completed = true
	info.Steps[1].Completed = true
	info.Steps[2].Completed = true
	assert.Equal(t, 38, domain.CalculateProductionProgress(info))
}

func TestOrder_DetailsProgress(t *testing.T) {
	production := &domain.Order{
		Type:       domain.OrderTypeProduction,
		Stage:      "shipment",
		Production: &domain.ProductionInfo{Steps: domain.DefaultProductionSteps()},
	}
	// production progress follows completed steps, not the stage
	assert.Zero(t, production.Progress())
	assert.Equal(t, domain.OrderTypeProduction, production.Details().OrderType())

	supply := &domain.Order{Type: domain.OrderTypeSupply, Stage: "received"}
	assert.Equal(t, 83, supply.Progress())
	assert.IsType(t, domain.SupplyDetails{}, supply.Details())

	unknown := &domain.Order{Type: domain.OrderType("legacy"), Stage: "x"}
	assert.Zero(t, unknown.Progress())
	assert.Equal(t, domain.OrderType("legacy"), unknown.Details().OrderType())
}
