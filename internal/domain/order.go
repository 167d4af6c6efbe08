package domain

import "math"

// OrderStages holds the ordered stage list per order type
var OrderStages = map[OrderType][]string{
	OrderTypeProduction: {"formulation", "sampling", "approval", "procurement", "manufacturing", "quality_control", "packaging", "shipment"},
	OrderTypeSupply:     {"sourcing", "quotation", "ordered", "in_transit", "received", "delivered"},
	OrderTypeService:    {"planning", "scheduled", "in_progress", "review", "completed"},
}

var productionStepLabels = map[string]string{
	"formulation":     "Formülasyon",
	"sampling":        "Numune",
	"approval":        "Müşteri onayı",
	"procurement":     "Hammadde tedariki",
	"manufacturing":   "Üretim",
	"quality_control": "Kalite kontrol",
	"packaging":       "Paketleme",
	"shipment":        "Sevkiyat",
}

// DefaultProductionSteps returns a fresh, uncompleted production step list
func DefaultProductionSteps() []ProductionStep {
	stages := OrderStages[OrderTypeProduction]
	steps := make([]ProductionStep, 0, len(stages))
	for _, key := range stages {
		steps = append(steps, ProductionStep{Key: key, Label: productionStepLabels[key]})
	}
	return steps
}

// IsValidStage reports whether stage belongs to the stage list of t
func IsValidStage(t OrderType, stage string) bool {
	for _, s := range OrderStages[t] {
		if s == stage {
			return true
		}
	}
	return false
}

// NextStage returns the stage after current, or false when current is the last
// stage. An empty current stage yields the first stage.
func NextStage(t OrderType, current string) (string, bool) {
	stages := OrderStages[t]
	if len(stages) == 0 {
		return "", false
	}
	if current == "" {
		return stages[0], true
	}
	for i, s := range stages {
		if s == current && i+1 < len(stages) {
			return stages[i+1], true
		}
	}
	return "", false
}

// CalculateStageProgress returns (index+1)/len*100 for stage within the
// stage list of t. An empty stage list or unknown stage yields 0.
func CalculateStageProgress(t OrderType, stage string) int {
	return stageProgress(OrderStages[t], stage)
}

func stageProgress(stages []string, stage string) int {
	if len(stages) == 0 || stage == "" {
		return 0
	}
	for i, s := range stages {
		if s == stage {
			return percent(i+1, len(stages))
		}
	}
	return 0
}

// CalculateProductionProgress returns completed steps / total steps * 100
func CalculateProductionProgress(p *ProductionInfo) int {
	if p == nil || len(p.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range p.Steps {
		if s.Completed {
			done++
		}
	}
	return percent(done, len(p.Steps))
}

func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}

// OrderDetails is the type-specific part of an order. Each variant computes
// its own progress so callers never branch on order type.
type OrderDetails interface {
	OrderType() OrderType
	Progress() int
}

// ProductionDetails is the production variant
type ProductionDetails struct {
	Stage      string         `json:"stage"`
	Production ProductionInfo `json:"production"`
}

func (ProductionDetails) OrderType() OrderType { return OrderTypeProduction }

func (d ProductionDetails) Progress() int {
	return CalculateProductionProgress(&d.Production)
}

// SupplyDetails is the supply variant
type SupplyDetails struct {
	Stage  string     `json:"stage"`
	Supply SupplyInfo `json:"supply"`
}

func (SupplyDetails) OrderType() OrderType { return OrderTypeSupply }

func (d SupplyDetails) Progress() int {
	return CalculateStageProgress(OrderTypeSupply, d.Stage)
}

// ServiceDetails is the service variant
type ServiceDetails struct {
	Stage   string      `json:"stage"`
	Service ServiceInfo `json:"service"`
}

func (ServiceDetails) OrderType() OrderType { return OrderTypeService }

func (d ServiceDetails) Progress() int {
	return CalculateStageProgress(OrderTypeService, d.Stage)
}

// unknownDetails covers rows with an unrecognised type
type unknownDetails struct{ t OrderType }

func (d unknownDetails) OrderType() OrderType { return d.t }
func (unknownDetails) Progress() int          { return 0 }

// Details returns the variant for the order's type
func (o *Order) Details() OrderDetails {
	switch o.Type {
	case OrderTypeProduction:
		d := ProductionDetails{Stage: o.Stage}
		if o.Production != nil {
			d.Production = *o.Production
		}
		return d
	case OrderTypeSupply:
		d := SupplyDetails{Stage: o.Stage}
		if o.Supply != nil {
			d.Supply = *o.Supply
		}
		return d
	case OrderTypeService:
		d := ServiceDetails{Stage: o.Stage}
		if o.Service != nil {
			d.Service = *o.Service
		}
		return d
	}
	return unknownDetails{t: o.Type}
}

// Progress is shorthand for o.Details().Progress()
func (o *Order) Progress() int {
	return o.Details().Progress()
}
