package domain

import (
	"time"

	"github.com/google/uuid"
)

// CasePhase groups case statuses into pipeline phases
type CasePhase string

const (
	PhaseQualification CasePhase = "qualification"
	PhaseQuote         CasePhase = "quote"
	PhaseNegotiation   CasePhase = "negotiation"
	PhaseWon           CasePhase = "won"
	PhaseLost          CasePhase = "lost"
)

// casePhaseOrder is the forward order of phases. Lost is terminal and sits
// outside the forward order.
var casePhaseOrder = []CasePhase{PhaseQualification, PhaseQuote, PhaseNegotiation, PhaseWon}

// PhaseForStatus maps a case status to its phase. on_hold has no phase of
// its own and returns an empty phase.
func PhaseForStatus(s CaseStatus) CasePhase {
	switch s {
	case CaseStatusNew, CaseStatusQualifying:
		return PhaseQualification
	case CaseStatusQuotePreparing, CaseStatusQuoteSent:
		return PhaseQuote
	case CaseStatusNegotiating:
		return PhaseNegotiation
	case CaseStatusWon:
		return PhaseWon
	case CaseStatusLost:
		return PhaseLost
	}
	return ""
}

func phaseIndex(p CasePhase) int {
	for i, v := range casePhaseOrder {
		if v == p {
			return i
		}
	}
	return -1
}

// Phase returns the current phase; a case on hold keeps the phase it was in
func (c *Case) Phase() CasePhase {
	if c.Status == CaseStatusOnHold {
		if p := PhaseForStatus(c.HeldFromStatus); p != "" {
			return p
		}
		return PhaseQualification
	}
	return PhaseForStatus(c.Status)
}

// BlockingItems returns the required, incomplete checklist items that prevent
// moving the case to target. Only forward phase moves are gated; moving to
// lost, on_hold or within the same phase never blocks. A lost case reopens
// from qualification, so every phase before target is gated.
func (c *Case) BlockingItems(target CaseStatus) []ChecklistItem {
	current := c.Phase()
	if current == PhaseLost {
		current = PhaseQualification
	}
	from := phaseIndex(current)
	to := phaseIndex(PhaseForStatus(target))
	if from < 0 || to < 0 || to <= from {
		return nil
	}

	gated := make(map[CasePhase]bool, to-from)
	for i := from; i < to; i++ {
		gated[casePhaseOrder[i]] = true
	}

	var blocking []ChecklistItem
	for _, item := range c.Checklist {
		if item.Required && !item.Completed && gated[item.Phase] {
			blocking = append(blocking, item)
		}
	}
	return blocking
}

// ChecklistFromTemplate seeds case checklist items from a template
func ChecklistFromTemplate(template []ChecklistTemplateItem) []ChecklistItem {
	items := make([]ChecklistItem, 0, len(template))
	for _, t := range template {
		items = append(items, ChecklistItem{
			ID:       uuid.New(),
			Key:      t.Key,
			Label:    t.Label,
			Phase:    t.Phase,
			Required: t.Required,
		})
	}
	return items
}

// SLAState is the outcome of evaluating a case against its SLA
type SLAState string

const (
	SLAStateOK       SLAState = "ok"
	SLAStateWarning  SLAState = "warning"
	SLAStateBreached SLAState = "breached"
	SLAStateNone     SLAState = "none"
)

// SLAEvaluation describes how long a case has been in its status
type SLAEvaluation struct {
	Status        CaseStatus `json:"status"`
	State         SLAState   `json:"state"`
	HoursInStatus float64    `json:"hoursInStatus"`
	MaxHours      float64    `json:"maxHours,omitempty"`
	WarningHours  float64    `json:"warningHours,omitempty"`
}

// EvaluateSLA compares time in status with the configured thresholds.
// Closed cases and statuses without a threshold evaluate to none.
func EvaluateSLA(c *Case, sla SLASettings, now time.Time) SLAEvaluation {
	hours := now.Sub(c.StatusChangedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	eval := SLAEvaluation{
		Status:        c.Status,
		State:         SLAStateNone,
		HoursInStatus: hours,
	}
	if c.Status.IsClosed() {
		return eval
	}

	threshold, ok := sla.Thresholds[c.Status]
	if !ok || threshold.MaxDuration <= 0 {
		return eval
	}

	eval.MaxHours = threshold.MaxDuration
	eval.WarningHours = threshold.WarningThreshold
	switch {
	case hours >= threshold.MaxDuration:
		eval.State = SLAStateBreached
	case threshold.WarningThreshold > 0 && hours >= threshold.WarningThreshold:
		eval.State = SLAStateWarning
	default:
		eval.State = SLAStateOK
	}
	return eval
}
