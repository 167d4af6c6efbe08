package domain_test

import (
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caseWithChecklist(status domain.CaseStatus) *domain.Case {
	return &domain.Case{
		Status: status,
		Checklist: domain.ChecklistFromTemplate([]domain.ChecklistTemplateItem{
			{Key: "needs", Label: "Needs", Phase: domain.PhaseQualification, Required: true},
			{Key: "budget", Label: "Budget", Phase: domain.PhaseQualification, Required: false},
			{Key: "quote", Label: "Quote", Phase: domain.PhaseQuote, Required: true},
		}),
	}
}

func TestPhaseForStatus(t *testing.T) {
	assert.Equal(t, domain.PhaseQualification, domain.PhaseForStatus(domain.CaseStatusQualifying))
	assert.Equal(t, domain.PhaseQuote, domain.PhaseForStatus(domain.CaseStatusQuoteSent))
	assert.Equal(t, domain.PhaseNegotiation, domain.PhaseForStatus(domain.CaseStatusNegotiating))
	assert.Equal(t, domain.CasePhase(""), domain.PhaseForStatus(domain.CaseStatusOnHold))
}

func TestCase_BlockingItems(t *testing.T) {
	c := caseWithChecklist(domain.CaseStatusNew)

	blocking := c.BlockingItems(domain.CaseStatusQuotePreparing)
	require.Len(t, blocking, 1)
	assert.Equal(t, "needs", blocking[0].Key)

	assert.Len(t, c.BlockingItems(domain.CaseStatusNegotiating), 2, "skipping a phase gates every phase left behind")
	assert.Empty(t, c.BlockingItems(domain.CaseStatusQualifying))
	assert.Empty(t, c.BlockingItems(domain.CaseStatusLost))
	assert.Empty(t, c.BlockingItems(domain.CaseStatusOnHold))

	c.Checklist[0].Completed = true
	assert.Empty(t, c.BlockingItems(domain.CaseStatusQuoteSent))
}

func TestCase_PhaseWhileOnHold(t *testing.T) {
	c := caseWithChecklist(domain.CaseStatusOnHold)
	c.HeldFromStatus = domain.CaseStatusQuoteSent
	assert.Equal(t, domain.PhaseQuote, c.Phase())

	// the quote gate still applies when resuming into negotiation
	blocking := c.BlockingItems(domain.CaseStatusNegotiating)
	require.Len(t, blocking, 1)
	assert.Equal(t, "quote", blocking[0].Key)

	c.HeldFromStatus = ""
	assert.Equal(t, domain.PhaseQualification, c.Phase())
}

func TestCase_ReopeningLostCaseIsGated(t *testing.T) {
	c := caseWithChecklist(domain.CaseStatusLost)

	blocking := c.BlockingItems(domain.CaseStatusWon)
	require.Len(t, blocking, 2)
	assert.Equal(t, "needs", blocking[0].Key)
	assert.Equal(t, "quote", blocking[1].Key)
	assert.Empty(t, c.BlockingItems(domain.CaseStatusQualifying))

	c.Status = domain.CaseStatusOnHold
	c.HeldFromStatus = domain.CaseStatusLost
	assert.Len(t, c.BlockingItems(domain.CaseStatusWon), 2)
}

func TestEvaluateSLA(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sla := domain.DefaultSLASettings()

	tests := []struct {
		name   string
		status domain.CaseStatus
		age    time.Duration
		want   domain.SLAState
	}{
		{"fresh", domain.CaseStatusNew, 2 * time.Hour, domain.SLAStateOK},
		{"warning at threshold", domain.CaseStatusNew, 12 * time.Hour, domain.SLAStateWarning},
		{"breached", domain.CaseStatusNew, 30 * time.Hour, domain.SLAStateBreached},
		{"breached exactly at max", domain.CaseStatusQuoteSent, 120 * time.Hour, domain.SLAStateBreached},
		{"closed cases are never evaluated", domain.CaseStatusWon, 1000 * time.Hour, domain.SLAStateNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.Case{Status: tt.status, StatusChangedAt: now.Add(-tt.age)}
			eval := domain.EvaluateSLA(c, sla, now)
			assert.Equal(t, tt.want, eval.State)
			assert.InDelta(t, tt.age.Hours(), eval.HoursInStatus, 0.001)
		})
	}
}

func TestEvaluateSLA_MissingThreshold(t *testing.T) {
	now := time.Now().UTC()
	c := &domain.Case{Status: domain.CaseStatusNew, StatusChangedAt: now.Add(-100 * time.Hour)}

	eval := domain.EvaluateSLA(c, domain.SLASettings{}, now)
	assert.Equal(t, domain.SLAStateNone, eval.State)
	assert.Zero(t, eval.MaxHours)
}

func TestReduceCaseStats(t *testing.T) {
	stats := domain.ReduceCaseStats([]domain.Case{
		{Status: domain.CaseStatusWon, Financials: domain.CaseFinancials{FinalValue: 1000}},
		{Status: domain.CaseStatusWon, Financials: domain.CaseFinancials{FinalValue: 500}},
		{Status: domain.CaseStatusLost},
		{Status: domain.CaseStatusNew, Financials: domain.CaseFinancials{QuotedValue: 250}},
	})
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1500.0, stats.WonValue)
	assert.Equal(t, 250.0, stats.QuotedValue)
	assert.InDelta(t, 66.667, stats.WinRate, 0.01)

	empty := domain.ReduceCaseStats(nil)
	assert.Zero(t, empty.WinRate)
}
