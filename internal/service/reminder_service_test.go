package service_test

import (
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderService_DueAppliesEnabledRules(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	now := time.Now().UTC()

	req := newRequest(t, f, "Vitamin C serum")
	_, err := f.requests.AddFollowUp(ctx, req.ID, &domain.AddFollowUpRequest{
		Type:        domain.FollowUpCall,
		Description: "Numune geri bildirimi",
		DueAt:       now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	_, err = f.requests.AddFollowUp(ctx, req.ID, &domain.AddFollowUpRequest{
		Type:  domain.FollowUpEmail,
		DueAt: now.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	stale := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNew)
	quoted := testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusQuoteSent)
	testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNegotiating)
	require.NoError(t, f.db.Model(stale).Update("status_changed_at", now.Add(-200*time.Hour)).Error)
	require.NoError(t, f.db.Model(quoted).Update("status_changed_at", now.Add(-100*time.Hour)).Error)

	contact := testutil.CreateTestContact(t, f.db, "Bekleyen", "b@example.com")
	require.NoError(t, f.db.Model(contact).Update("created_at", now.Add(-72*time.Hour)).Error)

	reminders, err := f.reminders.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, reminders, 3)

	assert.Equal(t, domain.TriggerCaseStale, reminders[0].Trigger)
	assert.Equal(t, stale.ID, reminders[0].EntityID)
	assert.Equal(t, domain.TriggerQuoteNoResponse, reminders[1].Trigger)
	assert.Equal(t, quoted.ID, reminders[1].EntityID)
	assert.Equal(t, domain.TriggerFollowUpDue, reminders[2].Trigger)
	assert.Equal(t, req.ID, reminders[2].EntityID)
	assert.Contains(t, reminders[2].Title, "Numune geri bildirimi")
}

func TestReminderService_ContactRuleFollowsSettings(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	now := time.Now().UTC()

	contact := testutil.CreateTestContact(t, f.db, "Bekleyen", "b@example.com")
	require.NoError(t, f.db.Model(contact).Update("created_at", now.Add(-30*time.Hour)).Error)

	reminders, err := f.reminders.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, reminders)

	rules := domain.DefaultAutoReminderSettings().Rules
	raw := make([]interface{}, len(rules))
	for i, r := range rules {
		raw[i] = map[string]interface{}{
			"id": r.ID, "name": r.Name, "trigger": string(r.Trigger),
			"afterHours": r.AfterHours, "enabled": true, "channel": r.Channel,
		}
	}
	_, err = f.settings.Update(ctx, domain.SettingsAutoReminders, map[string]interface{}{"rules": raw})
	require.NoError(t, err)

	reminders, err = f.reminders.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "contact", reminders[0].EntityType)
	assert.Equal(t, "Bekleyen", reminders[0].Title)
}
