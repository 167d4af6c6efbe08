package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_GetFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	sync := f.settings.Sync(ctx)
	assert.Equal(t, domain.DefaultSyncSettings(), sync)

	doc, err := f.settings.Get(ctx, domain.SettingsSync)
	require.NoError(t, err)
	assert.Equal(t, float64(60), doc["syncIntervalMinutes"])

	_, err = f.settings.Get(ctx, domain.SettingsKey("nope"))
	assert.ErrorIs(t, err, service.ErrUnknownSettingsKey)
}

func TestSettingsService_UpdateDeepMerges(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	_, err := f.settings.Update(ctx, domain.SettingsSLA, map[string]interface{}{
		"thresholds": map[string]interface{}{
			"new": map[string]interface{}{"maxDuration": 48},
		},
	})
	require.NoError(t, err)

	sla := f.settings.SLA(ctx)
	assert.Equal(t, 48.0, sla.Thresholds[domain.CaseStatusNew].MaxDuration)
	assert.Equal(t, domain.DefaultSLASettings().Thresholds[domain.CaseStatusNew].WarningThreshold, sla.Thresholds[domain.CaseStatusNew].WarningThreshold)
	assert.Equal(t, domain.DefaultSLASettings().Thresholds[domain.CaseStatusQuoteSent], sla.Thresholds[domain.CaseStatusQuoteSent])

	_, err = f.settings.Update(ctx, domain.SettingsSync, map[string]interface{}{"syncIntervalMinutes": "often"})
	assert.ErrorIs(t, err, service.ErrInvalidSettingsPayload)
}

func TestSettingsService_ResetSLARestoresDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	_, err := f.settings.Update(ctx, domain.SettingsSLA, map[string]interface{}{
		"thresholds": map[string]interface{}{
			"new":         map[string]interface{}{"maxDuration": 1, "warningThreshold": 1},
			"negotiating": map[string]interface{}{"maxDuration": 2, "warningThreshold": 1},
		},
	})
	require.NoError(t, err)
	require.NotEqual(t, domain.DefaultSLASettings(), f.settings.SLA(ctx))

	_, err = f.settings.Reset(ctx, domain.SettingsSLA)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSLASettings(), f.settings.SLA(ctx))
}
