package service_test

import (
	"bytes"
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetService_RequiresPermissionAndPhrase(t *testing.T) {
	f := newFixture(t)
	testutil.CreateTestContact(t, f.db, "Ada", "ada@example.com")

	_, err := f.reset.ResetAll(testutil.ContextWithRole(domain.RoleAdmin), service.ResetConfirmationPhrase, true)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.reset.ResetAll(testutil.AdminContext(), "delete all data", true)
	assert.ErrorIs(t, err, service.ErrInvalidConfirmation)

	assert.Equal(t, int64(1), count(t, f.db, &domain.Contact{}))
}

func TestResetService_DeletesEntitiesAndKeepsSettings(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	testutil.CreateTestContact(t, f.db, "Ada", "ada@example.com")
	customer := testutil.CreateTestCustomer(t, f.db, "Ada Kozmetik", "")
	testutil.CreateTestCase(t, f.db, customer, domain.CaseStatusNew)
	conv := testutil.CreateTestConversation(t, f.db, customer)
	_, err := f.conversation.AddMessage(ctx, conv.ID, &domain.AddMessageRequest{Direction: domain.DirectionInbound, Body: "hi"})
	require.NoError(t, err)
	req := newRequest(t, f, "Şampuan")
	_, err = f.requests.UploadAttachment(ctx, req.ID, "brief.txt", "text/plain", bytes.NewReader([]byte("brief")))
	require.NoError(t, err)
	var stored domain.RequestAttachment
	require.NoError(t, f.db.First(&stored).Error)
	_, err = f.settings.Update(ctx, domain.SettingsSync, map[string]interface{}{"autoSyncEnabled": true})
	require.NoError(t, err)

	result, err := f.reset.ResetAll(ctx, service.ResetConfirmationPhrase, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Deleted["contacts"])
	assert.Equal(t, int64(1), result.Deleted["messages"])
	assert.Equal(t, int64(1), result.Deleted["cases"])
	assert.Equal(t, int64(1), result.Deleted["requests"])
	assert.Equal(t, int64(1), result.Deleted["request_attachments"])

	assert.Zero(t, count(t, f.db, &domain.Contact{}))
	assert.Zero(t, count(t, f.db, &domain.Customer{}))
	assert.Zero(t, count(t, f.db, &domain.Request{}))
	assert.True(t, f.settings.Sync(ctx).AutoSyncEnabled)

	_, err = f.files.Download(ctx, stored.StoragePath)
	assert.Error(t, err)

	// numbering restarts after a reset
	again := newRequest(t, f, "Krem")
	assert.Equal(t, req.RequestNumber, again.RequestNumber)
}
