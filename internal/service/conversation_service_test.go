package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_AddMessageUpdatesCounters(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")

	conv, err := f.conversation.Create(ctx, &domain.CreateConversationRequest{
		CustomerID: customer.ID,
		Channel:    domain.ChannelWhatsApp,
		Subject:    "Numune",
	})
	require.NoError(t, err)

	_, err = f.conversation.AddMessage(ctx, conv.ID, &domain.AddMessageRequest{Direction: domain.DirectionInbound, Body: "Merhaba"})
	require.NoError(t, err)
	out, err := f.conversation.AddMessage(ctx, conv.ID, &domain.AddMessageRequest{Direction: domain.DirectionOutbound, Body: "Hoş geldiniz"})
	require.NoError(t, err)
	assert.Equal(t, "Test Admin", out.Sender)

	got, err := f.conversation.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)
	assert.Equal(t, 1, got.UnreadCount)
	assert.NotEmpty(t, got.LastMessageAt)

	read, err := f.conversation.MarkRead(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, read.UnreadCount)

	messages, err := f.conversation.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Merhaba", messages[0].Body)
	assert.NotEmpty(t, messages[0].ReadAt)

	stored, err := f.customers.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.LastContactAt)
	assert.Equal(t, 1, stored.Stats.TotalConversations)
}

func TestConversationService_ClosedConversation(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	conv := testutil.CreateTestConversation(t, f.db, customer)

	_, err := f.conversation.UpdateStatus(ctx, conv.ID, domain.ConversationStatusClosed)
	require.NoError(t, err)

	_, err = f.conversation.AddMessage(ctx, conv.ID, &domain.AddMessageRequest{Direction: domain.DirectionOutbound, Body: "x"})
	assert.ErrorIs(t, err, service.ErrConversationClosed)

	_, err = f.conversation.AddMessage(ctx, conv.ID, &domain.AddMessageRequest{Direction: domain.DirectionInbound, Body: "tekrar ben"})
	require.NoError(t, err)

	reopened, err := f.conversation.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationStatusOpen, reopened.Status)

	_, err = f.conversation.UpdateStatus(ctx, conv.ID, domain.ConversationStatus("archived"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestConversationService_RecalculateMessageCounts(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	customer := testutil.CreateTestCustomer(t, f.db, "Ada", "")
	drifted := testutil.CreateTestConversation(t, f.db, customer)
	healthy := testutil.CreateTestConversation(t, f.db, customer)

	for i := 0; i < 3; i++ {
		_, err := f.conversation.AddMessage(ctx, drifted.ID, &domain.AddMessageRequest{Direction: domain.DirectionInbound, Body: "m"})
		require.NoError(t, err)
	}
	_, err := f.conversation.AddMessage(ctx, healthy.ID, &domain.AddMessageRequest{Direction: domain.DirectionInbound, Body: "m"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.Conversation{}).Where("id = ?", drifted.ID).Update("message_count", 7).Error)

	result, err := f.conversation.RecalculateMessageCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Fixed)

	fixed, err := f.conversation.GetByID(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, fixed.MessageCount)

	again, err := f.conversation.RecalculateMessageCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Fixed)
}
