package service_test

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/spreadsheet"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, f *fixture, title string) *domain.RequestDTO {
	t.Helper()
	dto, err := f.requests.Create(testutil.AdminContext(), &domain.CreateRequestRequest{
		Title:    title,
		Category: domain.CategorySupplementManufacturing,
		Priority: domain.PriorityHigh,
	})
	require.NoError(t, err)
	return dto
}

func TestRequestService_CreateThenGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	created := newRequest(t, f, "Kolajen kapsül")

	got, err := f.requests.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kolajen kapsül", got.Title)
	assert.Equal(t, domain.CategorySupplementManufacturing, got.Category)
	assert.Equal(t, domain.RequestStatusNew, got.Status)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, "TRY", got.Currency)
	assert.NotEmpty(t, got.CreatedAt)
	assert.NotEmpty(t, got.UpdatedAt)

	byNumber, err := f.requests.GetByNumber(ctx, strings.ToLower(created.RequestNumber))
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)

	_, err = f.requests.GetByNumber(ctx, "REQ-12")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRequestService_BackToBackCreatesGetDistinctIdentity(t *testing.T) {
	f := newFixture(t)

	first := newRequest(t, f, "Birinci")
	second := newRequest(t, f, "İkinci")

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.RequestNumber, second.RequestNumber)
	assert.Equal(t, int64(2), count(t, f.db, &domain.Request{}))

	year := time.Now().Year()
	assert.Equal(t, "REQ-"+strconv.Itoa(year)+"-0001", first.RequestNumber)
	assert.Equal(t, "REQ-"+strconv.Itoa(year)+"-0002", second.RequestNumber)
}

func TestRequestService_UpdateStatusAnyToAny(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	req := newRequest(t, f, "Durum")

	done, err := f.requests.UpdateStatus(ctx, req.ID, domain.RequestStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCompleted, done.Status)

	back, err := f.requests.UpdateStatus(ctx, req.ID, domain.RequestStatusNew)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusNew, back.Status)

	_, err = f.requests.UpdateStatus(ctx, req.ID, domain.RequestStatus("bogus"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRequestService_NotesAndFollowUps(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	req := newRequest(t, f, "Notlar")

	_, err := f.requests.AddNote(ctx, req.ID, "ilk")
	require.NoError(t, err)
	withNotes, err := f.requests.AddNote(ctx, req.ID, "ikinci")
	require.NoError(t, err)
	require.Len(t, withNotes.Notes, 2)
	assert.Equal(t, "ikinci", withNotes.Notes[0].Content)
	assert.Equal(t, "Test Admin", withNotes.Notes[0].Author)
	assert.NotEqual(t, withNotes.Notes[0].ID, withNotes.Notes[1].ID)

	afterDelete, err := f.requests.DeleteNote(ctx, req.ID, withNotes.Notes[1].ID)
	require.NoError(t, err)
	require.Len(t, afterDelete.Notes, 1)

	_, err = f.requests.DeleteNote(ctx, req.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNoteNotFound)

	due := time.Now().UTC().Add(-time.Hour)
	withFollowUp, err := f.requests.AddFollowUp(ctx, req.ID, &domain.AddFollowUpRequest{
		Type:        domain.FollowUpCall,
		Description: "Numune için ara",
		DueAt:       due,
	})
	require.NoError(t, err)
	require.Len(t, withFollowUp.FollowUps, 1)

	dueList, err := f.requests.DueFollowUps(ctx, time.Now().UTC(), 100)
	require.NoError(t, err)
	require.Len(t, dueList, 1)
	assert.Equal(t, req.ID, dueList[0].RequestID)

	completed, err := f.requests.CompleteFollowUp(ctx, req.ID, withFollowUp.FollowUps[0].ID)
	require.NoError(t, err)
	assert.True(t, completed.FollowUps[0].Completed)

	dueList, err = f.requests.DueFollowUps(ctx, time.Now().UTC(), 100)
	require.NoError(t, err)
	assert.Empty(t, dueList)
}

func TestRequestService_DeleteRequiresSuperAdmin(t *testing.T) {
	f := newFixture(t)
	req := newRequest(t, f, "Silinecek")

	err := f.requests.Delete(testutil.ContextWithRole(domain.RoleAdmin), req.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	err = f.requests.Delete(context.Background(), req.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, f.requests.Delete(testutil.AdminContext(), req.ID))
	_, err = f.requests.GetByID(testutil.AdminContext(), req.ID)
	assert.ErrorIs(t, err, service.ErrRequestNotFound)
}

func TestRequestService_Attachments(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	req := newRequest(t, f, "Ekler")

	att, err := f.requests.UploadAttachment(ctx, req.ID, "brief.txt", "text/plain", strings.NewReader("formül notları"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("formül notları")), att.Size)

	list, err := f.requests.ListAttachments(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, rc, err := f.requests.DownloadAttachment(ctx, req.ID, att.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "formül notları", string(body))

	// attachment ids are scoped to their request
	other := newRequest(t, f, "Başka")
	_, _, err = f.requests.DownloadAttachment(ctx, other.ID, att.ID)
	assert.ErrorIs(t, err, service.ErrAttachmentNotFound)

	require.NoError(t, f.requests.DeleteAttachment(ctx, req.ID, att.ID))
	list, err = f.requests.ListAttachments(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRequestService_UploadRejectsOversizedFile(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	req := newRequest(t, f, "Büyük")

	big := bytes.Repeat([]byte("x"), (1<<20)+1)
	_, err := f.requests.UploadAttachment(ctx, req.ID, "big.bin", "", bytes.NewReader(big))
	assert.ErrorIs(t, err, service.ErrFileTooLarge)
	assert.Equal(t, int64(0), count(t, f.db, &domain.RequestAttachment{}))
}

func TestRequestService_ExportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	newRequest(t, f, "A")
	newRequest(t, f, "B")

	var buf bytes.Buffer
	n, err := f.requests.ExportXLSX(ctx, &repository.RequestFilters{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	table, err := spreadsheet.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.True(t, table.HasColumn("Request Number"))
}
