package service_test

import (
	"bytes"
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/spreadsheet"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	dto, err := f.contacts.Create(ctx, &domain.CreateContactRequest{
		Name:  "  Ada Yılmaz ",
		Email: "Ada@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Yılmaz", dto.Name)
	assert.Equal(t, "ada@example.com", dto.Email)
	assert.Equal(t, domain.ContactStatusNew, dto.Status)
	assert.Equal(t, domain.PriorityNormal, dto.Priority)
	assert.Equal(t, service.ContactSourceForm, dto.Source)
}

func TestContactService_BulkOperationsSkipFailures(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	a := testutil.CreateTestContact(t, f.db, "Ada", "ada@example.com")
	b := testutil.CreateTestContact(t, f.db, "Bora", "bora@example.com")
	missing := uuid.New()

	result, err := f.contacts.BulkUpdateStatus(ctx, []uuid.UUID{a.ID, missing, b.ID}, domain.ContactStatusResponded)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing.String(), result.Errors[0].ID)

	got, err := f.contacts.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusResponded, got.Status)

	_, err = f.contacts.BulkUpdateStatus(ctx, []uuid.UUID{a.ID}, domain.ContactStatus("spam"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	deleted := f.contacts.BulkDelete(ctx, []uuid.UUID{missing, a.ID})
	assert.Equal(t, 1, deleted.Succeeded)
	assert.Equal(t, 1, deleted.Failed)
	assert.Equal(t, int64(1), count(t, f.db, &domain.Contact{}))
}

func TestContactService_ImportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.Write(&buf, "Contacts",
		[]string{"Name", "Email", "Priority", "Message"},
		[][]interface{}{
			{"Ada", "ada@example.com", "acil", "krem üretimi"},
			{"", "nobody@example.com", "", ""},
			{"Bora", "not-an-email", "", ""},
			{"Cem", "", "", ""},
		}))

	result, err := f.contacts.ImportXLSX(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Processed)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 4, result.Errors[1].Row)

	var ada domain.Contact
	require.NoError(t, f.db.Where("name = ?", "Ada").First(&ada).Error)
	assert.Equal(t, domain.PriorityUrgent, ada.Priority)
	assert.Equal(t, service.ContactSourceImport, ada.Source)
}

func TestContactService_ImportRequiresNameColumn(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.Write(&buf, "Contacts", []string{"Email"}, [][]interface{}{{"ada@example.com"}}))

	_, err := f.contacts.ImportXLSX(testutil.AdminContext(), &buf)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
