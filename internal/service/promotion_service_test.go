package service_test

import (
	"strings"
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotionService_PromoteKremContact(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	contact, err := f.contacts.Create(ctx, &domain.CreateContactRequest{
		Name:    "Ada",
		Email:   "a@x.com",
		Service: "krem üretimi",
	})
	require.NoError(t, err)

	result, err := f.promotion.Promote(ctx, contact.ID, &domain.PromoteContactRequest{})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryCosmeticManufacturing, result.Request.Category)
	assert.Contains(t, result.Request.Requirements, "Hizmet: krem üretimi")
	assert.Equal(t, domain.RequestStatusNew, result.Request.Status)
	assert.Equal(t, service.ContactSourceForm, result.Request.Source)
	assert.Equal(t, "a@x.com", result.Request.ContactEmail)
	assert.True(t, strings.HasPrefix(result.Request.RequestNumber, "REQ-"))
	assert.False(t, result.CompanyCreated)
	assert.Nil(t, result.Company)

	stored, err := f.contacts.GetByID(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusInProgress, stored.Status)
	require.NotNil(t, stored.RequestID)
	assert.Equal(t, result.Request.ID, *stored.RequestID)
}

func TestPromotionService_PreviewMatchesCompanyByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	company := testutil.CreateTestCompany(t, f.db, "Ada Kozmetik", "A@X.com")
	contact := testutil.CreateTestContact(t, f.db, "Ada", "a@x.com")

	preview, err := f.promotion.Preview(ctx, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, preview.MatchedCompany)
	assert.Equal(t, company.ID, preview.MatchedCompany.ID)
	assert.False(t, preview.NeedsNewCompany)
	assert.Equal(t, domain.CategoryConsultation, preview.Draft.Category)

	// nothing written
	assert.Equal(t, int64(0), count(t, f.db, &domain.Request{}))
}

func TestPromotionService_PreviewFlagsAmbiguousCategory(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	contact, err := f.contacts.Create(ctx, &domain.CreateContactRequest{
		Name:    "Ece",
		Service: "krem",
		Message: "reklam kampanyası da istiyoruz",
	})
	require.NoError(t, err)

	preview, err := f.promotion.Preview(ctx, contact.ID)
	require.NoError(t, err)
	assert.True(t, preview.NeedsNewCompany)
	assert.Equal(t, domain.CategoryCosmeticManufacturing, preview.Draft.Category)
	assert.True(t, preview.Draft.AmbiguousCategory)
	assert.Contains(t, preview.Draft.MatchedCategories, domain.CategoryDigitalMarketing)
}

func TestPromotionService_PromoteCreatesCompany(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	contact, err := f.contacts.Create(ctx, &domain.CreateContactRequest{
		Name:    "Deniz",
		Email:   "deniz@ornek.com",
		Company: "Ornek Kimya",
		Service: "deterjan",
	})
	require.NoError(t, err)

	priority := "acil"
	value := 25000.0
	result, err := f.promotion.Promote(ctx, contact.ID, &domain.PromoteContactRequest{
		CreateCompany:  true,
		Priority:       &priority,
		EstimatedValue: &value,
	})
	require.NoError(t, err)

	assert.True(t, result.CompanyCreated)
	require.NotNil(t, result.Company)
	assert.Equal(t, "Ornek Kimya", result.Company.Name)
	require.NotNil(t, result.Request.CompanyID)
	assert.Equal(t, result.Company.ID, *result.Request.CompanyID)
	assert.Equal(t, domain.CategoryCleaningManufacturing, result.Request.Category)
	assert.Equal(t, domain.PriorityUrgent, result.Request.Priority)
	assert.Equal(t, 25000.0, result.Request.EstimatedValue)
	assert.Equal(t, "Ornek Kimya - deterjan", result.Request.Title)
}

func TestPromotionService_PromoteTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	contact := testutil.CreateTestContact(t, f.db, "Ada", "a@x.com")

	_, err := f.promotion.Promote(ctx, contact.ID, nil)
	require.NoError(t, err)

	_, err = f.promotion.Promote(ctx, contact.ID, nil)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, int64(1), count(t, f.db, &domain.Request{}))
}

func TestPromotionService_PromoteRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	contact := testutil.CreateTestContact(t, f.db, "Ada", "a@x.com")

	// Make the request insert fail after the company has been created
	require.NoError(t, f.db.Migrator().DropTable(&domain.Request{}))

	_, err := f.promotion.Promote(ctx, contact.ID, &domain.PromoteContactRequest{CreateCompany: true})
	require.Error(t, err)

	assert.Equal(t, int64(0), count(t, f.db, &domain.Company{}))

	var stored domain.Contact
	require.NoError(t, f.db.First(&stored, "id = ?", contact.ID).Error)
	assert.Equal(t, domain.ContactStatusNew, stored.Status)
	assert.Nil(t, stored.RequestID)
}

func TestPromotionService_UnknownContact(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()

	_, err := f.promotion.Promote(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, service.ErrContactNotFound)
}

func TestPromotionService_DeletedRequestFreesContact(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	contact := testutil.CreateTestContact(t, f.db, "Ada", "a@x.com")

	first, err := f.promotion.Promote(ctx, contact.ID, &domain.PromoteContactRequest{})
	require.NoError(t, err)

	_, err = f.promotion.Promote(ctx, contact.ID, &domain.PromoteContactRequest{})
	assert.ErrorIs(t, err, service.ErrConflict)

	require.NoError(t, f.requests.Delete(ctx, first.Request.ID))

	stored, err := f.contacts.GetByID(ctx, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RequestID)

	second, err := f.promotion.Promote(ctx, contact.ID, &domain.PromoteContactRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Request.ID, second.Request.ID)
}
