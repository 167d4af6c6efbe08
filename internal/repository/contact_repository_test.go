package repository_test

import (
	"context"
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewContactRepository(db)
	ctx := context.Background()

	testutil.CreateTestContact(t, db, "100% Organik", "")
	testutil.CreateTestContact(t, db, "1000 Organik", "")
	testutil.CreateTestContact(t, db, "ada_kozmetik", "")
	testutil.CreateTestContact(t, db, "adakozmetik", "")

	tests := []struct {
		search string
		want   []string
	}{
		{"100%", []string{"100% Organik"}},
		{"ada_k", []string{"ada_kozmetik"}},
		{"organik", []string{"1000 Organik", "100% Organik"}},
		{"!", nil},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			page, err := repo.List(ctx, &repository.ContactFilters{Search: tt.search}, repository.CursorParams{})
			require.NoError(t, err)
			names := make([]string, 0, len(page.Items))
			for _, c := range page.Items {
				names = append(names, c.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestContactRepository_ClearRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewContactRepository(db)
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Ada", "a@x.com")
	requestID := uuid.New()
	require.NoError(t, repo.MarkPromoted(ctx, contact.ID, requestID))

	n, err := repo.ClearRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := repo.GetByID(ctx, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RequestID)
	assert.Equal(t, domain.ContactStatusInProgress, stored.Status)
}
