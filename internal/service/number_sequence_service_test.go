package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberSequenceService_OverviewPeeksWithoutDrawing(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	year := time.Now().Year()

	overview, err := f.numbers.Overview(ctx)
	require.NoError(t, err)
	assert.Empty(t, overview.Sequences)
	assert.Equal(t, fmt.Sprintf("REQ-%d-0001", year), overview.NextRequestNumber)
	assert.Equal(t, fmt.Sprintf("ORD-%d-0001", year), overview.NextOrderNumber)

	newRequest(t, f, "Birinci")
	newRequest(t, f, "İkinci")

	overview, err = f.numbers.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview.Sequences, 1)
	assert.Equal(t, repository.SequenceScopeRequest, overview.Sequences[0].Scope)
	assert.Equal(t, 2, overview.Sequences[0].LastSequence)
	assert.Equal(t, fmt.Sprintf("REQ-%d-0003", year), overview.NextRequestNumber)

	// peeking twice does not advance the sequence
	next, err := f.numbers.PeekNumber(ctx, repository.SequenceScopeRequest)
	require.NoError(t, err)
	assert.Equal(t, overview.NextRequestNumber, next)

	third := newRequest(t, f, "Üçüncü")
	assert.Equal(t, next, third.RequestNumber)
}

func TestNumberSequenceService_ValidateNumber(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.numbers.ValidateNumber("REQ-2026-0001"))
	assert.True(t, f.numbers.ValidateNumber("ORD-2026-12345"))
	assert.False(t, f.numbers.ValidateNumber("REQ-26-0001"))
	assert.False(t, f.numbers.ValidateNumber("INV-2026-0001"))
}
