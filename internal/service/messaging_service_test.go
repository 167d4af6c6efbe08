package service_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/messaging"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func newMessagingService(t *testing.T, f *fixture, handler http.HandlerFunc) *service.MessagingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := messaging.NewClient(&config.MessagingConfig{GraphBaseURL: srv.URL, GraphVersion: "v21.0", Timeout: 5})
	return service.NewMessagingService(f.settings, client, zap.NewNop())
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "…"},
		{"exactly10!", "…"},
		{"EAAGabcdefghij1234", "EAAGab…1234"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, service.MaskSecret(tt.in))
		})
	}
}

func TestMessagingService_UpdateIsPartialAndMasked(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	svc := newMessagingService(t, f, func(w http.ResponseWriter, r *http.Request) {})

	enabled := true
	first, err := svc.Update(ctx, &domain.UpdateMessagingSettingsRequest{
		Enabled:           &enabled,
		AppID:             strPtr("123456"),
		AppSecret:         strPtr("supersecretvalue"),
		AccessToken:       strPtr("EAAGabcdefghij1234"),
		BusinessAccountID: strPtr("waba-1"),
	})
	require.NoError(t, err)
	assert.True(t, first.Connected)
	assert.Equal(t, "EAAGab…1234", first.AccessToken)
	assert.Equal(t, "supers…alue", first.AppSecret)
	require.NotNil(t, first.ConnectedAt)

	second, err := svc.Update(ctx, &domain.UpdateMessagingSettingsRequest{PhoneNumberID: strPtr("905551112233")})
	require.NoError(t, err)
	assert.Equal(t, "905551112233", second.PhoneNumberID)
	assert.Equal(t, "waba-1", second.BusinessAccountID)
	assert.Equal(t, first.AccessToken, second.AccessToken)
	require.NotNil(t, second.ConnectedAt)
	assert.True(t, first.ConnectedAt.Equal(*second.ConnectedAt))

	stored := f.settings.Messaging(ctx)
	assert.Equal(t, "EAAGabcdefghij1234", stored.AccessToken)

	doc := svc.Get(ctx)
	assert.NotContains(t, doc.AccessToken, "cdefgh")
}

func TestMessagingService_TestCallsGraphAPI(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	var gotAuth string
	svc := newMessagingService(t, f, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "42", "name": "Formula Lab"})
	})

	_, err := svc.Test(ctx)
	assert.ErrorIs(t, err, service.ErrMessagingNotConfigured)

	_, err = svc.Update(ctx, &domain.UpdateMessagingSettingsRequest{AccessToken: strPtr("EAAGabcdefghij1234")})
	require.NoError(t, err)

	profile, err := svc.Test(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Formula Lab", profile.Name)
	assert.Equal(t, "Bearer EAAGabcdefghij1234", gotAuth)

	_, err = svc.FetchAccount(ctx)
	assert.ErrorIs(t, err, service.ErrMessagingNotConfigured)
}

func TestMessagingService_Disconnect(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext()
	svc := newMessagingService(t, f, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Update(ctx, &domain.UpdateMessagingSettingsRequest{AccessToken: strPtr("EAAGabcdefghij1234")})
	require.NoError(t, err)
	require.NoError(t, svc.Disconnect(ctx))

	doc := svc.Get(ctx)
	assert.False(t, doc.Connected)
	assert.Empty(t, doc.AccessToken)
	assert.Nil(t, doc.ConnectedAt)
}
