package messaging_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *messaging.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return messaging.NewClient(&config.MessagingConfig{GraphBaseURL: srv.URL, GraphVersion: "v21.0", Timeout: 5})
}

func TestClient_Me(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","name":"Formula Lab"}`))
	})

	profile, err := client.Me(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "42", profile.ID)
	assert.Equal(t, "Formula Lab", profile.Name)
}

func TestClient_MeReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	})

	_, err := client.Me(context.Background(), "bad")
	require.Error(t, err)

	var apiErr *messaging.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, "OAuthException", apiErr.Type)
}

func TestClient_MissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.Me(context.Background(), "")
	assert.ErrorIs(t, err, messaging.ErrMissingToken)
}

func TestClient_BusinessAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/1234", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"1234","name":"Formula Lab TR","currency":"TRY"}`))
	})

	account, err := client.BusinessAccount(context.Background(), "tok", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Formula Lab TR", account.Name)
	assert.Equal(t, "TRY", account.Currency)
}

func TestClient_DebugToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/debug_token", r.URL.Path)
		assert.Equal(t, "user-token", r.URL.Query().Get("input_token"))
		assert.Equal(t, "Bearer app|secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"app_id":"app","is_valid":true,"scopes":["whatsapp_business_messaging"]}}`))
	})

	info, err := client.DebugToken(context.Background(), "user-token", "app", "secret")
	require.NoError(t, err)
	assert.True(t, info.IsValid)
	assert.Equal(t, []string{"whatsapp_business_messaging"}, info.Scopes)
}
