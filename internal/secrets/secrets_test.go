package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingFetcher struct {
	values map[string]string
	calls  int
}

func (f *countingFetcher) fetch(_ context.Context, name string) (string, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "staging"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestVaultClient_CachesUntilExpiry(t *testing.T) {
	f := &countingFetcher{values: map[string]string{"jwt-secret": "s3cret"}}
	client := newVaultClient(f, &VaultConfig{VaultName: "kv", CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	v, err := client.GetSecret(context.Background(), "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = client.GetSecret(context.Background(), "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	now = now.Add(2 * time.Minute)
	_, err = client.GetSecret(context.Background(), "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestVaultClient_NoCache(t *testing.T) {
	f := &countingFetcher{values: map[string]string{"a": "1"}}
	client := newVaultClient(f, &VaultConfig{VaultName: "kv"}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := client.GetSecret(context.Background(), "a")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.calls)
}

func TestVaultClient_MissingSecret(t *testing.T) {
	f := &countingFetcher{values: map[string]string{}}
	client := newVaultClient(f, &VaultConfig{VaultName: "kv", CacheEnabled: true}, zap.NewNop())

	_, err := client.GetSecret(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestProvider_EnvironmentSource(t *testing.T) {
	t.Setenv("CRM_TEST_SECRET", "from-env")

	p, err := NewProvider(&ProviderConfig{Source: SourceEnvironment, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsVaultEnabled())

	v, err := p.GetSecret(context.Background(), "CRM_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = p.GetSecret(context.Background(), "CRM_TEST_SECRET_UNSET")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	v, err = p.GetSecretOrEnv(context.Background(), "ignored", "CRM_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault, Environment: "production"}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_Resolve(t *testing.T) {
	t.Setenv("CRM_TEST_JWT", "jwt-from-env")

	p, err := NewProvider(&ProviderConfig{Source: SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)

	jwt, apiKey := "", "unchanged"
	n := p.Resolve(context.Background(), []Binding{
		{Secret: NameJWTSecret, Env: "CRM_TEST_JWT", Target: &jwt},
		{Secret: "CRM_TEST_MISSING", Env: "CRM_TEST_MISSING_TOO", Target: &apiKey},
	})

	assert.Equal(t, 1, n)
	assert.Equal(t, "jwt-from-env", jwt)
	assert.Equal(t, "unchanged", apiKey)
}
