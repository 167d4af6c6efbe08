package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource selects the backend secrets are read from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto picks vault outside of development
	SourceAuto SecretSource = "auto"
)

// Key Vault secret names used by the CRM API
const (
	NameDatabaseHost      = "POSTGRES-MAIN-HOST"
	NameDatabaseUser      = "POSTGRES-MAIN-USER"
	NameDatabasePassword  = "POSTGRES-MAIN-PASSWORD"
	NameMongoURI          = "MONGODB-URI"
	NameJWTSecret         = "jwt-secret"
	NameAdminAPIKey       = "admin-api-key"
	NameStorageConnection = "storage-connection-string"
)

// ErrSecretNotFound is returned when a secret has no value in the source
var ErrSecretNotFound = errors.New("secret not found")

// Binding ties a secret to the config field it populates. Env names an
// environment variable that takes precedence over the source when set.
type Binding struct {
	Secret string
	Env    string
	Target *string
}

// ProviderConfig configures NewProvider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Provider reads secrets from the environment or from Key Vault
type Provider struct {
	source SecretSource
	vault  *VaultClient
	logger *zap.Logger
}

// ResolveSource turns SourceAuto into a concrete source for environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	p := &Provider{source: ResolveSource(cfg.Source, cfg.Environment), logger: logger}

	if p.source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required for source %q", p.source)
		}
		vault, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		p.vault = vault
	}

	logger.Info("Secrets provider ready",
		zap.String("source", string(p.source)),
		zap.String("environment", cfg.Environment),
	)
	return p, nil
}

// GetSecret looks name up in the active source. With the environment
// source, name is the variable name.
func (p *Provider) GetSecret(ctx context.Context, name string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	case SourceVault:
		if p.vault == nil {
			return "", errors.New("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, name)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv returns envName when it is set and otherwise asks the source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if v := os.Getenv(envName); v != "" {
		p.logger.Debug("Secret overridden by environment", zap.String("env", envName))
		return v, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Resolve fills every binding whose secret has a value and returns how many
// were set. Missing secrets leave the target untouched.
func (p *Provider) Resolve(ctx context.Context, bindings []Binding) int {
	resolved := 0
	for _, b := range bindings {
		v, err := p.GetSecretOrEnv(ctx, b.Secret, b.Env)
		if err != nil || v == "" {
			p.logger.Debug("Secret not resolved", zap.String("secret", b.Secret), zap.Error(err))
			continue
		}
		*b.Target = v
		resolved++
	}
	return resolved
}

func (p *Provider) Source() SecretSource { return p.source }

func (p *Provider) IsVaultEnabled() bool { return p.source == SourceVault }
