package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Settings  SettingsConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Messaging MessagingConfig
	Stats     StatsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// MongoConfig configures the optional MongoDB connection used for settings
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout int // seconds
}

// SettingsConfig selects where settings documents are stored
type SettingsConfig struct {
	// Backend is "sql" (settings_documents table) or "mongo"
	Backend string
}

// AuthConfig holds bearer token and API key settings
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 access tokens
	JWTSecret string
	Issuer    string
	Audience  string
	// APIKey authenticates service-to-service calls through the x-api-key header
	APIKey string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
	File   LogFileConfig
}

// LogFileConfig enables a rotated log file next to stdout
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type ServerConfig struct {
	ReadTimeout     int
	WriteTimeout    int
	RequestTimeout  int
	ShutdownTimeout int
	EnableSwagger   bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	// FrameOptions sets the X-Frame-Options header (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute applies per IP to unauthenticated routes such as the public contact form
	RequestsPerMinute int
	// RequestsPerMinuteAuth applies per IP to the authenticated API
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// JobsConfig configures the background scheduler. Schedules use the
// six-field cron format with seconds.
type JobsConfig struct {
	Enabled          bool
	SyncSchedule     string
	SyncTimeout      int // seconds
	ReminderSchedule string
	ReminderTimeout  int // seconds
	// AuditCleanupSchedule prunes audit entries older than AuditRetentionDays;
	// a retention of 0 keeps them forever
	AuditCleanupSchedule string
	AuditRetentionDays   int
}

// MessagingConfig points at the messaging platform Graph API
type MessagingConfig struct {
	GraphBaseURL string
	GraphVersion string
	Timeout      int // seconds
}

// StatsConfig bounds aggregation scans
type StatsConfig struct {
	ScanLimit int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ShutdownTimeoutDuration returns graceful shutdown timeout as duration
func (s *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnectTimeoutDuration returns the Mongo connect timeout as duration
func (m *MongoConfig) ConnectTimeoutDuration() time.Duration {
	return time.Duration(m.ConnectTimeout) * time.Second
}

// TimeoutDuration returns the messaging HTTP timeout as duration
func (m *MessagingConfig) TimeoutDuration() time.Duration {
	return time.Duration(m.Timeout) * time.Second
}

// UsesMongoSettings reports whether settings live in MongoDB
func (c *Config) UsesMongoSettings() bool {
	return strings.EqualFold(c.Settings.Backend, "mongo")
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.APIKey == "" {
		cfg.Auth.APIKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = v.GetString("MONGODB_URI")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when BOTH conditions are met:
// 1. USE_AZURE_KEY_VAULT environment variable is set to "true"
// 2. Environment is "staging" or "production"
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}
	if !provider.IsVaultEnabled() {
		return nil, fmt.Errorf("vault provider not enabled despite USE_AZURE_KEY_VAULT=true")
	}

	resolved := provider.Resolve(ctx, secretBindings(cfg))
	applyEnvironmentOverrides(cfg)

	logger.Info("Secrets loaded from vault", zap.Int("resolved", resolved))
	return cfg, nil
}

// secretBindings lists the config fields that may come from Key Vault
func secretBindings(cfg *Config) []secrets.Binding {
	return []secrets.Binding{
		{Secret: secrets.NameDatabaseHost, Env: "DATABASE_HOST", Target: &cfg.Database.Host},
		{Secret: secrets.NameDatabaseUser, Env: "DATABASE_USER", Target: &cfg.Database.User},
		{Secret: secrets.NameDatabasePassword, Env: "DATABASE_PASSWORD", Target: &cfg.Database.Password},
		{Secret: secrets.NameMongoURI, Env: "MONGODB_URI", Target: &cfg.Mongo.URI},
		{Secret: secrets.NameJWTSecret, Env: "JWT_SECRET", Target: &cfg.Auth.JWTSecret},
		{Secret: secrets.NameAdminAPIKey, Env: "ADMIN_API_KEY", Target: &cfg.Auth.APIKey},
		{Secret: secrets.NameStorageConnection, Env: "STORAGE_CLOUDCONNECTIONSTRING", Target: &cfg.Storage.CloudConnectionString},
	}
}

// Database name and SSL mode vary per environment and never live in the vault
func applyEnvironmentOverrides(cfg *Config) {
	if name := os.Getenv("DEFAULT_DATABASE"); name != "" {
		cfg.Database.Name = name
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Formula CRM API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "crm")
	v.SetDefault("database.user", "crm_user")
	v.SetDefault("database.password", "crm_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// Mongo defaults (only used when settings.backend = mongo)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "crm")
	v.SetDefault("mongo.maxPoolSize", 20)
	v.SetDefault("mongo.connectTimeout", 10)

	v.SetDefault("settings.backend", "sql")

	// Auth defaults
	v.SetDefault("auth.issuer", "formula-crm")
	v.SetDefault("auth.audience", "crm-admin")

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "attachments")
	v.SetDefault("storage.maxUploadSizeMB", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "./logs/crm-api.log")
	v.SetDefault("logging.file.maxSizeMB", 100)
	v.SetDefault("logging.file.maxBackups", 5)
	v.SetDefault("logging.file.maxAgeDays", 28)
	v.SetDefault("logging.file.compress", true)

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.shutdownTimeout", 30)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID", "Content-Disposition"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 10)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 300)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	// Job defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.syncSchedule", "0 */15 * * * *")
	v.SetDefault("jobs.syncTimeout", 600)
	v.SetDefault("jobs.reminderSchedule", "0 0 * * * *")
	v.SetDefault("jobs.reminderTimeout", 120)
	v.SetDefault("jobs.auditCleanupSchedule", "0 30 3 * * *")
	v.SetDefault("jobs.auditRetentionDays", 365)

	// Messaging platform defaults
	v.SetDefault("messaging.graphBaseURL", "https://graph.facebook.com")
	v.SetDefault("messaging.graphVersion", "v21.0")
	v.SetDefault("messaging.timeout", 15)

	v.SetDefault("stats.scanLimit", 1000)
}
