package database

import (
	"context"
	"fmt"
	"time"

	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Models lists every persisted entity
func Models() []interface{} {
	return []interface{}{
		&domain.Contact{},
		&domain.Request{},
		&domain.RequestAttachment{},
		&domain.Company{},
		&domain.Customer{},
		&domain.CompanyCustomerLink{},
		&domain.Case{},
		&domain.Order{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.NumberSequence{},
		&domain.SettingsDocument{},
		&domain.AuditLog{},
	}
}

// AutoMigrate runs automatic migrations (for tests and local development only;
// deployed databases are migrated with cmd/migrate)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Stats is a snapshot of connection pool health
type Stats struct {
	Status          string `json:"status"`
	OpenConnections int    `json:"openConnections"`
	InUse           int    `json:"inUse"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"waitCount"`
	MaxOpen         int    `json:"maxOpenConnections"`
}

// HealthCheck pings the database
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// HealthCheckWithStats pings the database and reports pool statistics
func HealthCheckWithStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	if err := HealthCheck(ctx, db); err != nil {
		return &Stats{Status: "unhealthy"}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return &Stats{Status: "unhealthy"}, err
	}
	s := sqlDB.Stats()
	return &Stats{
		Status:          "healthy",
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		MaxOpen:         s.MaxOpenConnections,
	}, nil
}

// NewMongoClient connects to MongoDB and verifies the connection with a ping
func NewMongoClient(ctx context.Context, cfg *config.MongoConfig, log *zap.Logger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeoutDuration()).
		SetServerSelectionTimeout(cfg.ConnectTimeoutDuration())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutDuration())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info("Connected to MongoDB", zap.String("database", cfg.Database))
	return client, nil
}
