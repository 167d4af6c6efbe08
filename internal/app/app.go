// Package app builds the service graph shared by the API server and the
// admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/database"
	"github.com/formula-lab/crm-api/internal/messaging"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services holds every domain service
type Services struct {
	Settings      *service.SettingsService
	Messaging     *service.MessagingService
	Numbers       *service.NumberSequenceService
	Contacts      *service.ContactService
	Requests      *service.RequestService
	Promotion     *service.PromotionService
	Customers     *service.CustomerService
	Companies     *service.CompanyService
	Sync          *service.SyncService
	Cases         *service.CaseService
	Orders        *service.OrderService
	Conversations *service.ConversationService
	Stats         *service.StatsService
	Reminders     *service.ReminderService
	Audit         *service.AuditLogService
	Reset         *service.ResetService
}

// Infra is what the service graph runs on. Mongo is nil unless settings
// are stored in MongoDB.
type Infra struct {
	DB    *gorm.DB
	Mongo *mongo.Client
	Files storage.Storage
}

// Connect opens the database, the optional settings MongoDB and file storage.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Infra, error) {
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	infra := &Infra{DB: db}

	if cfg.UsesMongoSettings() {
		infra.Mongo, err = database.NewMongoClient(ctx, &cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
	}

	infra.Files, err = storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	return infra, nil
}

// Close releases the connections opened by Connect
func (i *Infra) Close(ctx context.Context, log *zap.Logger) {
	if i.Mongo != nil {
		if err := i.Mongo.Disconnect(ctx); err != nil {
			log.Warn("Error disconnecting from MongoDB", zap.Error(err))
		}
	}
	if sqlDB, err := i.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// SettingsStore picks the settings backend configured by settings.backend
func (i *Infra) SettingsStore(cfg *config.Config) repository.SettingsStore {
	if i.Mongo != nil {
		return repository.NewMongoSettingsStore(i.Mongo.Database(cfg.Mongo.Database))
	}
	return repository.NewGormSettingsStore(i.DB)
}

// NewServices wires repositories into services
func NewServices(cfg *config.Config, infra *Infra, log *zap.Logger) *Services {
	db := infra.DB

	contactRepo := repository.NewContactRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	numberRepo := repository.NewNumberSequenceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	scanLimit := cfg.Stats.ScanLimit

	s := &Services{}
	s.Settings = service.NewSettingsService(infra.SettingsStore(cfg), log)
	s.Messaging = service.NewMessagingService(s.Settings, messaging.NewClient(&cfg.Messaging), log)
	s.Numbers = service.NewNumberSequenceService(numberRepo, log)
	s.Contacts = service.NewContactService(contactRepo, log)
	s.Requests = service.NewRequestService(requestRepo, attachmentRepo, companyRepo, s.Numbers, infra.Files, cfg.Storage.MaxUploadSizeMB, log, db)
	s.Promotion = service.NewPromotionService(contactRepo, companyRepo, s.Requests, log, db)
	s.Customers = service.NewCustomerService(customerRepo, linkRepo, caseRepo, orderRepo, conversationRepo, log, db)
	s.Companies = service.NewCompanyService(companyRepo, linkRepo, s.Customers, log, db)
	s.Sync = service.NewSyncService(companyRepo, customerRepo, linkRepo, s.Settings, log, db)
	s.Cases = service.NewCaseService(caseRepo, customerRepo, s.Customers, s.Settings, scanLimit, log)
	s.Orders = service.NewOrderService(orderRepo, customerRepo, s.Numbers, log, db)
	s.Conversations = service.NewConversationService(conversationRepo, customerRepo, s.Customers, log, db)
	s.Stats = service.NewStatsService(contactRepo, requestRepo, caseRepo, orderRepo, scanLimit, log)
	s.Reminders = service.NewReminderService(s.Requests, caseRepo, contactRepo, s.Settings, scanLimit, log)
	s.Audit = service.NewAuditLogService(auditRepo, log)
	s.Reset = service.NewResetService(attachmentRepo, infra.Files, log, db)
	return s
}
