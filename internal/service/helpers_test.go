package service_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/formula-lab/crm-api/internal/storage"
	"github.com/formula-lab/crm-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixture wires every service against one in-memory database
type fixture struct {
	db           *gorm.DB
	files        storage.Storage
	settings     *service.SettingsService
	numbers      *service.NumberSequenceService
	contacts     *service.ContactService
	requests     *service.RequestService
	promotion    *service.PromotionService
	customers    *service.CustomerService
	companies    *service.CompanyService
	sync         *service.SyncService
	cases        *service.CaseService
	orders       *service.OrderService
	conversation *service.ConversationService
	stats        *service.StatsService
	reminders    *service.ReminderService
	reset        *service.ResetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	contactRepo := repository.NewContactRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	f := &fixture{db: db, files: files}
	f.settings = service.NewSettingsService(repository.NewGormSettingsStore(db), logger)
	f.numbers = service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)
	f.contacts = service.NewContactService(contactRepo, logger)
	f.requests = service.NewRequestService(requestRepo, attachmentRepo, companyRepo, f.numbers, files, 1, logger, db)
	f.promotion = service.NewPromotionService(contactRepo, companyRepo, f.requests, logger, db)
	f.customers = service.NewCustomerService(customerRepo, linkRepo, caseRepo, orderRepo, conversationRepo, logger, db)
	f.companies = service.NewCompanyService(companyRepo, linkRepo, f.customers, logger, db)
	f.sync = service.NewSyncService(companyRepo, customerRepo, linkRepo, f.settings, logger, db)
	f.cases = service.NewCaseService(caseRepo, customerRepo, f.customers, f.settings, 100, logger)
	f.orders = service.NewOrderService(orderRepo, customerRepo, f.numbers, logger, db)
	f.conversation = service.NewConversationService(conversationRepo, customerRepo, f.customers, logger, db)
	f.stats = service.NewStatsService(contactRepo, requestRepo, caseRepo, orderRepo, 100, logger)
	f.reminders = service.NewReminderService(f.requests, caseRepo, contactRepo, f.settings, 100, logger)
	f.reset = service.NewResetService(attachmentRepo, files, logger, db)
	return f
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
