// Package testutil builds isolated in-memory databases and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/database"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with every table
// migrated. The pool is limited to one connection so all statements, including
// those inside transactions, see the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// AdminContext returns a context carrying a super admin user
func AdminContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      "test-admin",
		DisplayName: "Test Admin",
		Email:       "admin@example.com",
		Roles:       []domain.UserRoleType{domain.RoleSuperAdmin},
	})
}

// ContextWithRole returns a context carrying a user with a single role
func ContextWithRole(role domain.UserRoleType) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      "test-" + string(role),
		DisplayName: "Test " + string(role),
		Email:       string(role) + "@example.com",
		Roles:       []domain.UserRoleType{role},
	})
}

// CreateTestContact inserts a contact
func CreateTestContact(t *testing.T, db *gorm.DB, name, email string) *domain.Contact {
	t.Helper()
	contact := &domain.Contact{
		Name:     name,
		Email:    email,
		Status:   domain.ContactStatusNew,
		Priority: domain.PriorityNormal,
		Source:   "contact_form",
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

// CreateTestCompany inserts a legacy company
func CreateTestCompany(t *testing.T, db *gorm.DB, name, email string) *domain.Company {
	t.Helper()
	company := &domain.Company{
		Name:     name,
		Email:    email,
		Type:     domain.CompanyTypeLead,
		Status:   domain.CompanyStatusActive,
		Priority: domain.PriorityNormal,
		Tags:     []string{},
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

// CreateTestCustomer inserts a CRM customer
func CreateTestCustomer(t *testing.T, db *gorm.DB, name, email string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		Name:     name,
		Email:    email,
		Type:     domain.CustomerTypeBusiness,
		Status:   domain.CustomerStatusLead,
		Priority: domain.PriorityNormal,
		Tags:     []string{},
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateTestCase inserts a case in the given status
func CreateTestCase(t *testing.T, db *gorm.DB, customer *domain.Customer, status domain.CaseStatus) *domain.Case {
	t.Helper()
	c := &domain.Case{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		Title:           "Test case",
		Type:            domain.CaseTypeProduction,
		Status:          status,
		StatusChangedAt: time.Now().UTC(),
		Financials:      domain.CaseFinancials{Currency: "TRY"},
		Checklist:       []domain.ChecklistItem{},
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateTestConversation inserts an open conversation
func CreateTestConversation(t *testing.T, db *gorm.DB, customer *domain.Customer) *domain.Conversation {
	t.Helper()
	conv := &domain.Conversation{
		CustomerID: customer.ID,
		Channel:    domain.ChannelWhatsApp,
		Status:     domain.ConversationStatusOpen,
	}
	require.NoError(t, db.Create(conv).Error)
	return conv
}
