package service

import (
	"context"
	"fmt"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/formula-lab/crm-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResetConfirmationPhrase must be typed exactly to wipe the data
const ResetConfirmationPhrase = "DELETE ALL DATA"

// resetTables lists entity tables children first so foreign keys never block a delete.
// Settings documents and the audit trail survive a reset.
var resetTables = []struct {
	name  string
	model interface{}
}{
	{"messages", &domain.Message{}},
	{"conversations", &domain.Conversation{}},
	{"orders", &domain.Order{}},
	{"cases", &domain.Case{}},
	{"company_customer_links", &domain.CompanyCustomerLink{}},
	{"request_attachments", &domain.RequestAttachment{}},
	{"requests", &domain.Request{}},
	{"contacts", &domain.Contact{}},
	{"customers", &domain.Customer{}},
	{"companies", &domain.Company{}},
	{"number_sequences", &domain.NumberSequence{}},
}

// ResetService wipes every business record
type ResetService struct {
	attachmentRepo *repository.AttachmentRepository
	files          storage.Storage
	logger         *zap.Logger
	db             *gorm.DB
}

// NewResetService creates a new reset service
func NewResetService(attachmentRepo *repository.AttachmentRepository, files storage.Storage, logger *zap.Logger, db *gorm.DB) *ResetService {
	return &ResetService{
		attachmentRepo: attachmentRepo,
		files:          files,
		logger:         logger,
		db:             db,
	}
}

// ResetAll deletes all entity rows in one transaction. The caller must hold
// system:reset and type the confirmation phrase. Operator tools run without
// a user in ctx and pass checkPermission=false.
func (s *ResetService) ResetAll(ctx context.Context, confirmation string, checkPermission bool) (*domain.ResetResult, error) {
	if checkPermission {
		user, ok := auth.FromContext(ctx)
		if !ok || !user.HasPermission(domain.PermissionSystemReset) {
			return nil, ErrPermissionDenied
		}
	}
	if confirmation != ResetConfirmationPhrase {
		return nil, ErrInvalidConfirmation
	}

	paths, err := s.attachmentRepo.ListStoragePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	result := &domain.ResetResult{Deleted: make(map[string]int64, len(resetTables))}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range resetTables {
			res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t.model)
			if res.Error != nil {
				return fmt.Errorf("failed to delete %s: %w", t.name, res.Error)
			}
			result.Deleted[t.name] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.files != nil {
		for _, p := range paths {
			if err := s.files.Delete(ctx, p); err != nil {
				s.logger.Warn("failed to delete attachment file", zap.String("path", p), zap.Error(err))
			}
		}
	}

	s.logger.Warn("all data reset",
		zap.String("reset_by", actor(ctx)),
		zap.Any("deleted", result.Deleted))
	return result, nil
}
