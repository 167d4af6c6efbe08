package repository

import (
	"context"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttachmentRepository handles request attachment metadata
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.RequestAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RequestAttachment, error) {
	var attachment domain.RequestAttachment
	err := r.db.WithContext(ctx).First(&attachment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *AttachmentRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestAttachment, error) {
	var attachments []domain.RequestAttachment
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.RequestAttachment{}, "id = ?", id).Error
}

// ListStoragePaths returns the storage path of every attachment
func (r *AttachmentRepository) ListStoragePaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&domain.RequestAttachment{}).Pluck("storage_path", &paths).Error
	return paths, err
}
