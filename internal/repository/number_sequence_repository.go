package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequence scopes
const (
	SequenceScopeRequest = "REQ"
	SequenceScopeOrder   = "ORD"
)

// NumberSequenceRepository hands out gap-free, per-year sequence numbers for
// request and order numbers.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// GetNextNumber atomically increments and returns the sequence for scope/year.
// The row is seeded with an insert that ignores conflicts, then incremented
// with a single UPDATE so concurrent callers serialize on the row lock.
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, scope string, year int) (int, error) {
	var next int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		seed := domain.NumberSequence{
			Scope:     scope,
			Year:      year,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to seed number sequence: %w", err)
		}

		if err := tx.Model(&domain.NumberSequence{}).
			Where("scope = ? AND year = ?", scope, year).
			Updates(map[string]interface{}{
				"last_sequence": gorm.Expr("last_sequence + 1"),
				"updated_at":    now,
			}).Error; err != nil {
			return fmt.Errorf("failed to increment number sequence: %w", err)
		}

		var seq domain.NumberSequence
		if err := tx.Where("scope = ? AND year = ?", scope, year).First(&seq).Error; err != nil {
			return fmt.Errorf("failed to read number sequence: %w", err)
		}
		next = seq.LastSequence
		return nil
	})
	if err != nil {
		return 0, err
	}

	return next, nil
}

// GetCurrentSequence retrieves the current sequence value without incrementing.
// Returns 0 if no sequence exists for the scope/year.
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, scope string, year int) (int, error) {
	var seq domain.NumberSequence
	result := r.db.WithContext(ctx).
		Where("scope = ? AND year = ?", scope, year).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	return seq.LastSequence, nil
}

// ListSequences returns all sequences
func (r *NumberSequenceRepository) ListSequences(ctx context.Context) ([]domain.NumberSequence, error) {
	var sequences []domain.NumberSequence
	err := r.db.WithContext(ctx).
		Order("scope ASC, year DESC").
		Find(&sequences).Error
	return sequences, err
}
