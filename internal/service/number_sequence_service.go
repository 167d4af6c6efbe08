package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"go.uber.org/zap"
)

// NumberSequenceService generates human readable numbers for requests and
// orders from a per-scope, per-year database sequence.
//
// Format: {SCOPE}-{YEAR}-{SEQUENCE}
// Example: REQ-2025-0001, ORD-2025-0042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithRepository returns a copy of the service bound to repo. Callers use it
// to draw numbers inside a transaction.
func (s *NumberSequenceService) WithRepository(repo *repository.NumberSequenceRepository) *NumberSequenceService {
	clone := *s
	clone.repo = repo
	return &clone
}

// GenerateRequestNumber returns the next request number, e.g. "REQ-2025-0001"
func (s *NumberSequenceService) GenerateRequestNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, repository.SequenceScopeRequest)
}

// GenerateOrderNumber returns the next order number, e.g. "ORD-2025-0001"
func (s *NumberSequenceService) GenerateOrderNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, repository.SequenceScopeOrder)
}

func (s *NumberSequenceService) generateNumber(ctx context.Context, scope string) (string, error) {
	year := s.now().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, scope, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("scope", scope),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", scope, err)
	}

	number := fmt.Sprintf("%s-%d-%04d", scope, year, nextSeq)

	s.logger.Debug("generated number",
		zap.String("number", number),
		zap.String("scope", scope),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// PeekNumber returns the number the next Generate call for scope would
// produce this year, without drawing it
func (s *NumberSequenceService) PeekNumber(ctx context.Context, scope string) (string, error) {
	year := s.now().Year()
	current, err := s.repo.GetCurrentSequence(ctx, scope, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", scope, year, current+1), nil
}

// Overview lists every sequence row together with the next request and
// order numbers
func (s *NumberSequenceService) Overview(ctx context.Context) (*domain.SequenceOverview, error) {
	sequences, err := s.repo.ListSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	overview := &domain.SequenceOverview{Sequences: make([]domain.SequenceStatus, 0, len(sequences))}
	for _, seq := range sequences {
		overview.Sequences = append(overview.Sequences, domain.SequenceStatus{
			Scope:        seq.Scope,
			Year:         seq.Year,
			LastSequence: seq.LastSequence,
			UpdatedAt:    seq.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	if overview.NextRequestNumber, err = s.PeekNumber(ctx, repository.SequenceScopeRequest); err != nil {
		return nil, err
	}
	if overview.NextOrderNumber, err = s.PeekNumber(ctx, repository.SequenceScopeOrder); err != nil {
		return nil, err
	}
	return overview, nil
}

var numberPattern = regexp.MustCompile(`^(REQ|ORD)-\d{4}-\d{4,}$`)

// ValidateNumber reports whether number follows SCOPE-YYYY-NNNN
func (s *NumberSequenceService) ValidateNumber(number string) bool {
	return numberPattern.MatchString(number)
}
