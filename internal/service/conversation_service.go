package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/mapper"
	"github.com/formula-lab/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxMessagesPerRead caps the messages returned for one conversation
const maxMessagesPerRead = 500

// ConversationService manages the CRM v2 inbox
type ConversationService struct {
	conversationRepo *repository.ConversationRepository
	customerRepo     *repository.CustomerRepository
	customers        *CustomerService
	logger           *zap.Logger
	db               *gorm.DB
	now              func() time.Time
}

// NewConversationService creates a new conversation service
func NewConversationService(
	conversationRepo *repository.ConversationRepository,
	customerRepo *repository.CustomerRepository,
	customers *CustomerService,
	logger *zap.Logger,
	db *gorm.DB,
) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		customerRepo:     customerRepo,
		customers:        customers,
		logger:           logger,
		db:               db,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *ConversationService) Create(ctx context.Context, req *domain.CreateConversationRequest) (*domain.ConversationDTO, error) {
	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	conversation := &domain.Conversation{
		CustomerID: req.CustomerID,
		Channel:    req.Channel,
		Subject:    strings.TrimSpace(req.Subject),
		Status:     domain.ConversationStatusOpen,
	}
	if err := s.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if err := s.customers.RefreshStats(ctx, req.CustomerID); err != nil {
		s.logger.Warn("failed to refresh customer stats", zap.String("customer_id", req.CustomerID.String()), zap.Error(err))
	}

	dto := mapper.ToConversationDTO(conversation)
	return &dto, nil
}

func (s *ConversationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConversationDTO, error) {
	conversation, err := s.getConversation(ctx, s.conversationRepo, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToConversationDTO(conversation)
	return &dto, nil
}

func (s *ConversationService) List(ctx context.Context, filters *repository.ConversationFilters, params repository.CursorParams) (*domain.CursorPage, error) {
	page, err := s.conversationRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	dtos := make([]domain.ConversationDTO, len(page.Items))
	for i := range page.Items {
		dtos[i] = mapper.ToConversationDTO(&page.Items[i])
	}
	result := mapper.ToCursorPage(dtos, page.NextCursor, page.HasMore)
	return &result, nil
}

// ListByCustomer is List restricted to one customer
func (s *ConversationService) ListByCustomer(ctx context.Context, customerID uuid.UUID, params repository.CursorParams) (*domain.CursorPage, error) {
	return s.List(ctx, &repository.ConversationFilters{CustomerID: &customerID}, params)
}

func (s *ConversationService) ListMessages(ctx context.Context, id uuid.UUID) ([]domain.MessageDTO, error) {
	if _, err := s.getConversation(ctx, s.conversationRepo, id); err != nil {
		return nil, err
	}
	messages, err := s.conversationRepo.ListMessages(ctx, id, maxMessagesPerRead)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	dtos := make([]domain.MessageDTO, len(messages))
	for i := range messages {
		dtos[i] = mapper.ToMessageDTO(&messages[i])
	}
	return dtos, nil
}

// AddMessage appends a message and updates the conversation counters in one
// transaction. An inbound message reopens a closed conversation; outbound
// messages are rejected on closed conversations.
func (s *ConversationService) AddMessage(ctx context.Context, id uuid.UUID, req *domain.AddMessageRequest) (*domain.MessageDTO, error) {
	sentAt := s.now()
	if req.SentAt != nil {
		sentAt = req.SentAt.UTC()
	}
	sender := strings.TrimSpace(req.Sender)
	if sender == "" && req.Direction == domain.DirectionOutbound {
		sender = actor(ctx)
	}

	message := &domain.Message{
		ConversationID: id,
		Direction:      req.Direction,
		Body:           req.Body,
		Sender:         sender,
		SentAt:         sentAt,
	}

	var customerID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewConversationRepository(tx)
		conversation, err := s.getConversation(ctx, repo, id)
		if err != nil {
			return err
		}
		customerID = conversation.CustomerID

		if conversation.Status == domain.ConversationStatusClosed {
			if req.Direction == domain.DirectionOutbound {
				return ErrConversationClosed
			}
			if err := repo.UpdateStatus(ctx, id, domain.ConversationStatusOpen); err != nil {
				return fmt.Errorf("failed to reopen conversation: %w", err)
			}
		}

		if err := repo.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		if err := repo.RecordMessage(ctx, id, req.Direction == domain.DirectionInbound, sentAt); err != nil {
			return fmt.Errorf("failed to update conversation counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.customers.TouchLastContact(ctx, customerID, sentAt); err != nil {
		s.logger.Warn("failed to update customer last contact", zap.String("customer_id", customerID.String()), zap.Error(err))
	}

	dto := mapper.ToMessageDTO(message)
	return &dto, nil
}

// MarkRead stamps every unread inbound message and clears the unread counter
func (s *ConversationService) MarkRead(ctx context.Context, id uuid.UUID) (*domain.ConversationDTO, error) {
	var conversation *domain.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewConversationRepository(tx)
		var err error
		if conversation, err = s.getConversation(ctx, repo, id); err != nil {
			return err
		}
		if _, err := repo.MarkInboundRead(ctx, id, s.now()); err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		if err := repo.ResetUnread(ctx, id); err != nil {
			return fmt.Errorf("failed to reset unread count: %w", err)
		}
		conversation.UnreadCount = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := mapper.ToConversationDTO(conversation)
	return &dto, nil
}

// UpdateStatus closes, parks or reopens a conversation
func (s *ConversationService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) (*domain.ConversationDTO, error) {
	switch status {
	case domain.ConversationStatusOpen, domain.ConversationStatusPending, domain.ConversationStatusClosed:
	default:
		return nil, fmt.Errorf("%w: unknown conversation status %q", ErrInvalidInput, status)
	}
	if err := s.conversationRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to update conversation status: %w", err)
	}
	return s.GetByID(ctx, id)
}

// RecalculateMessageCounts repairs message counters that drifted from the
// messages table
func (s *ConversationService) RecalculateMessageCounts(ctx context.Context) (*domain.RecalculateResult, error) {
	rows, err := s.conversationRepo.ListMessageCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	result := &domain.RecalculateResult{}
	for _, row := range rows {
		result.Checked++
		if row.MessageCount == row.Actual {
			continue
		}
		if err := s.conversationRepo.SetMessageCount(ctx, row.ID, row.Actual); err != nil {
			return nil, fmt.Errorf("failed to fix message count: %w", err)
		}
		s.logger.Info("message count repaired",
			zap.String("conversation_id", row.ID.String()),
			zap.Int("stored", row.MessageCount),
			zap.Int("actual", row.Actual))
		result.Fixed++
	}
	return result, nil
}

func (s *ConversationService) getConversation(ctx context.Context, repo *repository.ConversationRepository, id uuid.UUID) (*domain.Conversation, error) {
	conversation, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conversation, nil
}
