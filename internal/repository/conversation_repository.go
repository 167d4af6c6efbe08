package repository

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationFilters holds filters for listing conversations
type ConversationFilters struct {
	CustomerID *uuid.UUID
	Channel    *domain.ConversationChannel
	Status     *domain.ConversationStatus
}

// ConversationRepository handles database operations for conversations
// and their messages
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// UpdateStatus sets the inbox status of a conversation
func (r *ConversationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a cursor page of conversations, newest first
func (r *ConversationRepository) List(ctx context.Context, filters *ConversationFilters, params CursorParams) (Page[domain.Conversation], error) {
	query := r.db.WithContext(ctx).Model(&domain.Conversation{})
	if filters != nil {
		if filters.CustomerID != nil {
			query = query.Where("customer_id = ?", *filters.CustomerID)
		}
		if filters.Channel != nil {
			query = query.Where("channel = ?", *filters.Channel)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
	}

	query, err := applyCursor(ctx, r.db, query, "conversations", params)
	if err != nil {
		return Page[domain.Conversation]{}, err
	}

	var conversations []domain.Conversation
	if err := query.Find(&conversations).Error; err != nil {
		return Page[domain.Conversation]{}, err
	}
	return newPage(conversations, params.Limit, func(c *domain.Conversation) uuid.UUID { return c.ID }), nil
}

// RecordMessage bumps the counters of a conversation after a message insert.
// Inbound messages also count as unread.
func (r *ConversationRepository) RecordMessage(ctx context.Context, id uuid.UUID, inbound bool, at time.Time) error {
	updates := map[string]interface{}{
		"message_count":   gorm.Expr("message_count + 1"),
		"last_message_at": at,
		"updated_at":      time.Now().UTC(),
	}
	if inbound {
		updates["unread_count"] = gorm.Expr("unread_count + 1")
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResetUnread clears the unread counter
func (r *ConversationRepository) ResetUnread(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"updated_at":   time.Now().UTC(),
		}).Error
}

// MessageCountRow pairs the stored counter with the actual message count
type MessageCountRow struct {
	ID           uuid.UUID
	MessageCount int
	Actual       int
}

// ListMessageCounts returns stored and actual message counts per conversation
func (r *ConversationRepository) ListMessageCounts(ctx context.Context) ([]MessageCountRow, error) {
	var rows []MessageCountRow
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select("c.id AS id, c.message_count AS message_count, " +
			"(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS actual").
		Order("c.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// SetMessageCount overwrites the stored message counter
func (r *ConversationRepository) SetMessageCount(ctx context.Context, id uuid.UUID, count int) error {
	return r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("message_count", count).Error
}

// ReassignCustomer moves conversations from the given customers to targetID
func (r *ConversationRepository) ReassignCustomer(ctx context.Context, from []uuid.UUID, targetID uuid.UUID) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("customer_id IN ?", from).
		Updates(map[string]interface{}{
			"customer_id": targetID,
			"updated_at":  time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *ConversationRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// Messages

func (r *ConversationRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages returns the messages of a conversation in the order they were sent
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkInboundRead stamps read_at on unread inbound messages
func (r *ConversationRepository) MarkInboundRead(ctx context.Context, conversationID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND direction = ? AND read_at IS NULL", conversationID, domain.DirectionInbound).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}
