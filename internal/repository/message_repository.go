package repository

import (
	"context"
	"errors"
	"time"

	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	support_errors "support-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

// aggregateUpdates builds the conversation column updates applied alongside a
// message insert. The unread increment uses a SQL expression so that two
// concurrent customer sends both land, instead of racing on a pre-read value.
func aggregateUpdates(m *message.Message, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"last_message_at":      now,
		"last_message_preview": m.Preview(),
		"status":               conversation.StatusActive,
		"updated_at":           now,
	}
	switch m.SenderType {
	case message.SenderAgent:
		// Replying implies the agent has seen everything.
		updates["unread_count"] = 0
		updates["last_read_at_agent"] = now
	case message.SenderCustomer:
		updates["unread_count"] = gorm.Expr("unread_count + 1")
		updates["is_archived"] = false
	}
	return updates
}

func (r *PostgresMessageRepository) Append(ctx context.Context, m *message.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return support_errors.ErrAlreadyExists
			}
			return err
		}

		res := tx.Model(&conversation.Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(aggregateUpdates(m, m.CreatedAt))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// No owning conversation; roll the insert back rather than keep
			// an orphan message.
			return support_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, support_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByClientMessageID(ctx context.Context, conversationID uuid.UUID, clientMessageID string) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND client_message_id = ?", conversationID, clientMessageID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, support_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByWaMessageID(ctx context.Context, waMessageID string) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("wa_message_id = ?", waMessageID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, support_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetLatest(ctx context.Context, conversationID uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, support_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) ListAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) ([]message.Message, error) {
	var messages []message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND created_at > ?", conversationID, after).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) MarkDelivered(ctx context.Context, conversationID uuid.UUID, senderType string) error {
	// Only sent messages move; read is never regressed.
	return r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND sender_type = ? AND status = ?",
			conversationID, senderType, message.StatusSent).
		Update("status", message.StatusDelivered).Error
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, conversationID uuid.UUID, senderType, readerType string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&message.Message{}).
			Where("conversation_id = ? AND sender_type = ? AND status IN ?",
				conversationID, senderType, []string{message.StatusSent, message.StatusDelivered}).
			Update("status", message.StatusRead).Error
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if readerType == message.SenderAgent {
			updates["unread_count"] = 0
			updates["last_read_at_agent"] = now
		} else {
			updates["last_read_at_customer"] = now
		}

		res := tx.Model(&conversation.Conversation{}).
			Where("id = ?", conversationID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return support_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresMessageRepository) SetWaMessageID(ctx context.Context, id uuid.UUID, waMessageID string) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ?", id).
		Update("wa_message_id", waMessageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) SetWaStatus(ctx context.Context, waMessageID, status string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m message.Message
		err := tx.Where("wa_message_id = ?", waMessageID).First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return support_errors.ErrNotFound
			}
			return err
		}

		err = tx.Model(&message.Message{}).
			Where("id = ?", m.ID).
			Update("wa_status", status).Error
		if err != nil {
			return err
		}

		if status == message.StatusRead {
			return tx.Model(&conversation.Conversation{}).
				Where("id = ?", m.ConversationID).
				Update("last_read_at_agent", now).Error
		}
		return nil
	})
}

func (r *PostgresMessageRepository) CountCustomerMessagesSince(ctx context.Context, conversationID uuid.UUID, since *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND sender_type = ?", conversationID, message.SenderCustomer)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
