package repository

import (
	"context"
	"errors"
	"time"

	"support-chat/internal/domain/conversation"
	support_errors "support-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return support_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, support_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetByCustomer(ctx context.Context, siteUserID, deviceID string) (conversation.Conversation, error) {
	q := r.db.WithContext(ctx)
	switch {
	case siteUserID != "":
		q = q.Where("site_user_id = ?", siteUserID)
	case deviceID != "":
		q = q.Where("device_id = ?", deviceID)
	default:
		return conversation.Conversation{}, support_errors.ErrInvalidInput
	}

	var c conversation.Conversation
	err := q.Order("created_at DESC").First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, support_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetByWaChatID(ctx context.Context, waChatID string) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).Where("wa_chat_id = ?", waChatID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, support_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

// GetByIDPrefix resolves a session token to its conversation. First match
// wins; see conversation.SessionTokenLen for the collision trade-off.
func (r *PostgresConversationRepository) GetByIDPrefix(ctx context.Context, prefix string) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Where("id::text LIKE ?", prefix+"%").
		Order("created_at ASC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, support_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) Update(ctx context.Context, c conversation.Conversation) error {
	res := r.db.WithContext(ctx).Save(&c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) List(ctx context.Context, q ConversationQuery) ([]conversation.Conversation, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&conversation.Conversation{})

	if q.Archived != nil {
		dbq = dbq.Where("is_archived = ?", *q.Archived)
	}
	if q.UnreadOnly {
		dbq = dbq.Where("unread_count > 0")
	}
	if q.CustomerSeenSince != nil {
		dbq = dbq.Where("last_read_at_customer >= ?", *q.CustomerSeenSince)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		dbq = dbq.Where(
			"customer_name ILIKE ? OR guest_contact ILIKE ? OR EXISTS (SELECT 1 FROM messages m WHERE m.conversation_id = conversations.id AND m.content ILIKE ?)",
			like, like, like,
		)
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var items []conversation.Conversation
	err := dbq.Order("last_message_at DESC NULLS LAST").
		Offset(q.Offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresConversationRepository) LatestSenderTypes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	type row struct {
		ConversationID uuid.UUID
		SenderType     string
	}
	var rows []row
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT ON (conversation_id) conversation_id, sender_type
		 FROM messages
		 WHERE conversation_id IN ?
		 ORDER BY conversation_id, created_at DESC`, ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]string, len(rows))
	for _, v := range rows {
		out[v.ConversationID] = v.SenderType
	}
	return out, nil
}

func (r *PostgresConversationRepository) TouchCustomerSeen(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Update("last_read_at_customer", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) BumpAgentRead(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Update("last_read_at_agent", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Update("is_archived", archived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) SetContact(ctx context.Context, id uuid.UUID, contactType, guestContact, waPhone string) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"contact_type":  contactType,
			"guest_contact": nullableString(guestContact),
			"wa_phone":      nullableString(waPhone),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) SetMovedToWhatsApp(ctx context.Context, id uuid.UUID, waChatID string) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"moved_to_whats_app": true,
			"wa_chat_id":         waChatID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("is_archived = false AND last_message_at IS NOT NULL AND last_message_at < ?", cutoff).
		Update("is_archived", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
