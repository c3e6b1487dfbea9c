package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"support-chat/internal/domain/agent"
	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	"support-chat/internal/domain/settings"
)

// ConversationQuery narrows and pages the conversation listing. Filters that
// can be pushed into SQL live here; the unanswered filter cannot and is
// applied by the service on top of a capped candidate window.
type ConversationQuery struct {
	Archived          *bool
	UnreadOnly        bool
	CustomerSeenSince *time.Time
	Search            string
	Limit             int
	Offset            int
}

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetByCustomer(ctx context.Context, siteUserID, deviceID string) (conversation.Conversation, error)
	GetByWaChatID(ctx context.Context, waChatID string) (conversation.Conversation, error)
	GetByIDPrefix(ctx context.Context, prefix string) (conversation.Conversation, error)
	Update(ctx context.Context, c conversation.Conversation) error
	List(ctx context.Context, q ConversationQuery) ([]conversation.Conversation, int64, error)

	// LatestSenderTypes resolves, in one query, the sender type of the most
	// recent message for each given conversation.
	LatestSenderTypes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	TouchCustomerSeen(ctx context.Context, id uuid.UUID, now time.Time) error
	BumpAgentRead(ctx context.Context, id uuid.UUID, now time.Time) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	SetContact(ctx context.Context, id uuid.UUID, contactType, guestContact, waPhone string) error
	SetMovedToWhatsApp(ctx context.Context, id uuid.UUID, waChatID string) error
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type MessageRepository interface {
	// Append inserts the message and applies the conversation aggregate
	// update in a single transaction. Returns ErrAlreadyExists when the
	// (conversation, client message id) pair is already stored.
	Append(ctx context.Context, m *message.Message) error

	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	GetByClientMessageID(ctx context.Context, conversationID uuid.UUID, clientMessageID string) (message.Message, error)
	GetByWaMessageID(ctx context.Context, waMessageID string) (message.Message, error)
	GetLatest(ctx context.Context, conversationID uuid.UUID) (message.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error)
	ListAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) ([]message.Message, error)

	// MarkDelivered bulk-transitions the given sender's messages from sent to
	// delivered. MarkRead transitions from sent or delivered to read and
	// updates the reader's conversation cursor in the same transaction.
	MarkDelivered(ctx context.Context, conversationID uuid.UUID, senderType string) error
	MarkRead(ctx context.Context, conversationID uuid.UUID, senderType, readerType string, now time.Time) error

	SetWaMessageID(ctx context.Context, id uuid.UUID, waMessageID string) error
	SetWaStatus(ctx context.Context, waMessageID, status string, now time.Time) error
	CountCustomerMessagesSince(ctx context.Context, conversationID uuid.UUID, since *time.Time) (int64, error)
}

type AgentRepository interface {
	Create(ctx context.Context, a *agent.Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (agent.Agent, error)
	GetByEmail(ctx context.Context, email string) (agent.Agent, error)
	Update(ctx context.Context, a agent.Agent) error
	ListActive(ctx context.Context) ([]agent.Agent, error)

	Heartbeat(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkOffline(ctx context.Context, id uuid.UUID) error
	AnyOnline(ctx context.Context, since time.Time) (bool, error)

	UpdateNotificationPrefs(ctx context.Context, id uuid.UUID, push, whatsapp bool, waPhone string) error
	AddPushSubscription(ctx context.Context, s *agent.PushSubscription) error
	ListPushSubscriptions(ctx context.Context, agentID uuid.UUID) ([]agent.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, agentID uuid.UUID, endpoint string) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (settings.WorkspaceSettings, error)
	Update(ctx context.Context, s settings.WorkspaceSettings) error
}
