// Package mocks holds hand-written testify mocks for the repository and
// gateway interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"support-chat/internal/domain/agent"
	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	"support-chat/internal/domain/settings"
	"support-chat/internal/repository"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) Create(ctx context.Context, c *conversation.Conversation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	args := m.Called(ctx, id)
	var c conversation.Conversation
	if val := args.Get(0); val != nil {
		c = val.(conversation.Conversation)
	}
	return c, args.Error(1)
}

func (m *ConversationRepositoryMock) GetByCustomer(ctx context.Context, siteUserID, deviceID string) (conversation.Conversation, error) {
	args := m.Called(ctx, siteUserID, deviceID)
	var c conversation.Conversation
	if val := args.Get(0); val != nil {
		c = val.(conversation.Conversation)
	}
	return c, args.Error(1)
}

func (m *ConversationRepositoryMock) GetByWaChatID(ctx context.Context, waChatID string) (conversation.Conversation, error) {
	args := m.Called(ctx, waChatID)
	var c conversation.Conversation
	if val := args.Get(0); val != nil {
		c = val.(conversation.Conversation)
	}
	return c, args.Error(1)
}

func (m *ConversationRepositoryMock) GetByIDPrefix(ctx context.Context, prefix string) (conversation.Conversation, error) {
	args := m.Called(ctx, prefix)
	var c conversation.Conversation
	if val := args.Get(0); val != nil {
		c = val.(conversation.Conversation)
	}
	return c, args.Error(1)
}

func (m *ConversationRepositoryMock) Update(ctx context.Context, c conversation.Conversation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) List(ctx context.Context, q repository.ConversationQuery) ([]conversation.Conversation, int64, error) {
	args := m.Called(ctx, q)
	var list []conversation.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]conversation.Conversation)
	}
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *ConversationRepositoryMock) LatestSenderTypes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, ids)
	var senders map[uuid.UUID]string
	if val := args.Get(0); val != nil {
		senders = val.(map[uuid.UUID]string)
	}
	return senders, args.Error(1)
}

func (m *ConversationRepositoryMock) TouchCustomerSeen(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) BumpAgentRead(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	args := m.Called(ctx, id, archived)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetContact(ctx context.Context, id uuid.UUID, contactType, guestContact, waPhone string) error {
	args := m.Called(ctx, id, contactType, guestContact, waPhone)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetMovedToWhatsApp(ctx context.Context, id uuid.UUID, waChatID string) error {
	args := m.Called(ctx, id, waChatID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, msg *message.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	args := m.Called(ctx, id)
	var msg message.Message
	if val := args.Get(0); val != nil {
		msg = val.(message.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetByClientMessageID(ctx context.Context, conversationID uuid.UUID, clientMessageID string) (message.Message, error) {
	args := m.Called(ctx, conversationID, clientMessageID)
	var msg message.Message
	if val := args.Get(0); val != nil {
		msg = val.(message.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetByWaMessageID(ctx context.Context, waMessageID string) (message.Message, error) {
	args := m.Called(ctx, waMessageID)
	var msg message.Message
	if val := args.Get(0); val != nil {
		msg = val.(message.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetLatest(ctx context.Context, conversationID uuid.UUID) (message.Message, error) {
	args := m.Called(ctx, conversationID)
	var msg message.Message
	if val := args.Get(0); val != nil {
		msg = val.(message.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	var msgs []message.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]message.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) ([]message.Message, error) {
	args := m.Called(ctx, conversationID, after)
	var msgs []message.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]message.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkDelivered(ctx context.Context, conversationID uuid.UUID, senderType string) error {
	args := m.Called(ctx, conversationID, senderType)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, conversationID uuid.UUID, senderType, readerType string, now time.Time) error {
	args := m.Called(ctx, conversationID, senderType, readerType, now)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SetWaMessageID(ctx context.Context, id uuid.UUID, waMessageID string) error {
	args := m.Called(ctx, id, waMessageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SetWaStatus(ctx context.Context, waMessageID, status string, now time.Time) error {
	args := m.Called(ctx, waMessageID, status, now)
	return args.Error(0)
}

func (m *MessageRepositoryMock) CountCustomerMessagesSince(ctx context.Context, conversationID uuid.UUID, since *time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, since)
	return args.Get(0).(int64), args.Error(1)
}

type AgentRepositoryMock struct {
	mock.Mock
}

func (m *AgentRepositoryMock) Create(ctx context.Context, a *agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AgentRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (agent.Agent, error) {
	args := m.Called(ctx, id)
	var a agent.Agent
	if val := args.Get(0); val != nil {
		a = val.(agent.Agent)
	}
	return a, args.Error(1)
}

func (m *AgentRepositoryMock) GetByEmail(ctx context.Context, email string) (agent.Agent, error) {
	args := m.Called(ctx, email)
	var a agent.Agent
	if val := args.Get(0); val != nil {
		a = val.(agent.Agent)
	}
	return a, args.Error(1)
}

func (m *AgentRepositoryMock) Update(ctx context.Context, a agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AgentRepositoryMock) ListActive(ctx context.Context) ([]agent.Agent, error) {
	args := m.Called(ctx)
	var list []agent.Agent
	if val := args.Get(0); val != nil {
		list = val.([]agent.Agent)
	}
	return list, args.Error(1)
}

func (m *AgentRepositoryMock) Heartbeat(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *AgentRepositoryMock) MarkOffline(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AgentRepositoryMock) AnyOnline(ctx context.Context, since time.Time) (bool, error) {
	args := m.Called(ctx, since)
	return args.Bool(0), args.Error(1)
}

func (m *AgentRepositoryMock) UpdateNotificationPrefs(ctx context.Context, id uuid.UUID, push, whatsapp bool, waPhone string) error {
	args := m.Called(ctx, id, push, whatsapp, waPhone)
	return args.Error(0)
}

func (m *AgentRepositoryMock) AddPushSubscription(ctx context.Context, s *agent.PushSubscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *AgentRepositoryMock) ListPushSubscriptions(ctx context.Context, agentID uuid.UUID) ([]agent.PushSubscription, error) {
	args := m.Called(ctx, agentID)
	var subs []agent.PushSubscription
	if val := args.Get(0); val != nil {
		subs = val.([]agent.PushSubscription)
	}
	return subs, args.Error(1)
}

func (m *AgentRepositoryMock) DeletePushSubscription(ctx context.Context, agentID uuid.UUID, endpoint string) error {
	args := m.Called(ctx, agentID, endpoint)
	return args.Error(0)
}

type SettingsRepositoryMock struct {
	mock.Mock
}

func (m *SettingsRepositoryMock) Get(ctx context.Context) (settings.WorkspaceSettings, error) {
	args := m.Called(ctx)
	var s settings.WorkspaceSettings
	if val := args.Get(0); val != nil {
		s = val.(settings.WorkspaceSettings)
	}
	return s, args.Error(1)
}

func (m *SettingsRepositoryMock) Update(ctx context.Context, s settings.WorkspaceSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type WhatsAppGatewayMock struct {
	mock.Mock
}

func (m *WhatsAppGatewayMock) SendText(ctx context.Context, chatID, body string) (string, error) {
	args := m.Called(ctx, chatID, body)
	return args.String(0), args.Error(1)
}

type PushSenderMock struct {
	mock.Mock
}

func (m *PushSenderMock) Send(ctx context.Context, sub agent.PushSubscription, payload []byte) error {
	args := m.Called(ctx, sub, payload)
	return args.Error(0)
}

type ObjectStorageMock struct {
	mock.Mock
}

func (m *ObjectStorageMock) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}
