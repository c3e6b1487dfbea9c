package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"support-chat/internal/domain/agent"
	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	"support-chat/internal/mocks"
	"support-chat/internal/push"
	"support-chat/pkg/logger"
)

type notifyFixture struct {
	agentRepo *mocks.AgentRepositoryMock
	convRepo  *mocks.ConversationRepositoryMock
	msgRepo   *mocks.MessageRepositoryMock
	pusher    *mocks.PushSenderMock
	gateway   *mocks.WhatsAppGatewayMock
	svc       *NotificationService
}

func newNotifyFixture() *notifyFixture {
	agentRepo := new(mocks.AgentRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	pusher := new(mocks.PushSenderMock)
	gateway := new(mocks.WhatsAppGatewayMock)

	l := logger.New(logger.DevelopmentMode)
	wa := NewWhatsAppService(convRepo, msgRepo, NewMessageService(msgRepo, convRepo, l), gateway, l)
	return &notifyFixture{
		agentRepo: agentRepo,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		pusher:    pusher,
		gateway:   gateway,
		svc:       NewNotificationService(agentRepo, convRepo, pusher, wa, l),
	}
}

func TestCustomerMessageStoredPushesToOptedInAgents(t *testing.T) {
	f := newNotifyFixture()

	conv := conversation.Conversation{
		ID:           uuid.New(),
		CustomerName: sql.NullString{String: "Dana", Valid: true},
	}
	m := message.Message{ConversationID: conv.ID, Content: "my order is late", MessageType: "text"}

	pushAgent := agent.Agent{ID: uuid.New(), NotifyPush: true}
	quietAgent := agent.Agent{ID: uuid.New()}

	f.convRepo.On("GetByID", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.agentRepo.On("ListActive", mock.Anything).Return([]agent.Agent{pushAgent, quietAgent}, nil).Once()

	sub := agent.PushSubscription{AgentID: pushAgent.ID, Endpoint: "https://push.example/e1"}
	f.agentRepo.On("ListPushSubscriptions", mock.Anything, pushAgent.ID).
		Return([]agent.PushSubscription{sub}, nil).Once()

	var payload []byte
	f.pusher.On("Send", mock.Anything, sub, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(2).([]byte) }).
		Return(nil).Once()

	f.svc.CustomerMessageStored(context.Background(), m)

	var decoded struct {
		Title          string `json:"title"`
		Body           string `json:"body"`
		ConversationID string `json:"conversationId"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "New message from Dana", decoded.Title)
	assert.Equal(t, "my order is late", decoded.Body)
	assert.Equal(t, conv.ID.String(), decoded.ConversationID)

	// The agent with no prefs gets nothing.
	f.agentRepo.AssertNotCalled(t, "ListPushSubscriptions", mock.Anything, quietAgent.ID)
	f.pusher.AssertExpectations(t)
}

func TestCustomerMessageStoredPrunesExpiredSubscriptions(t *testing.T) {
	f := newNotifyFixture()

	conv := conversation.Conversation{ID: uuid.New()}
	m := message.Message{ConversationID: conv.ID, Content: "hi", MessageType: "text"}
	a := agent.Agent{ID: uuid.New(), NotifyPush: true}

	dead := agent.PushSubscription{AgentID: a.ID, Endpoint: "https://push.example/dead"}
	live := agent.PushSubscription{AgentID: a.ID, Endpoint: "https://push.example/live"}

	f.convRepo.On("GetByID", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.agentRepo.On("ListActive", mock.Anything).Return([]agent.Agent{a}, nil).Once()
	f.agentRepo.On("ListPushSubscriptions", mock.Anything, a.ID).
		Return([]agent.PushSubscription{dead, live}, nil).Once()

	f.pusher.On("Send", mock.Anything, dead, mock.Anything).Return(push.ErrExpired).Once()
	f.agentRepo.On("DeletePushSubscription", mock.Anything, a.ID, dead.Endpoint).Return(nil).Once()
	f.pusher.On("Send", mock.Anything, live, mock.Anything).Return(nil).Once()

	f.svc.CustomerMessageStored(context.Background(), m)

	f.agentRepo.AssertExpectations(t)
	f.pusher.AssertExpectations(t)
}

func TestCustomerMessageStoredRelaysToAgentWhatsApp(t *testing.T) {
	f := newNotifyFixture()

	conv := conversation.Conversation{ID: uuid.New()}
	m := message.Message{ConversationID: conv.ID, Content: "need a refund", MessageType: "text"}
	a := agent.Agent{
		ID:             uuid.New(),
		NotifyWhatsApp: true,
		WaPhone:        sql.NullString{String: "+15551234567", Valid: true},
	}

	f.convRepo.On("GetByID", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.agentRepo.On("ListActive", mock.Anything).Return([]agent.Agent{a}, nil).Once()
	f.msgRepo.On("ListByConversation", mock.Anything, conv.ID, 50).
		Return([]message.Message{m}, nil).Once()
	f.gateway.On("SendText", mock.Anything, "15551234567@c.us", mock.MatchedBy(func(body string) bool {
		return len(body) > 0
	})).Return("wa-n-1", nil).Once()

	f.svc.CustomerMessageStored(context.Background(), m)

	f.gateway.AssertExpectations(t)
}
