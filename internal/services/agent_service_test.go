package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"support-chat/internal/domain/agent"
	"support-chat/internal/mocks"
	support_errors "support-chat/pkg/errors"
)

func TestListTeamDerivesPresence(t *testing.T) {
	agentRepo := new(mocks.AgentRepositoryMock)
	svc := NewAgentService(agentRepo)

	now := time.Now()
	agents := []agent.Agent{
		{ID: uuid.New(), Name: "Fresh", IsOnline: true, LastSeenAt: sql.NullTime{Time: now.Add(-10 * time.Second), Valid: true}},
		{ID: uuid.New(), Name: "Stale", IsOnline: true, LastSeenAt: sql.NullTime{Time: now.Add(-10 * time.Minute), Valid: true}},
		{ID: uuid.New(), Name: "Away", IsOnline: false},
	}
	agentRepo.On("ListActive", mock.Anything).Return(agents, nil).Once()

	views, err := svc.ListTeam(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.True(t, views[0].IsOnline)
	assert.False(t, views[1].IsOnline, "stale heartbeat reads as offline")
	assert.False(t, views[2].IsOnline)
}

func TestUpdatePrefsRequiresPhoneForWhatsApp(t *testing.T) {
	agentRepo := new(mocks.AgentRepositoryMock)
	svc := NewAgentService(agentRepo)
	id := uuid.New()

	err := svc.UpdatePrefs(context.Background(), id, NotificationPrefs{NotifyWhatsApp: true})
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	agentRepo.On("UpdateNotificationPrefs", mock.Anything, id, true, true, "+155512345").Return(nil).Once()
	require.NoError(t, svc.UpdatePrefs(context.Background(), id, NotificationPrefs{
		NotifyPush:     true,
		NotifyWhatsApp: true,
		WaPhone:        "+155512345",
	}))
	agentRepo.AssertExpectations(t)
}

func TestSubscribeValidation(t *testing.T) {
	agentRepo := new(mocks.AgentRepositoryMock)
	svc := NewAgentService(agentRepo)
	id := uuid.New()

	err := svc.Subscribe(context.Background(), id, "", "p", "a")
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	agentRepo.On("AddPushSubscription", mock.Anything, mock.MatchedBy(func(s *agent.PushSubscription) bool {
		return s.AgentID == id && s.Endpoint == "https://push.example/e1"
	})).Return(nil).Once()
	require.NoError(t, svc.Subscribe(context.Background(), id, "https://push.example/e1", "p", "a"))
	agentRepo.AssertExpectations(t)
}

func TestSubscribeAssignsPrimaryKey(t *testing.T) {
	agentRepo := new(mocks.AgentRepositoryMock)
	svc := NewAgentService(agentRepo)
	id := uuid.New()

	var first, second *agent.PushSubscription
	agentRepo.On("AddPushSubscription", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { first = args.Get(1).(*agent.PushSubscription) }).
		Return(nil).Once()
	require.NoError(t, svc.Subscribe(context.Background(), id, "https://push.example/e1", "p", "a"))

	agentRepo.On("AddPushSubscription", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { second = args.Get(1).(*agent.PushSubscription) }).
		Return(nil).Once()
	require.NoError(t, svc.Subscribe(context.Background(), id, "https://push.example/e2", "p", "a"))

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEqual(t, uuid.Nil, first.ID, "stored subscription must carry a real primary key")
	assert.NotEqual(t, uuid.Nil, second.ID)
	assert.NotEqual(t, first.ID, second.ID, "each subscription gets its own key")
	agentRepo.AssertExpectations(t)
}

func TestUnsubscribeScopedToOwner(t *testing.T) {
	agentRepo := new(mocks.AgentRepositoryMock)
	svc := NewAgentService(agentRepo)
	id := uuid.New()

	err := svc.Unsubscribe(context.Background(), id, "")
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	agentRepo.On("DeletePushSubscription", mock.Anything, id, "https://push.example/e1").Return(nil).Once()
	require.NoError(t, svc.Unsubscribe(context.Background(), id, "https://push.example/e1"))
	agentRepo.AssertExpectations(t)
}
