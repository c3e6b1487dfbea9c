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

	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	"support-chat/internal/mocks"
	"support-chat/internal/repository"
	support_errors "support-chat/pkg/errors"
	"support-chat/pkg/logger"
)

func newConversationService(convRepo *mocks.ConversationRepositoryMock, msgRepo *mocks.MessageRepositoryMock) *ConversationService {
	return NewConversationService(convRepo, msgRepo, logger.New(logger.DevelopmentMode))
}

func TestStartOrResumeRequiresIdentity(t *testing.T) {
	svc := newConversationService(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))

	_, _, err := svc.StartOrResume(context.Background(), StartInput{})
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)
}

func TestStartOrResumeReturnsExisting(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))

	existing := conversation.Conversation{ID: uuid.New(), Status: conversation.StatusActive}
	convRepo.On("GetByCustomer", mock.Anything, "", "device-7").Return(existing, nil).Once()

	conv, created, err := svc.StartOrResume(context.Background(), StartInput{DeviceID: "device-7"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, conv.ID)
	convRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStartOrResumeCreatesPending(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))

	convRepo.On("GetByCustomer", mock.Anything, "user-1", "").
		Return(nil, support_errors.ErrNotFound).Once()
	convRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *conversation.Conversation) bool {
		return c.Status == conversation.StatusPending &&
			c.SiteUserID.String == "user-1" &&
			c.CustomerName.String == "Dana"
	})).Return(nil).Once()

	conv, created, err := svc.StartOrResume(context.Background(), StartInput{SiteUserID: "user-1", CustomerName: "Dana"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, conv.ID)
	convRepo.AssertExpectations(t)
}

func TestListActiveFilterUsesPresenceWindow(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))

	before := time.Now()
	convRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.ConversationQuery) bool {
		if q.CustomerSeenSince == nil {
			return false
		}
		// The cutoff is "now minus the presence threshold".
		diff := before.Add(-OnlineThreshold).Sub(*q.CustomerSeenSince)
		return diff <= 0 && diff > -5*time.Second
	})).Return([]conversation.Conversation{}, int64(0), nil).Once()

	_, _, err := svc.List(context.Background(), ListInput{Filter: FilterActive})
	require.NoError(t, err)
	convRepo.AssertExpectations(t)
}

func TestListUnreadFilter(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))

	convRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.ConversationQuery) bool {
		return q.UnreadOnly && q.Limit == 20 && q.Offset == 0
	})).Return([]conversation.Conversation{}, int64(0), nil).Once()

	_, _, err := svc.List(context.Background(), ListInput{Filter: FilterUnread})
	require.NoError(t, err)
	convRepo.AssertExpectations(t)
}

func TestListUnanswered(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))

	answered := conversation.Conversation{ID: uuid.New(), UnreadCount: 0}   // agent had the last word
	unanswered := conversation.Conversation{ID: uuid.New(), UnreadCount: 0} // customer had the last word
	unread := conversation.Conversation{ID: uuid.New(), UnreadCount: 3}     // classified as unread, not unanswered

	convRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.ConversationQuery) bool {
		return q.Limit == unansweredCandidateWindow
	})).Return([]conversation.Conversation{answered, unanswered, unread}, int64(3), nil).Once()

	convRepo.On("LatestSenderTypes", mock.Anything, []uuid.UUID{answered.ID, unanswered.ID}).
		Return(map[uuid.UUID]string{
			answered.ID:   message.SenderAgent,
			unanswered.ID: message.SenderCustomer,
		}, nil).Once()

	list, total, err := svc.List(context.Background(), ListInput{Filter: FilterUnanswered})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, unanswered.ID, list[0].ID)
	convRepo.AssertExpectations(t)
}

func TestListUnansweredPagination(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))

	window := make([]conversation.Conversation, 5)
	ids := make([]uuid.UUID, 5)
	senders := map[uuid.UUID]string{}
	for i := range window {
		window[i] = conversation.Conversation{ID: uuid.New()}
		ids[i] = window[i].ID
		senders[window[i].ID] = message.SenderCustomer
	}

	convRepo.On("List", mock.Anything, mock.Anything).Return(window, int64(5), nil).Once()
	convRepo.On("LatestSenderTypes", mock.Anything, ids).Return(senders, nil).Once()

	list, total, err := svc.List(context.Background(), ListInput{Filter: FilterUnanswered, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[3], list[1].ID)
}

func TestSetContactValidation(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newConversationService(convRepo, new(mocks.MessageRepositoryMock))
	id := uuid.New()

	assert.ErrorIs(t, svc.SetContact(context.Background(), id, "email", ""), support_errors.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetContact(context.Background(), id, "whatsapp", ""), support_errors.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetContact(context.Background(), id, "carrier-pigeon", "x"), support_errors.ErrInvalidInput)

	convRepo.On("SetContact", mock.Anything, id, "email", "a@b.c", "").Return(nil).Once()
	require.NoError(t, svc.SetContact(context.Background(), id, "email", "a@b.c"))

	convRepo.On("SetContact", mock.Anything, id, "whatsapp", "", "+155512345").Return(nil).Once()
	require.NoError(t, svc.SetContact(context.Background(), id, "whatsapp", "+155512345"))
	convRepo.AssertExpectations(t)
}

func TestReconcileRepairsDrift(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newConversationService(convRepo, msgRepo)

	latestAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	latest := message.Message{Content: "where is it", SenderType: message.SenderCustomer, MessageType: "text", CreatedAt: latestAt}

	consistent := conversation.Conversation{
		ID:                 uuid.New(),
		UnreadCount:        1,
		LastMessagePreview: sql.NullString{String: "where is it", Valid: true},
		LastMessageAt:      sql.NullTime{Time: latestAt, Valid: true},
	}
	drifted := conversation.Conversation{
		ID:          uuid.New(),
		UnreadCount: 0, // log says one unread customer message
	}

	convRepo.On("List", mock.Anything, mock.Anything).
		Return([]conversation.Conversation{consistent, drifted}, int64(2), nil).Once()

	msgRepo.On("GetLatest", mock.Anything, consistent.ID).Return(latest, nil).Once()
	msgRepo.On("CountCustomerMessagesSince", mock.Anything, consistent.ID, (*time.Time)(nil)).
		Return(int64(1), nil).Once()

	msgRepo.On("GetLatest", mock.Anything, drifted.ID).Return(latest, nil).Once()
	msgRepo.On("CountCustomerMessagesSince", mock.Anything, drifted.ID, (*time.Time)(nil)).
		Return(int64(1), nil).Once()
	convRepo.On("Update", mock.Anything, mock.MatchedBy(func(c conversation.Conversation) bool {
		return c.ID == drifted.ID && c.UnreadCount == 1 && c.LastMessagePreview.String == "where is it"
	})).Return(nil).Once()

	fixed, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)
	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}
