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
	support_errors "support-chat/pkg/errors"
	"support-chat/pkg/logger"
)

func newMessageService(msgRepo *mocks.MessageRepositoryMock, convRepo *mocks.ConversationRepositoryMock) *MessageService {
	return NewMessageService(msgRepo, convRepo, logger.New(logger.DevelopmentMode))
}

func TestAppendRejectsInvalidInput(t *testing.T) {
	svc := newMessageService(new(mocks.MessageRepositoryMock), new(mocks.ConversationRepositoryMock))

	_, err := svc.Append(context.Background(), AppendInput{
		SenderType: message.SenderCustomer,
		Content:    "hi",
	})
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	_, err = svc.Append(context.Background(), AppendInput{
		ConversationID: uuid.New(),
		SenderType:     "robot",
		Content:        "hi",
	})
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	_, err = svc.Append(context.Background(), AppendInput{
		ConversationID: uuid.New(),
		SenderType:     message.SenderCustomer,
		Content:        "   ",
	})
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)
}

func TestAppendStoresMessage(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newMessageService(msgRepo, convRepo)

	convID := uuid.New()
	msgRepo.On("GetByClientMessageID", mock.Anything, convID, "c-1").
		Return(nil, support_errors.ErrNotFound).Once()
	msgRepo.On("Append", mock.Anything, mock.MatchedBy(func(m *message.Message) bool {
		return m.ConversationID == convID &&
			m.SenderType == message.SenderAgent &&
			m.Status == message.StatusSent &&
			m.ClientMessageID.String == "c-1"
	})).Return(nil).Once()

	res, err := svc.Append(context.Background(), AppendInput{
		ConversationID:  convID,
		SenderType:      message.SenderAgent,
		Source:          message.SourceDashboard,
		Content:         "on it",
		ClientMessageID: "c-1",
	})
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
	assert.Equal(t, "on it", res.Message.Content)
	msgRepo.AssertExpectations(t)
}

func TestAppendDeduplicatesOnFastPath(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))

	convID := uuid.New()
	existing := message.Message{
		ID:              uuid.New(),
		ConversationID:  convID,
		Content:         "original",
		ClientMessageID: sql.NullString{String: "retry-1", Valid: true},
	}
	msgRepo.On("GetByClientMessageID", mock.Anything, convID, "retry-1").
		Return(existing, nil).Once()

	res, err := svc.Append(context.Background(), AppendInput{
		ConversationID:  convID,
		SenderType:      message.SenderCustomer,
		Source:          message.SourceWidget,
		Content:         "different content on retry",
		ClientMessageID: "retry-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Deduplicated)
	assert.Equal(t, existing.ID, res.Message.ID)
	assert.Equal(t, "original", res.Message.Content)
	// No insert is attempted.
	msgRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestAppendDeduplicatesOnInsertRace(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))

	convID := uuid.New()
	winner := message.Message{ID: uuid.New(), ConversationID: convID, Content: "hello"}

	// First lookup misses, the insert loses the unique-index race, the second
	// lookup returns the row the concurrent retry stored.
	msgRepo.On("GetByClientMessageID", mock.Anything, convID, "race-1").
		Return(nil, support_errors.ErrNotFound).Once()
	msgRepo.On("Append", mock.Anything, mock.Anything).
		Return(support_errors.ErrAlreadyExists).Once()
	msgRepo.On("GetByClientMessageID", mock.Anything, convID, "race-1").
		Return(winner, nil).Once()

	res, err := svc.Append(context.Background(), AppendInput{
		ConversationID:  convID,
		SenderType:      message.SenderCustomer,
		Source:          message.SourceWidget,
		Content:         "hello",
		ClientMessageID: "race-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Deduplicated)
	assert.Equal(t, winner.ID, res.Message.ID)
	msgRepo.AssertExpectations(t)
}

func TestAppendMissingConversation(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))

	msgRepo.On("Append", mock.Anything, mock.Anything).
		Return(support_errors.ErrNotFound).Once()

	_, err := svc.Append(context.Background(), AppendInput{
		ConversationID: uuid.New(),
		SenderType:     message.SenderSystem,
		Content:        "orphan",
	})
	assert.ErrorIs(t, err, support_errors.ErrNotFound)
}

func TestAppendAttachmentSetsType(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))

	var stored *message.Message
	msgRepo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*message.Message) }).
		Return(nil).Once()

	_, err := svc.Append(context.Background(), AppendInput{
		ConversationID: uuid.New(),
		SenderType:     message.SenderAgent,
		Source:         message.SourceDashboard,
		Attachment: &AttachmentInput{
			URL:  "https://files.example/a.png",
			Name: "a.png",
			Mime: "image/png",
			Size: 1024,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "image", stored.MessageType)
	assert.Equal(t, "https://files.example/a.png", stored.FileURL.String)
	assert.Equal(t, int64(1024), stored.FileSize.Int64)
}

type notifierSpy struct {
	got chan message.Message
}

func (n *notifierSpy) CustomerMessageStored(ctx context.Context, m message.Message) {
	n.got <- m
}

func TestAppendNotifiesOnCustomerMessageOnly(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))
	spy := &notifierSpy{got: make(chan message.Message, 1)}
	svc.SetNotifier(spy)

	msgRepo.On("GetByClientMessageID", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, support_errors.ErrNotFound)
	msgRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Append(context.Background(), AppendInput{
		ConversationID:  uuid.New(),
		SenderType:      message.SenderCustomer,
		Source:          message.SourceWidget,
		Content:         "need help",
		ClientMessageID: "n-1",
	})
	require.NoError(t, err)

	select {
	case m := <-spy.got:
		assert.Equal(t, "need help", m.Content)
	case <-time.After(time.Second):
		t.Fatal("notifier was not called for a customer message")
	}

	_, err = svc.Append(context.Background(), AppendInput{
		ConversationID:  uuid.New(),
		SenderType:      message.SenderAgent,
		Source:          message.SourceDashboard,
		Content:         "reply",
		ClientMessageID: "n-2",
	})
	require.NoError(t, err)

	select {
	case <-spy.got:
		t.Fatal("notifier must not fire for agent messages")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMarkDeliveredTargetsCounterpart(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))

	convID := uuid.New()
	// The agent viewing acknowledges customer messages, and vice versa.
	msgRepo.On("MarkDelivered", mock.Anything, convID, message.SenderCustomer).Return(nil).Once()
	require.NoError(t, svc.MarkDelivered(context.Background(), convID, message.SenderAgent))

	msgRepo.On("MarkDelivered", mock.Anything, convID, message.SenderAgent).Return(nil).Once()
	require.NoError(t, svc.MarkDelivered(context.Background(), convID, message.SenderCustomer))

	msgRepo.AssertExpectations(t)
}

func TestMarkReadTargetsCounterpart(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgRepo, new(mocks.ConversationRepositoryMock))

	convID := uuid.New()
	msgRepo.On("MarkRead", mock.Anything, convID, message.SenderCustomer, message.SenderAgent, mock.Anything).
		Return(nil).Once()
	require.NoError(t, svc.MarkRead(context.Background(), convID, message.SenderAgent))
	msgRepo.AssertExpectations(t)
}

func TestFetchForViewer(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newMessageService(msgRepo, convRepo)

	convID := uuid.New()
	convRepo.On("GetByID", mock.Anything, convID).
		Return(conversation.Conversation{ID: convID}, nil).Twice()

	history := []message.Message{{Content: "a"}, {Content: "b"}}
	msgRepo.On("ListByConversation", mock.Anything, convID, 50).Return(history, nil).Once()
	msgRepo.On("MarkDelivered", mock.Anything, convID, message.SenderAgent).Return(nil).Twice()

	msgs, err := svc.FetchForViewer(context.Background(), convID, message.SenderCustomer, nil, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	after := time.Now().Add(-time.Minute)
	msgRepo.On("ListAfter", mock.Anything, convID, after).
		Return([]message.Message{{Content: "b"}}, nil).Once()

	msgs, err = svc.FetchForViewer(context.Background(), convID, message.SenderCustomer, &after, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	msgRepo.AssertExpectations(t)
}

func TestFetchForViewerUnknownConversation(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	svc := newMessageService(msgRepo, convRepo)

	convID := uuid.New()
	convRepo.On("GetByID", mock.Anything, convID).
		Return(nil, support_errors.ErrNotFound).Once()

	_, err := svc.FetchForViewer(context.Background(), convID, message.SenderAgent, nil, 50)
	assert.ErrorIs(t, err, support_errors.ErrNotFound)
	msgRepo.AssertNotCalled(t, "ListByConversation", mock.Anything, mock.Anything, mock.Anything)
}
