package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"support-chat/internal/domain/message"
	"support-chat/internal/repository"
	support_errors "support-chat/pkg/errors"
	"support-chat/pkg/logger"

	"github.com/google/uuid"
)

// Notifier is invoked after a customer message is durably stored. Dispatch
// runs outside the critical path of the send: a notification failure must
// never fail or delay the triggering message.
type Notifier interface {
	CustomerMessageStored(ctx context.Context, m message.Message)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	notifier    Notifier
	log         *logger.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, convRepo repository.ConversationRepository, log *logger.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		log:         log,
	}
}

// SetNotifier wires the notification dispatcher after construction; the
// notifier itself depends on message/conversation state, so it cannot be a
// constructor argument.
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type AttachmentInput struct {
	URL  string
	Name string
	Mime string
	Size int64
}

type AppendInput struct {
	ConversationID  uuid.UUID
	SenderType      string
	Source          string
	Content         string
	ClientMessageID string
	WaMessageID     string
	Attachment      *AttachmentInput
}

type AppendResult struct {
	Message message.Message
	// Deduplicated is true when the client message id was already stored and
	// the pre-existing message is returned instead of a new one.
	Deduplicated bool
}

var validSenders = map[string]bool{
	message.SenderCustomer: true,
	message.SenderAgent:    true,
	message.SenderSystem:   true,
}

// Append stores a message and updates the owning conversation's aggregate
// fields in one transaction. Supplying the same client message id twice
// yields exactly one stored message; the duplicate call gets the original
// back, flagged.
func (s *MessageService) Append(ctx context.Context, in AppendInput) (AppendResult, error) {
	if in.ConversationID == uuid.Nil || !validSenders[in.SenderType] {
		return AppendResult{}, support_errors.ErrInvalidInput
	}
	if strings.TrimSpace(in.Content) == "" && in.Attachment == nil {
		return AppendResult{}, support_errors.ErrInvalidInput
	}

	// Fast path for retries: the unique index is what actually closes the
	// race, this lookup just avoids a doomed insert on the common case.
	if in.ClientMessageID != "" {
		existing, err := s.messageRepo.GetByClientMessageID(ctx, in.ConversationID, in.ClientMessageID)
		if err == nil {
			return AppendResult{Message: existing, Deduplicated: true}, nil
		}
		if !errors.Is(err, support_errors.ErrNotFound) {
			return AppendResult{}, err
		}
	}

	m := message.Message{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		SenderType:     in.SenderType,
		Source:         in.Source,
		Content:        in.Content,
		Status:         message.StatusSent,
		MessageType:    "text",
		CreatedAt:      time.Now(),
	}
	if in.ClientMessageID != "" {
		m.ClientMessageID = sql.NullString{String: in.ClientMessageID, Valid: true}
	}
	if in.WaMessageID != "" {
		m.WaMessageID = sql.NullString{String: in.WaMessageID, Valid: true}
	}
	if in.Attachment != nil {
		m.FileURL = sql.NullString{String: in.Attachment.URL, Valid: true}
		m.FileName = sql.NullString{String: in.Attachment.Name, Valid: in.Attachment.Name != ""}
		m.FileMime = sql.NullString{String: in.Attachment.Mime, Valid: in.Attachment.Mime != ""}
		m.FileSize = sql.NullInt64{Int64: in.Attachment.Size, Valid: in.Attachment.Size > 0}
		m.MessageType = message.TypeForMime(in.Attachment.Mime)
	}

	err := s.messageRepo.Append(ctx, &m)
	if errors.Is(err, support_errors.ErrAlreadyExists) && in.ClientMessageID != "" {
		// Lost the race against an identical retry; the stored row wins.
		existing, lookupErr := s.messageRepo.GetByClientMessageID(ctx, in.ConversationID, in.ClientMessageID)
		if lookupErr != nil {
			return AppendResult{}, lookupErr
		}
		return AppendResult{Message: existing, Deduplicated: true}, nil
	}
	if err != nil {
		return AppendResult{}, err
	}

	if m.SenderType == message.SenderCustomer && s.notifier != nil {
		// Detached from the request context on purpose: the send already
		// succeeded.
		go s.notifier.CustomerMessageStored(context.Background(), m)
	}

	return AppendResult{Message: m}, nil
}

// opposite returns the counterpart sender type whose messages a viewer
// acknowledges.
func opposite(viewerType string) string {
	if viewerType == message.SenderAgent {
		return message.SenderCustomer
	}
	return message.SenderAgent
}

// MarkDelivered transitions the counterpart's sent messages to delivered. A
// party fetching new messages implicitly acknowledges delivery of everything
// the other side sent.
func (s *MessageService) MarkDelivered(ctx context.Context, conversationID uuid.UUID, viewerType string) error {
	return s.messageRepo.MarkDelivered(ctx, conversationID, opposite(viewerType))
}

// MarkRead transitions the counterpart's unread messages to read and resets
// the reader's conversation cursor (zeroing the unread count when the reader
// is the agent).
func (s *MessageService) MarkRead(ctx context.Context, conversationID uuid.UUID, readerType string) error {
	return s.messageRepo.MarkRead(ctx, conversationID, opposite(readerType), readerType, time.Now())
}

// FetchForViewer returns a conversation's messages for one side and applies
// the implicit delivery acknowledgement. Messages inserted concurrently with
// the delivery scan are simply picked up by the next poll.
func (s *MessageService) FetchForViewer(ctx context.Context, conversationID uuid.UUID, viewerType string, after *time.Time, limit int) ([]message.Message, error) {
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	var (
		msgs []message.Message
		err  error
	)
	if after != nil {
		msgs, err = s.messageRepo.ListAfter(ctx, conversationID, *after)
	} else {
		msgs, err = s.messageRepo.ListByConversation(ctx, conversationID, limit)
	}
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.MarkDelivered(ctx, conversationID, opposite(viewerType)); err != nil {
		s.log.Errorf("mark delivered failed for conversation %s: %v", conversationID, err)
	}
	return msgs, nil
}

func (s *MessageService) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	return s.messageRepo.GetByID(ctx, id)
}
