package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	"support-chat/internal/repository"
	support_errors "support-chat/pkg/errors"
	"support-chat/pkg/logger"

	"github.com/google/uuid"
)

// Dashboard filter names. Mutually exclusive by design.
const (
	FilterActive     = "active"
	FilterUnread     = "unread"
	FilterUnanswered = "unanswered"
)

// unansweredCandidateWindow caps how many conversations the unanswered
// post-filter will examine. The predicate (last message is customer-sent and
// the agent has caught up) cannot be pushed into the storage query, so it is
// an O(N) scan over this window. Fine for a support desk; revisit if a
// single desk ever carries more open conversations than this.
const unansweredCandidateWindow = 200

type ConversationService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	log      *logger.Logger
}

func NewConversationService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, log *logger.Logger) *ConversationService {
	return &ConversationService{convRepo: convRepo, msgRepo: msgRepo, log: log}
}

type StartInput struct {
	SiteUserID   string
	DeviceID     string
	CustomerName string
}

// StartOrResume lazily creates the conversation for a customer identity, or
// returns the existing one. The identity is immutable once set.
func (s *ConversationService) StartOrResume(ctx context.Context, in StartInput) (conversation.Conversation, bool, error) {
	if in.SiteUserID == "" && in.DeviceID == "" {
		return conversation.Conversation{}, false, support_errors.ErrInvalidInput
	}

	existing, err := s.convRepo.GetByCustomer(ctx, in.SiteUserID, in.DeviceID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, support_errors.ErrNotFound) {
		return conversation.Conversation{}, false, err
	}

	now := time.Now()
	c := conversation.Conversation{
		ID:           uuid.New(),
		SiteUserID:   sql.NullString{String: in.SiteUserID, Valid: in.SiteUserID != ""},
		DeviceID:     sql.NullString{String: in.DeviceID, Valid: in.DeviceID != ""},
		CustomerName: sql.NullString{String: in.CustomerName, Valid: in.CustomerName != ""},
		ContactType:  conversation.ContactNone,
		Status:       conversation.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.convRepo.Create(ctx, &c); err != nil {
		return conversation.Conversation{}, false, err
	}
	return c, true, nil
}

func (s *ConversationService) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	return s.convRepo.GetByID(ctx, id)
}

type ListInput struct {
	Filter   string
	Search   string
	Archived *bool
	Page     int
	Limit    int
}

// List applies the dashboard filters. Active and unread are plain stored-field
// filters; unanswered needs the latest message of every candidate, so it is
// evaluated as fetch-then-filter-then-repaginate over a capped window.
func (s *ConversationService) List(ctx context.Context, in ListInput) ([]conversation.Conversation, int64, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}

	if in.Filter == FilterUnanswered {
		return s.listUnanswered(ctx, in, page, limit)
	}

	q := repository.ConversationQuery{
		Archived: in.Archived,
		Search:   in.Search,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	switch in.Filter {
	case FilterActive:
		since := time.Now().Add(-OnlineThreshold)
		q.CustomerSeenSince = &since
	case FilterUnread:
		q.UnreadOnly = true
	}
	return s.convRepo.List(ctx, q)
}

func (s *ConversationService) listUnanswered(ctx context.Context, in ListInput, page, limit int) ([]conversation.Conversation, int64, error) {
	q := repository.ConversationQuery{
		Archived: in.Archived,
		Search:   in.Search,
		Limit:    unansweredCandidateWindow,
	}
	window, _, err := s.convRepo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	// Unanswered means the agent opened the conversation (unread count is
	// zero) but the last word still belongs to the customer. Conversations
	// with unread messages are classified as unread instead.
	candidates := make([]conversation.Conversation, 0, len(window))
	ids := make([]uuid.UUID, 0, len(window))
	for _, c := range window {
		if c.UnreadCount == 0 {
			candidates = append(candidates, c)
			ids = append(ids, c.ID)
		}
	}

	senders, err := s.convRepo.LatestSenderTypes(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]conversation.Conversation, 0, len(candidates))
	for _, c := range candidates {
		if senders[c.ID] == message.SenderCustomer {
			filtered = append(filtered, c)
		}
	}

	total := int64(len(filtered))
	start := (page - 1) * limit
	if start >= len(filtered) {
		return []conversation.Conversation{}, total, nil
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

// SetContact captures the customer's preferred contact channel.
func (s *ConversationService) SetContact(ctx context.Context, id uuid.UUID, contactType, contact string) error {
	switch contactType {
	case conversation.ContactEmail:
		if contact == "" {
			return support_errors.ErrInvalidInput
		}
		return s.convRepo.SetContact(ctx, id, contactType, contact, "")
	case conversation.ContactWhatsApp:
		if contact == "" {
			return support_errors.ErrInvalidInput
		}
		return s.convRepo.SetContact(ctx, id, contactType, "", contact)
	case conversation.ContactNone:
		return s.convRepo.SetContact(ctx, id, contactType, "", "")
	default:
		return support_errors.ErrInvalidInput
	}
}

func (s *ConversationService) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	return s.convRepo.SetArchived(ctx, id, archived)
}

// ArchiveInactive is the age-based sweep, exposed for an external scheduler.
func (s *ConversationService) ArchiveInactive(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.convRepo.ArchiveOlderThan(ctx, time.Now().Add(-olderThan))
}

// Reconcile recomputes the denormalized aggregate fields from the message
// log and repairs any drift. The aggregate is normally maintained only by
// invariant-preserving transactions; this is a manually-triggered backstop,
// not a scheduled job.
func (s *ConversationService) Reconcile(ctx context.Context) (int64, error) {
	var fixed int64
	const pageSize = 200

	for offset := 0; ; offset += pageSize {
		batch, _, err := s.convRepo.List(ctx, repository.ConversationQuery{Limit: pageSize, Offset: offset})
		if err != nil {
			return fixed, err
		}
		if len(batch) == 0 {
			return fixed, nil
		}

		for _, c := range batch {
			changed, err := s.reconcileOne(ctx, c)
			if err != nil {
				s.log.Errorf("reconcile conversation %s: %v", c.ID, err)
				continue
			}
			if changed {
				fixed++
			}
		}

		if len(batch) < pageSize {
			return fixed, nil
		}
	}
}

func (s *ConversationService) reconcileOne(ctx context.Context, c conversation.Conversation) (bool, error) {
	latest, err := s.msgRepo.GetLatest(ctx, c.ID)
	if errors.Is(err, support_errors.ErrNotFound) {
		return false, nil // no messages yet, nothing to reconcile
	}
	if err != nil {
		return false, err
	}

	var since *time.Time
	if c.LastReadAtAgent.Valid {
		t := c.LastReadAtAgent.Time
		since = &t
	}
	unread, err := s.msgRepo.CountCustomerMessagesSince(ctx, c.ID, since)
	if err != nil {
		return false, err
	}

	preview := latest.Preview()
	if int64(c.UnreadCount) == unread &&
		c.LastMessagePreview.Valid && c.LastMessagePreview.String == preview &&
		c.LastMessageAt.Valid && c.LastMessageAt.Time.Equal(latest.CreatedAt) {
		return false, nil
	}

	c.UnreadCount = int(unread)
	c.LastMessagePreview = sql.NullString{String: preview, Valid: true}
	c.LastMessageAt = sql.NullTime{Time: latest.CreatedAt, Valid: true}
	if err := s.convRepo.Update(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}
