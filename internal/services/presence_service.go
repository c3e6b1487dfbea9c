package services

import (
	"context"
	"database/sql"
	"time"

	"support-chat/internal/domain/agent"
	"support-chat/internal/domain/conversation"
	"support-chat/internal/repository"

	"github.com/google/uuid"
)

// OnlineThreshold is the single recency window defining "online". It is used
// identically for agent presence, customer presence, and the any-agent-online
// aggregate; do not duplicate the literal anywhere else.
const OnlineThreshold = 60 * time.Second

// PresenceService tracks heartbeat-driven liveness for agents and customers.
// All state lives on rows in the shared store, never in process memory, so
// every server instance sees the same answer.
type PresenceService struct {
	agentRepo repository.AgentRepository
	convRepo  repository.ConversationRepository
}

func NewPresenceService(agentRepo repository.AgentRepository, convRepo repository.ConversationRepository) *PresenceService {
	return &PresenceService{agentRepo: agentRepo, convRepo: convRepo}
}

// WithinThreshold is the one comparison backing every online check.
// A lastSeen of exactly OnlineThreshold ago still counts as online.
func WithinThreshold(lastSeen sql.NullTime, now time.Time) bool {
	return lastSeen.Valid && now.Sub(lastSeen.Time) <= OnlineThreshold
}

// AgentHeartbeat records an agent liveness ping. Last write wins; heartbeats
// need no coordination.
func (s *PresenceService) AgentHeartbeat(ctx context.Context, agentID uuid.UUID) error {
	return s.agentRepo.Heartbeat(ctx, agentID, time.Now())
}

// AgentOffline clears the online flag immediately on graceful disconnect,
// rather than waiting out the threshold.
func (s *PresenceService) AgentOffline(ctx context.Context, agentID uuid.UUID) error {
	return s.agentRepo.MarkOffline(ctx, agentID)
}

// CustomerHeartbeat refreshes the customer's last-seen timestamp. The widget
// reuses the read cursor as the liveness signal: being present and having
// read everything are recorded as the same event.
func (s *PresenceService) CustomerHeartbeat(ctx context.Context, conversationID uuid.UUID) error {
	return s.convRepo.TouchCustomerSeen(ctx, conversationID, time.Now())
}

func (s *PresenceService) AnyAgentOnline(ctx context.Context, now time.Time) (bool, error) {
	return s.agentRepo.AnyOnline(ctx, now.Add(-OnlineThreshold))
}

// AgentIsOnline derives the boolean surfaced on the dashboard agent list.
func AgentIsOnline(a agent.Agent, now time.Time) bool {
	return a.IsOnline && WithinThreshold(a.LastSeenAt, now)
}

// CustomerIsOnline derives the boolean surfaced on a conversation row.
func CustomerIsOnline(c conversation.Conversation, now time.Time) bool {
	return WithinThreshold(c.LastReadAtCustomer, now)
}
