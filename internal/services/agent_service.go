package services

import (
	"context"
	"time"

	"support-chat/internal/domain/agent"
	"support-chat/internal/repository"
	support_errors "support-chat/pkg/errors"

	"github.com/google/uuid"
)

// AgentService covers the agent-facing surface that is not presence or
// auth: team listings and notification preferences.
type AgentService struct {
	agentRepo repository.AgentRepository
}

func NewAgentService(agentRepo repository.AgentRepository) *AgentService {
	return &AgentService{agentRepo: agentRepo}
}

type AgentView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsOnline bool      `json:"isOnline"`
}

func (s *AgentService) ListTeam(ctx context.Context) ([]AgentView, error) {
	agents, err := s.agentRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	views := make([]AgentView, 0, len(agents))
	for _, a := range agents {
		views = append(views, AgentView{
			ID:       a.ID,
			Name:     a.Name,
			Email:    a.Email,
			Role:     a.Role,
			IsOnline: AgentIsOnline(a, now),
		})
	}
	return views, nil
}

type NotificationPrefs struct {
	NotifyPush     bool   `json:"notifyPush"`
	NotifyWhatsApp bool   `json:"notifyWhatsApp"`
	WaPhone        string `json:"waPhone"`
}

func (s *AgentService) GetPrefs(ctx context.Context, agentID uuid.UUID) (NotificationPrefs, error) {
	a, err := s.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return NotificationPrefs{}, err
	}
	return NotificationPrefs{
		NotifyPush:     a.NotifyPush,
		NotifyWhatsApp: a.NotifyWhatsApp,
		WaPhone:        a.WaPhone.String,
	}, nil
}

func (s *AgentService) UpdatePrefs(ctx context.Context, agentID uuid.UUID, prefs NotificationPrefs) error {
	if prefs.NotifyWhatsApp && prefs.WaPhone == "" {
		return support_errors.ErrInvalidInput
	}
	return s.agentRepo.UpdateNotificationPrefs(ctx, agentID, prefs.NotifyPush, prefs.NotifyWhatsApp, prefs.WaPhone)
}

func (s *AgentService) Subscribe(ctx context.Context, agentID uuid.UUID, endpoint, p256dh, auth string) error {
	if endpoint == "" || p256dh == "" || auth == "" {
		return support_errors.ErrInvalidInput
	}
	return s.agentRepo.AddPushSubscription(ctx, &agent.PushSubscription{
		ID:       uuid.New(),
		AgentID:  agentID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	})
}

// Unsubscribe removes one of the calling agent's own push endpoints; the
// delete is scoped to agentID so no agent can drop another's subscription.
func (s *AgentService) Unsubscribe(ctx context.Context, agentID uuid.UUID, endpoint string) error {
	if endpoint == "" {
		return support_errors.ErrInvalidInput
	}
	return s.agentRepo.DeletePushSubscription(ctx, agentID, endpoint)
}
