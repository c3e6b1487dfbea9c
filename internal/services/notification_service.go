package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"support-chat/internal/domain/agent"
	"support-chat/internal/domain/message"
	"support-chat/internal/push"
	"support-chat/internal/repository"
	"support-chat/pkg/logger"
)

// PushSender abstracts the browser push delivery service.
type PushSender interface {
	Send(ctx context.Context, sub agent.PushSubscription, payload []byte) error
}

// NotificationService fans a stored customer message out to the agents who
// opted in: web push to their browser subscriptions and a WhatsApp relay to
// their personal number. Everything here is best-effort; failures are logged
// and never surfaced to the customer's send.
type NotificationService struct {
	agentRepo repository.AgentRepository
	convRepo  repository.ConversationRepository
	pusher    PushSender
	wa        *WhatsAppService
	log       *logger.Logger
}

func NewNotificationService(agentRepo repository.AgentRepository, convRepo repository.ConversationRepository, pusher PushSender, wa *WhatsAppService, log *logger.Logger) *NotificationService {
	return &NotificationService{
		agentRepo: agentRepo,
		convRepo:  convRepo,
		pusher:    pusher,
		wa:        wa,
		log:       log,
	}
}

type pushPayload struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	ConversationID string `json:"conversationId"`
}

// CustomerMessageStored implements Notifier. Invoked detached from the
// request that stored the message.
func (s *NotificationService) CustomerMessageStored(ctx context.Context, m message.Message) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conv, err := s.convRepo.GetByID(ctx, m.ConversationID)
	if err != nil {
		s.log.Errorf("notify: conversation %s lookup failed: %v", m.ConversationID, err)
		return
	}

	agents, err := s.agentRepo.ListActive(ctx)
	if err != nil {
		s.log.Errorf("notify: listing agents failed: %v", err)
		return
	}

	title := "New support message"
	if conv.CustomerName.Valid && conv.CustomerName.String != "" {
		title = "New message from " + conv.CustomerName.String
	}
	payload, err := json.Marshal(pushPayload{
		Title:          title,
		Body:           m.Preview(),
		ConversationID: conv.ID.String(),
	})
	if err != nil {
		s.log.Errorf("notify: payload marshal failed: %v", err)
		return
	}

	for _, a := range agents {
		if a.NotifyPush && s.pusher != nil {
			s.pushToAgent(ctx, a, payload)
		}
		if a.NotifyWhatsApp && a.WaPhone.Valid && s.wa != nil {
			if err := s.wa.NotifyAgent(ctx, a.WaPhone.String, conv); err != nil {
				s.log.Errorf("notify: whatsapp relay to agent %s failed: %v", a.ID, err)
			}
		}
	}
}

func (s *NotificationService) pushToAgent(ctx context.Context, a agent.Agent, payload []byte) {
	subs, err := s.agentRepo.ListPushSubscriptions(ctx, a.ID)
	if err != nil {
		s.log.Errorf("notify: listing subscriptions for agent %s failed: %v", a.ID, err)
		return
	}
	for _, sub := range subs {
		err := s.pusher.Send(ctx, sub, payload)
		if errors.Is(err, push.ErrExpired) {
			// The push service rejected the endpoint for good; prune it.
			if delErr := s.agentRepo.DeletePushSubscription(ctx, sub.AgentID, sub.Endpoint); delErr != nil {
				s.log.Errorf("notify: pruning subscription failed: %v", delErr)
			}
			continue
		}
		if err != nil {
			s.log.Errorf("notify: push to agent %s failed: %v", a.ID, err)
		}
	}
}
