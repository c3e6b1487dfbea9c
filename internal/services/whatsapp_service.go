package services

import (
	"context"
	"errors"
	"time"

	"support-chat/internal/domain/conversation"
	"support-chat/internal/domain/message"
	"support-chat/internal/repository"
	"support-chat/internal/whatsapp"
	support_errors "support-chat/pkg/errors"
	"support-chat/pkg/logger"

	"github.com/google/uuid"
)

// WhatsAppGateway abstracts the external messaging gateway. Inbound traffic
// arrives through webhooks, not through this interface.
type WhatsAppGateway interface {
	SendText(ctx context.Context, chatID, body string) (string, error)
}

// WhatsAppService bridges conversations to the external messaging network:
// outbound session-token encoding, inbound decode/correlation, and mirrored
// status events.
type WhatsAppService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	messages *MessageService
	gateway  WhatsAppGateway
	log      *logger.Logger
}

func NewWhatsAppService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, messages *MessageService, gateway WhatsAppGateway, log *logger.Logger) *WhatsAppService {
	return &WhatsAppService{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		messages: messages,
		gateway:  gateway,
		log:      log,
	}
}

// InboundMessage is the webhook payload for a received text.
type InboundMessage struct {
	WaMessageID  string
	SenderChatID string
	SenderName   string
	Text         string
}

// HandleInbound routes an inbound WhatsApp text. An embedded session token
// marks an agent reply to a relayed conversation; without one the sender's
// chat id must match a conversation that was moved to WhatsApp. Unmatched
// messages are dropped — the webhook layer acknowledges regardless, so the
// provider never retry-storms over traffic we cannot place.
func (s *WhatsAppService) HandleInbound(ctx context.Context, in InboundMessage) error {
	if token, ok := whatsapp.ExtractSessionToken(in.Text); ok {
		conv, err := s.convRepo.GetByIDPrefix(ctx, token)
		if err != nil {
			if errors.Is(err, support_errors.ErrNotFound) {
				s.log.Warnf("inbound whatsapp: session token %s matches no conversation, dropping", token)
				return nil
			}
			return err
		}

		reply := whatsapp.ExtractReply(in.Text)
		if reply == "" {
			s.log.Warnf("inbound whatsapp: empty reply for conversation %s, dropping", conv.ID)
			return nil
		}

		_, err = s.messages.Append(ctx, AppendInput{
			ConversationID: conv.ID,
			SenderType:     message.SenderAgent,
			Source:         message.SourceWhatsApp,
			Content:        reply,
			WaMessageID:    in.WaMessageID,
		})
		return err
	}

	conv, err := s.convRepo.GetByWaChatID(ctx, in.SenderChatID)
	if err != nil {
		if errors.Is(err, support_errors.ErrNotFound) {
			s.log.Warnf("inbound whatsapp: chat id %s matches no conversation, dropping", in.SenderChatID)
			return nil
		}
		return err
	}

	_, err = s.messages.Append(ctx, AppendInput{
		ConversationID: conv.ID,
		SenderType:     message.SenderCustomer,
		Source:         message.SourceWhatsApp,
		Content:        in.Text,
		WaMessageID:    in.WaMessageID,
	})
	return err
}

// HandleStatus mirrors a gateway delivery status onto the internal message.
// A read status also bumps the conversation's agent read cursor: the agent
// saw the relayed message on their phone.
func (s *WhatsAppService) HandleStatus(ctx context.Context, waMessageID, status string) error {
	return s.msgRepo.SetWaStatus(ctx, waMessageID, status, time.Now())
}

// NotifyAgent relays a conversation to one agent's personal WhatsApp with
// the session token and a short quoted transcript, so the agent can answer
// by simply replying.
func (s *WhatsAppService) NotifyAgent(ctx context.Context, agentPhone string, conv conversation.Conversation) error {
	msgs, err := s.msgRepo.ListByConversation(ctx, conv.ID, 50)
	if err != nil {
		return err
	}

	transcript := make([]whatsapp.TranscriptEntry, 0, len(msgs))
	for _, m := range msgs {
		transcript = append(transcript, whatsapp.TranscriptEntry{
			Sender: m.SenderType,
			Text:   m.Preview(),
		})
	}

	body := whatsapp.EncodeOutbound(conv.SessionToken(), transcript)
	_, err = s.gateway.SendText(ctx, whatsapp.ChatIDForPhone(agentPhone), body)
	return err
}

// MoveToWhatsApp switches the customer side of a conversation to their
// WhatsApp number. Later agent replies are relayed there and inbound texts
// from that chat id land back in this conversation.
func (s *WhatsAppService) MoveToWhatsApp(ctx context.Context, conversationID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.WaPhone.Valid || conv.WaPhone.String == "" {
		return support_errors.ErrInvalidInput
	}

	chatID := whatsapp.ChatIDForPhone(conv.WaPhone.String)
	if _, err := s.gateway.SendText(ctx, chatID, "You can continue this support conversation right here on WhatsApp."); err != nil {
		return err
	}
	if err := s.convRepo.SetMovedToWhatsApp(ctx, conversationID, chatID); err != nil {
		return err
	}

	_, err = s.messages.Append(ctx, AppendInput{
		ConversationID: conversationID,
		SenderType:     message.SenderSystem,
		Source:         message.SourceDashboard,
		Content:        "Conversation moved to WhatsApp",
	})
	return err
}

// RelayAgentReply forwards an agent dashboard message to the customer's
// WhatsApp. It runs detached: the message is already durably stored and a
// gateway failure must not fail the send that triggered it.
func (s *WhatsAppService) RelayAgentReply(conv conversation.Conversation, m message.Message) {
	if !conv.MovedToWhatsApp || !conv.WaChatID.Valid {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		waID, err := s.gateway.SendText(ctx, conv.WaChatID.String, m.Content)
		if err != nil {
			s.log.Errorf("whatsapp relay for message %s failed: %v", m.ID, err)
			return
		}
		if err := s.msgRepo.SetWaMessageID(ctx, m.ID, waID); err != nil {
			s.log.Errorf("recording wa message id for %s failed: %v", m.ID, err)
		}
	}()
}
