package handler

import (
	"crypto/subtle"
	"net/http"

	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"
	"support-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives WhatsApp provider notifications. Everything past
// the token check is acknowledged with 200 regardless of processing outcome:
// a non-2xx makes the provider retry, and unprocessable notifications stay
// unprocessable on retry.
type WebhookHandler struct {
	whatsapp *services.WhatsAppService
	token    string
	log      *logger.Logger
}

func NewWebhookHandler(whatsapp *services.WhatsAppService, token string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{whatsapp: whatsapp, token: token, log: log}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	if h.token != "" {
		supplied := c.GetHeader("Authorization")
		if supplied == "" {
			supplied = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) != 1 {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			return
		}
	}

	var payload httpdto.WhatsAppWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.ErrorfCtx(c.Request.Context(), "webhook decode: %v", err)
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
		return
	}

	switch payload.TypeWebhook {
	case "incomingMessageReceived":
		err := h.whatsapp.HandleInbound(c.Request.Context(), services.InboundMessage{
			WaMessageID:  payload.IDMessage,
			SenderChatID: payload.SenderData.ChatID,
			SenderName:   payload.SenderData.SenderName,
			Text:         payload.Text(),
		})
		if err != nil {
			h.log.ErrorfCtx(c.Request.Context(), "webhook inbound %s: %v", payload.IDMessage, err)
		}
	case "outgoingMessageStatus":
		if err := h.whatsapp.HandleStatus(c.Request.Context(), payload.IDMessage, payload.Status); err != nil {
			h.log.ErrorfCtx(c.Request.Context(), "webhook status %s: %v", payload.IDMessage, err)
		}
	default:
		// Unknown notification types are acknowledged and dropped.
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
