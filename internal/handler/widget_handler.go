// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"time"

	"support-chat/internal/domain/message"
	"support-chat/internal/redis"
	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"
	"support-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WidgetHandler serves the embeddable customer widget. Widget endpoints are
// unauthenticated; the conversation id works as a capability.
type WidgetHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
	presence      *services.PresenceService
	availability  *services.AvailabilityService
	typing        *redis.TypingStore
	log           *logger.Logger
}

func NewWidgetHandler(
	conversations *services.ConversationService,
	messages *services.MessageService,
	presence *services.PresenceService,
	availability *services.AvailabilityService,
	typing *redis.TypingStore,
	log *logger.Logger,
) *WidgetHandler {
	return &WidgetHandler{
		conversations: conversations,
		messages:      messages,
		presence:      presence,
		availability:  availability,
		typing:        typing,
		log:           log,
	}
}

// Start opens or resumes the conversation for a customer identity and
// returns it along with the welcome state.
func (h *WidgetHandler) Start(c *gin.Context) {
	var req httpdto.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	conv, _, err := h.conversations.StartOrResume(c.Request.Context(), services.StartInput{
		SiteUserID:   req.SiteUserID,
		DeviceID:     req.DeviceID,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	welcome, err := h.availability.Welcome(c.Request.Context(), time.Now())
	if err != nil {
		h.log.ErrorfCtx(c.Request.Context(), "welcome state: %v", err)
		welcome = services.WelcomeInfo{}
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.StartConversationResponse{
		Conversation: httpdto.FromConversation(conv, true),
		Welcome: httpdto.WelcomeView{
			AgentAvailable: welcome.AgentAvailable,
			WelcomeMessage: welcome.WelcomeMessage,
		},
	}))
}

// Send appends a customer message.
func (h *WidgetHandler) Send(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.messages.Append(c.Request.Context(), services.AppendInput{
		ConversationID:  convID,
		SenderType:      message.SenderCustomer,
		Source:          message.SourceWidget,
		Content:         req.Content,
		ClientMessageID: req.ClientMsgID,
		Attachment:      attachmentFromRequest(req),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendMessageResponse{
		Message:      httpdto.FromMessage(res.Message),
		Deduplicated: res.Deduplicated,
	}))
}

// Poll returns messages for the customer, refreshes their presence, and
// acknowledges delivery of agent messages. Passing after= returns only newer
// messages.
func (h *WidgetHandler) Poll(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid after timestamp", "INVALID_REQUEST"))
			return
		}
		after = &t
	}

	msgs, err := h.messages.FetchForViewer(c.Request.Context(), convID, message.SenderCustomer, after, 100)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Polling doubles as the customer heartbeat and read acknowledgement.
	if err := h.presence.CustomerHeartbeat(c.Request.Context(), convID); err != nil {
		h.log.ErrorfCtx(c.Request.Context(), "customer heartbeat: %v", err)
	}
	if err := h.messages.MarkRead(c.Request.Context(), convID, message.SenderCustomer); err != nil {
		h.log.ErrorfCtx(c.Request.Context(), "customer mark read: %v", err)
	}

	agentOnline, err := h.presence.AnyAgentOnline(c.Request.Context(), time.Now())
	if err != nil {
		h.log.ErrorfCtx(c.Request.Context(), "agent presence: %v", err)
	}

	agentTyping := false
	if h.typing != nil {
		agentTyping, _ = h.typing.AnyTyping(c.Request.Context(), convID.String(), "customer")
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PollResponse{
		Messages:    httpdto.FromMessages(msgs),
		AgentOnline: agentOnline,
		AgentTyping: agentTyping,
	}))
}

// Typing records the customer's typing state.
func (h *WidgetHandler) Typing(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req httpdto.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if h.typing != nil {
		if err := h.typing.Set(c.Request.Context(), convID.String(), "customer", req.IsTyping); err != nil {
			h.log.ErrorfCtx(c.Request.Context(), "typing state: %v", err)
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// SetContact stores the customer's contact channel for follow-up.
func (h *WidgetHandler) SetContact(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req httpdto.SetContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	contact := req.GuestContact
	if req.ContactType == "whatsapp" {
		contact = req.WaPhone
	}
	if err := h.conversations.SetContact(c.Request.Context(), convID, req.ContactType, contact); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Availability reports whether an agent can answer right now.
func (h *WidgetHandler) Availability(c *gin.Context) {
	welcome, err := h.availability.Welcome(c.Request.Context(), time.Now())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.WelcomeView{
		AgentAvailable: welcome.AgentAvailable,
		WelcomeMessage: welcome.WelcomeMessage,
	}))
}

func conversationIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return uuid.Nil, false
	}
	return id, true
}

func attachmentFromRequest(req httpdto.SendMessageRequest) *services.AttachmentInput {
	if req.FileURL == "" {
		return nil
	}
	return &services.AttachmentInput{
		URL:  req.FileURL,
		Name: req.FileName,
		Mime: req.FileMime,
		Size: req.FileSize,
	}
}

func writeServiceError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), errorCode(status)))
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusBadGateway:
		return "UPSTREAM_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
