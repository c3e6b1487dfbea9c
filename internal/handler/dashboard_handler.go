package handler

import (
	"net/http"
	"strconv"
	"time"

	"support-chat/internal/domain/message"
	"support-chat/internal/redis"
	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"
	"support-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the agent-facing conversation endpoints.
type DashboardHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
	whatsapp      *services.WhatsAppService
	typing        *redis.TypingStore
	log           *logger.Logger
}

func NewDashboardHandler(
	conversations *services.ConversationService,
	messages *services.MessageService,
	whatsapp *services.WhatsAppService,
	typing *redis.TypingStore,
	log *logger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		conversations: conversations,
		messages:      messages,
		whatsapp:      whatsapp,
		typing:        typing,
		log:           log,
	}
}

// List returns conversations for the agent inbox. Supports filter=active,
// unread or unanswered, plus full-text search and archived toggling.
func (h *DashboardHandler) List(c *gin.Context) {
	in := services.ListInput{
		Filter: c.Query("filter"),
		Search: c.Query("search"),
		Page:   atoiDefault(c.Query("page"), 1),
		Limit:  atoiDefault(c.Query("limit"), 20),
	}
	switch c.Query("archived") {
	case "true":
		v := true
		in.Archived = &v
	case "", "false":
		v := false
		in.Archived = &v
	case "all":
	}

	convs, total, err := h.conversations.List(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	now := time.Now()
	views := make([]httpdto.ConversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, httpdto.FromConversation(conv, services.CustomerIsOnline(conv, now)))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ConversationListResponse{
		Conversations: views,
		Total:         total,
	}))
}

// Get returns one conversation with its message history and marks the
// customer's messages delivered.
func (h *DashboardHandler) Get(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	conv, err := h.conversations.GetByID(c.Request.Context(), convID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	msgs, err := h.messages.FetchForViewer(c.Request.Context(), convID, message.SenderAgent, nil, 200)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"conversation": httpdto.FromConversation(conv, services.CustomerIsOnline(conv, time.Now())),
		"messages":     httpdto.FromMessages(msgs),
	}))
}

// Send appends an agent reply. When the conversation has been moved to
// WhatsApp the reply is also relayed out through the bridge.
func (h *DashboardHandler) Send(c *gin.Context) {
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
		SenderType:      message.SenderAgent,
		Source:          message.SourceDashboard,
		Content:         req.Content,
		ClientMessageID: req.ClientMsgID,
		Attachment:      attachmentFromRequest(req),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if !res.Deduplicated {
		conv, convErr := h.conversations.GetByID(c.Request.Context(), convID)
		if convErr == nil && conv.MovedToWhatsApp {
			h.whatsapp.RelayAgentReply(conv, res.Message)
		}
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendMessageResponse{
		Message:      httpdto.FromMessage(res.Message),
		Deduplicated: res.Deduplicated,
	}))
}

// MarkRead acknowledges the customer's messages and zeroes the unread count.
func (h *DashboardHandler) MarkRead(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), convID, message.SenderAgent); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Archive toggles the conversation's archived flag.
func (h *DashboardHandler) Archive(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req httpdto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := h.conversations.SetArchived(c.Request.Context(), convID, req.Archived); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// MoveToWhatsApp hands the conversation over to the WhatsApp channel.
func (h *DashboardHandler) MoveToWhatsApp(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	if err := h.whatsapp.MoveToWhatsApp(c.Request.Context(), convID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Typing records the agent's typing state for the widget to surface.
func (h *DashboardHandler) Typing(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req httpdto.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	agentKey := "agent"
	if a, ok := services.AgentFromContext(c.Request.Context()); ok {
		agentKey = a.ID.String()
	}
	if h.typing != nil {
		if err := h.typing.Set(c.Request.Context(), convID.String(), agentKey, req.IsTyping); err != nil {
			h.log.ErrorfCtx(c.Request.Context(), "typing state: %v", err)
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// CustomerTyping reports whether the customer is typing in a conversation.
func (h *DashboardHandler) CustomerTyping(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	typing := false
	if h.typing != nil {
		state, err := h.typing.Get(c.Request.Context(), convID.String(), "customer")
		if err == nil {
			typing = state.IsTyping
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"is_typing": typing}))
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
