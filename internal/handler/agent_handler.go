package handler

import (
	"net/http"

	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AgentHandler covers the agent account surface: login, presence heartbeats,
// notification preferences and push subscriptions.
type AgentHandler struct {
	auth     *services.AuthService
	agents   *services.AgentService
	presence *services.PresenceService
}

func NewAgentHandler(auth *services.AuthService, agents *services.AgentService, presence *services.PresenceService) *AgentHandler {
	return &AgentHandler{auth: auth, agents: agents, presence: presence}
}

func (h *AgentHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		AgentID:     res.Agent.ID.String(),
		Name:        res.Agent.Name,
		Role:        res.Agent.Role,
	}))
}

// Heartbeat marks the calling agent online. The dashboard calls this on an
// interval well under the presence threshold.
func (h *AgentHandler) Heartbeat(c *gin.Context) {
	a, ok := services.AgentFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if err := h.presence.AgentHeartbeat(c.Request.Context(), a.ID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Offline marks the calling agent offline immediately instead of waiting for
// the heartbeat to lapse.
func (h *AgentHandler) Offline(c *gin.Context) {
	a, ok := services.AgentFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if err := h.presence.AgentOffline(c.Request.Context(), a.ID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *AgentHandler) Team(c *gin.Context) {
	views, err := h.agents.ListTeam(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(views))
}

func (h *AgentHandler) GetPrefs(c *gin.Context) {
	a, ok := services.AgentFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	prefs, err := h.agents.GetPrefs(c.Request.Context(), a.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NotificationPrefsRequest{
		NotifyPush:     prefs.NotifyPush,
		NotifyWhatsApp: prefs.NotifyWhatsApp,
		WaPhone:        prefs.WaPhone,
	}))
}

func (h *AgentHandler) UpdatePrefs(c *gin.Context) {
	a, ok := services.AgentFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	var req httpdto.NotificationPrefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	err := h.agents.UpdatePrefs(c.Request.Context(), a.ID, services.NotificationPrefs{
		NotifyPush:     req.NotifyPush,
		NotifyWhatsApp: req.NotifyWhatsApp,
		WaPhone:        req.WaPhone,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *AgentHandler) Subscribe(c *gin.Context) {
	a, ok := services.AgentFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	var req httpdto.PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := h.agents.Subscribe(c.Request.Context(), a.ID, req.Endpoint, req.P256dh, req.Auth); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *AgentHandler) Unsubscribe(c *gin.Context) {
	a, ok := services.AgentFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	var req httpdto.PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := h.agents.Unsubscribe(c.Request.Context(), a.ID, req.Endpoint); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
