package httpdto

type StartConversationRequest struct {
	SiteUserID   string `json:"site_user_id,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type StartConversationResponse struct {
	Conversation ConversationView `json:"conversation"`
	Welcome      WelcomeView      `json:"welcome"`
}

type WelcomeView struct {
	AgentAvailable bool   `json:"agent_available"`
	WelcomeMessage string `json:"welcome_message,omitempty"`
}

type PollRequest struct {
	After string `json:"after,omitempty" form:"after"`
}

type PollResponse struct {
	Messages    []MessageView `json:"messages"`
	AgentOnline bool          `json:"agent_online"`
	AgentTyping bool          `json:"agent_typing"`
}

type TypingRequest struct {
	IsTyping bool `json:"is_typing"`
}
