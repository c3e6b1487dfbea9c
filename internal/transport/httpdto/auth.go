package httpdto

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	AgentID     string `json:"agent_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

type NotificationPrefsRequest struct {
	NotifyPush     bool   `json:"notify_push"`
	NotifyWhatsApp bool   `json:"notify_whatsapp"`
	WaPhone        string `json:"wa_phone,omitempty"`
}

type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}
