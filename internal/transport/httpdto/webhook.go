package httpdto

// WhatsAppWebhook is the provider's notification envelope. Only the fields
// the bridge needs are mapped; everything else is ignored.
type WhatsAppWebhook struct {
	TypeWebhook string `json:"typeWebhook"`
	IDMessage   string `json:"idMessage"`
	Status      string `json:"status,omitempty"`

	SenderData struct {
		ChatID     string `json:"chatId"`
		SenderName string `json:"senderName"`
	} `json:"senderData"`

	MessageData struct {
		TypeMessage     string `json:"typeMessage"`
		TextMessageData struct {
			TextMessage string `json:"textMessage"`
		} `json:"textMessageData"`
		ExtendedTextMessageData struct {
			Text string `json:"text"`
		} `json:"extendedTextMessageData"`
	} `json:"messageData"`
}

// Text returns the message body regardless of which variant the provider
// used.
func (w WhatsAppWebhook) Text() string {
	if w.MessageData.TextMessageData.TextMessage != "" {
		return w.MessageData.TextMessageData.TextMessage
	}
	return w.MessageData.ExtendedTextMessageData.Text
}
