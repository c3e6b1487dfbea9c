package httpdto

import (
	"time"

	"support-chat/internal/domain/message"
)

type SendMessageRequest struct {
	Content     string `json:"content"`
	ClientMsgID string `json:"client_message_id"`

	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileMime string `json:"file_mime,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type MessageView struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderType     string `json:"sender_type"`
	Source         string `json:"source"`
	Content        string `json:"content"`
	Status         string `json:"status"`
	MessageType    string `json:"message_type"`

	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileMime string `json:"file_mime,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	ClientMsgID string    `json:"client_message_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromMessage(m message.Message) MessageView {
	return MessageView{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderType:     m.SenderType,
		Source:         m.Source,
		Content:        m.Content,
		Status:         m.Status,
		MessageType:    m.MessageType,
		FileURL:        m.FileURL.String,
		FileName:       m.FileName.String,
		FileMime:       m.FileMime.String,
		FileSize:       m.FileSize.Int64,
		ClientMsgID:    m.ClientMessageID.String,
		CreatedAt:      m.CreatedAt,
	}
}

func FromMessages(ms []message.Message) []MessageView {
	views := make([]MessageView, 0, len(ms))
	for _, m := range ms {
		views = append(views, FromMessage(m))
	}
	return views
}

type SendMessageResponse struct {
	Message      MessageView `json:"message"`
	Deduplicated bool        `json:"deduplicated"`
}
