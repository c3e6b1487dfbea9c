package httpdto

import (
	"time"

	"support-chat/internal/domain/conversation"
)

type ConversationView struct {
	ID           string `json:"id"`
	CustomerName string `json:"customer_name,omitempty"`
	ContactType  string `json:"contact_type"`
	GuestContact string `json:"guest_contact,omitempty"`
	WaPhone      string `json:"wa_phone,omitempty"`

	Status     string `json:"status"`
	IsArchived bool   `json:"is_archived"`

	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview string     `json:"last_message_preview,omitempty"`
	UnreadCount        int        `json:"unread_count"`

	CustomerOnline  bool `json:"customer_online"`
	MovedToWhatsApp bool `json:"moved_to_whatsapp"`

	CreatedAt time.Time `json:"created_at"`
}

func FromConversation(c conversation.Conversation, customerOnline bool) ConversationView {
	view := ConversationView{
		ID:                 c.ID.String(),
		CustomerName:       c.CustomerName.String,
		ContactType:        c.ContactType,
		GuestContact:       c.GuestContact.String,
		WaPhone:            c.WaPhone.String,
		Status:             c.Status,
		IsArchived:         c.IsArchived,
		LastMessagePreview: c.LastMessagePreview.String,
		UnreadCount:        c.UnreadCount,
		CustomerOnline:     customerOnline,
		MovedToWhatsApp:    c.MovedToWhatsApp,
		CreatedAt:          c.CreatedAt,
	}
	if c.LastMessageAt.Valid {
		t := c.LastMessageAt.Time
		view.LastMessageAt = &t
	}
	return view
}

type ConversationListResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int64              `json:"total"`
}

type SetContactRequest struct {
	ContactType  string `json:"contact_type"`
	GuestContact string `json:"guest_contact,omitempty"`
	WaPhone      string `json:"wa_phone,omitempty"`
}

type ArchiveRequest struct {
	Archived bool `json:"archived"`
}
