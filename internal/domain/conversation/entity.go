package conversation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Conversation status values
const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusClosed  = "closed"
)

// Contact channel values
const (
	ContactNone     = "none"
	ContactEmail    = "email"
	ContactWhatsApp = "whatsapp"
)

// Conversation represents the conversations table. The aggregate fields
// (LastMessageAt, LastMessagePreview, UnreadCount) are denormalized from the
// message log and mutated only inside the same transaction as a message
// insert.
//
// LastReadAtCustomer doubles as the customer presence heartbeat: the widget
// refreshes it on every poll, so "customer read everything" and "customer is
// here" are the same timestamp.
type Conversation struct {
	ID uuid.UUID

	// Customer identity, one of the two, immutable once set.
	SiteUserID sql.NullString `gorm:"index"`
	DeviceID   sql.NullString `gorm:"index"`

	CustomerName sql.NullString
	ContactType  string         `gorm:"default:none"`
	GuestContact sql.NullString // email address when ContactType is email
	WaPhone      sql.NullString

	Status     string `gorm:"default:active;index"`
	IsArchived bool   `gorm:"default:false"`

	LastMessageAt      sql.NullTime
	LastMessagePreview sql.NullString
	UnreadCount        int `gorm:"default:0"`

	LastReadAtCustomer sql.NullTime
	LastReadAtAgent    sql.NullTime

	WaChatID        sql.NullString `gorm:"index"`
	MovedToWhatsApp bool           `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

// SessionTokenLen is the number of leading hex characters of the conversation
// id embedded in outbound WhatsApp text for reply correlation. Eight hex
// characters give ~4 billion combinations; prefix collisions are an accepted
// risk at support-desk conversation volumes.
const SessionTokenLen = 8

// SessionToken returns the short token correlating outbound WhatsApp messages
// back to this conversation.
func (c Conversation) SessionToken() string {
	s := c.ID.String()
	if len(s) < SessionTokenLen {
		return s
	}
	return s[:SessionTokenLen]
}
