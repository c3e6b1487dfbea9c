package message

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender types
const (
	SenderCustomer = "customer"
	SenderAgent    = "agent"
	SenderSystem   = "system"
)

// Message sources
const (
	SourceWidget    = "widget"
	SourceDashboard = "dashboard"
	SourceWhatsApp  = "whatsapp"
)

// Delivery statuses, a strictly forward chain.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message represents the messages table. Messages are append-only: only
// Status and WaStatus change after insert, and Status only moves forward.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID `gorm:"index;uniqueIndex:idx_conversation_client_msg,priority:1"`
	SenderType     string
	Source         string
	Content        string

	// Client-supplied idempotency key, unique per conversation. The unique
	// index is what closes the race between two concurrent identical retries.
	ClientMessageID sql.NullString `gorm:"uniqueIndex:idx_conversation_client_msg,priority:2"`

	Status string `gorm:"default:sent"`

	FileURL     sql.NullString
	FileName    sql.NullString
	FileSize    sql.NullInt64
	FileMime    sql.NullString
	MessageType string `gorm:"default:text"`

	WaMessageID sql.NullString `gorm:"index"`
	WaStatus    sql.NullString

	CreatedAt time.Time
}

func (Message) TableName() string {
	return "messages"
}

var statusRank = map[string]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// CanTransition reports whether a delivery status may move from one value to
// another. Regressions are never allowed.
func CanTransition(from, to string) bool {
	f, ok := statusRank[from]
	if !ok {
		return false
	}
	t, ok := statusRank[to]
	if !ok {
		return false
	}
	return t > f
}

// PreviewMaxLen limits the conversation's last-message preview.
const PreviewMaxLen = 100

var typeGlyphs = map[string]string{
	"image": "📷 image",
	"video": "🎥 video",
	"audio": "🎵 audio",
	"file":  "📄 file",
}

// Preview returns the truncated preview text stored on the owning
// conversation. Attachment messages substitute a type glyph, with the caption
// appended when present.
func (m Message) Preview() string {
	text := m.Content
	if m.MessageType != "" && m.MessageType != "text" {
		glyph, ok := typeGlyphs[m.MessageType]
		if !ok {
			glyph = typeGlyphs["file"]
		}
		if strings.TrimSpace(m.Content) != "" {
			text = glyph + ": " + m.Content
		} else {
			text = glyph
		}
	}
	runes := []rune(text)
	if len(runes) > PreviewMaxLen {
		return string(runes[:PreviewMaxLen])
	}
	return text
}

// TypeForMime maps an attachment MIME type to the stored message type.
func TypeForMime(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	default:
		return "file"
	}
}
