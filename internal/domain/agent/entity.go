package agent

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Agent represents the agents table. Presence (IsOnline, LastSeenAt) is
// heartbeat-driven and decoupled from the auth session; it lives on the row
// so that every server instance sees the same state.
type Agent struct {
	ID           uuid.UUID
	AuthID       string `gorm:"uniqueIndex"`
	Email        string `gorm:"uniqueIndex"`
	Name         string
	PasswordHash string
	Role         string `gorm:"default:agent"`
	IsActive     bool   `gorm:"default:true"`

	IsOnline   bool `gorm:"default:false"`
	LastSeenAt sql.NullTime

	NotifyPush     bool `gorm:"default:false"`
	NotifyWhatsApp bool `gorm:"default:false"`
	WaPhone        sql.NullString

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Agent) TableName() string {
	return "agents"
}

// PushSubscription is one browser/device push endpoint for an agent.
type PushSubscription struct {
	ID       uuid.UUID
	AgentID  uuid.UUID `gorm:"index"`
	Endpoint string    `gorm:"uniqueIndex"`
	P256dh   string
	Auth     string

	CreatedAt time.Time
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
