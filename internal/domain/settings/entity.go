package settings

import (
	"encoding/json"
	"time"
)

// WorkspaceSettings is the single settings row for a support desk.
// BusinessHours holds the weekly schedule as JSON keyed by lowercase weekday
// name; a missing or null entry means closed all day.
type WorkspaceSettings struct {
	ID             int `gorm:"primaryKey"`
	Timezone       string
	BusinessHours  string // JSON, see WeeklySchedule
	WelcomeMessage string

	UpdatedAt time.Time
}

func (WorkspaceSettings) TableName() string {
	return "workspace_settings"
}

// DaySchedule is an open interval for one weekday, zero-padded 24-hour
// "HH:MM" strings. Ranges spanning midnight are not supported.
type DaySchedule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklySchedule maps lowercase weekday names to their open hours.
type WeeklySchedule map[string]*DaySchedule

// Schedule parses the stored BusinessHours JSON. An empty column yields an
// empty schedule (closed every day).
func (s WorkspaceSettings) Schedule() (WeeklySchedule, error) {
	if s.BusinessHours == "" {
		return WeeklySchedule{}, nil
	}
	var sched WeeklySchedule
	if err := json.Unmarshal([]byte(s.BusinessHours), &sched); err != nil {
		return nil, err
	}
	return sched, nil
}
