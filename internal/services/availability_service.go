package services

import (
	"context"
	"strings"
	"time"

	"support-chat/internal/domain/settings"
	"support-chat/internal/repository"
)

// AvailabilityService computes the customer-facing "agents available" signal:
// somebody must be online AND the desk must be inside its business hours.
type AvailabilityService struct {
	settingsRepo repository.SettingsRepository
	presence     *PresenceService
}

func NewAvailabilityService(settingsRepo repository.SettingsRepository, presence *PresenceService) *AvailabilityService {
	return &AvailabilityService{settingsRepo: settingsRepo, presence: presence}
}

// IsWithinBusinessHours projects now into the desk timezone and compares the
// local HH:MM against that weekday's schedule entry. Zero-padded 24-hour
// strings sort identically to numeric order, so plain string comparison is
// correct. Ranges spanning midnight are not supported and will always read
// as closed for the early-morning part.
func IsWithinBusinessHours(sched settings.WeeklySchedule, timezone string, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return false, err
	}

	local := now.In(loc)
	day := strings.ToLower(local.Weekday().String())
	entry, ok := sched[day]
	if !ok || entry == nil {
		return false, nil
	}

	hm := local.Format("15:04")
	return entry.Start <= hm && hm <= entry.End, nil
}

// AgentAvailable is the composite signal for the widget welcome flow. An
// online agent outside business hours still reports unavailable.
func (s *AvailabilityService) AgentAvailable(ctx context.Context, now time.Time) (bool, error) {
	online, err := s.presence.AnyAgentOnline(ctx, now)
	if err != nil {
		return false, err
	}
	if !online {
		return false, nil
	}

	ws, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return false, err
	}
	sched, err := ws.Schedule()
	if err != nil {
		return false, err
	}
	return IsWithinBusinessHours(sched, ws.Timezone, now)
}

// WelcomeInfo is what the widget needs before the first message.
type WelcomeInfo struct {
	AgentAvailable bool
	WelcomeMessage string
}

func (s *AvailabilityService) Welcome(ctx context.Context, now time.Time) (WelcomeInfo, error) {
	available, err := s.AgentAvailable(ctx, now)
	if err != nil {
		return WelcomeInfo{}, err
	}
	ws, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return WelcomeInfo{}, err
	}
	return WelcomeInfo{AgentAvailable: available, WelcomeMessage: ws.WelcomeMessage}, nil
}
