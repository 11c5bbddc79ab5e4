// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"time"
)

// RoleCoach marks profiles that are never auto-scheduled.
const RoleCoach = "coach"

// Profile is the owner of calendars, settings and bots.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCoach reports whether the profile has the coach role.
func (p *Profile) IsCoach() bool {
	return p != nil && p.Role == RoleCoach
}

// EmailDomain returns the lower-cased domain of the profile email, empty if it has none.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// UserSettings holds a user's join preferences.
type UserSettings struct {
	ProfileID                          string    `json:"profile_id"`
	BotName                            *string   `json:"bot_name,omitempty"`
	ShouldJoinExternalMeetings         bool      `json:"should_join_external_meetings"`
	ShouldJoinTeamMeetings             bool      `json:"should_join_team_meetings"`
	ShouldNotJoinOwnedByOthersMeetings bool      `json:"should_not_join_owned_by_others_meetings"`
	ShouldNotJoinPendingMeetings       bool      `json:"should_not_join_pending_meetings"`
	UpdatedAt                          time.Time `json:"updated_at"`
}

// DisplayBotName returns the configured bot name or fallback.
func (s *UserSettings) DisplayBotName(fallback string) string {
	if s == nil || s.BotName == nil || strings.TrimSpace(*s.BotName) == "" {
		return fallback
	}
	return *s.BotName
}
