// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// MeetingPlatform is the conferencing product an event's meeting URL points to.
type MeetingPlatform string

const (
	MeetingPlatformChimeSDK            MeetingPlatform = "chime_sdk"
	MeetingPlatformGoogleMeet          MeetingPlatform = "google_meet"
	MeetingPlatformGoToMeeting         MeetingPlatform = "goto_meeting"
	MeetingPlatformMicrosoftTeamsLive  MeetingPlatform = "microsoft_teams_live"
	MeetingPlatformMicrosoftTeams      MeetingPlatform = "microsoft_teams"
	MeetingPlatformSlackHuddleObserver MeetingPlatform = "slack_huddle_observer"
	MeetingPlatformWebex               MeetingPlatform = "webex"
	MeetingPlatformWebRTC              MeetingPlatform = "webrtc"
	MeetingPlatformZoom                MeetingPlatform = "zoom"
)

// ParseMeetingPlatform returns nil for empty or unknown values.
func ParseMeetingPlatform(raw string) *MeetingPlatform {
	p := MeetingPlatform(raw)
	switch p {
	case MeetingPlatformChimeSDK, MeetingPlatformGoogleMeet, MeetingPlatformGoToMeeting,
		MeetingPlatformMicrosoftTeamsLive, MeetingPlatformMicrosoftTeams,
		MeetingPlatformSlackHuddleObserver, MeetingPlatformWebex, MeetingPlatformWebRTC,
		MeetingPlatformZoom:
		return &p
	}
	return nil
}

// CalendarPlatform is the calendar product a connected calendar lives on.
type CalendarPlatform string

const (
	CalendarPlatformGoogle    CalendarPlatform = "google_calendar"
	CalendarPlatformMicrosoft CalendarPlatform = "microsoft_outlook"
)

// ParseCalendarPlatform returns nil for empty or unknown values.
func ParseCalendarPlatform(raw string) *CalendarPlatform {
	p := CalendarPlatform(raw)
	if p == CalendarPlatformGoogle || p == CalendarPlatformMicrosoft {
		return &p
	}
	return nil
}

// Calendar is a calendar connection owned by a profile.
type Calendar struct {
	ID            string            `json:"id"`
	ProfileID     string            `json:"profile_id"`
	Platform      *CalendarPlatform `json:"platform,omitempty"`
	PlatformEmail string            `json:"platform_email,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CalendarEvent is one occurrence on a connected calendar.
type CalendarEvent struct {
	ID              string            `json:"id"`
	CalendarID      string            `json:"calendar_id"`
	ProfileID       string            `json:"profile_id"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	MeetingURL      *string           `json:"meeting_url,omitempty"`
	MeetingPlatform *MeetingPlatform  `json:"meeting_platform,omitempty"`
	Platform        *CalendarPlatform `json:"platform,omitempty"`
	PlatformID      string            `json:"platform_id,omitempty"`
	ICalUID         string            `json:"ical_uid,omitempty"`
	IsDeleted       bool              `json:"is_deleted"`
	Raw             json.RawMessage   `json:"raw,omitempty"`
	NextOccurrence  *time.Time        `json:"next_occurrence,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// ProviderBots lists the bots the calendar provider already holds for this event.
	ProviderBots []ProvisionedBot `json:"-"`
}

// HasMeetingURL reports whether the event carries a joinable meeting URL.
func (e *CalendarEvent) HasMeetingURL() bool {
	return e.MeetingURL != nil && strings.TrimSpace(*e.MeetingURL) != ""
}

// IsPlatform reports whether the event's meeting runs on the given platform.
func (e *CalendarEvent) IsPlatform(platform MeetingPlatform) bool {
	return e.MeetingPlatform != nil && *e.MeetingPlatform == platform
}

// Attendee response statuses used by Google Calendar.
const (
	ResponseStatusNeedsAction = "needsAction"
	ResponseStatusAccepted    = "accepted"
	ResponseStatusDeclined    = "declined"
	ResponseStatusTentative   = "tentative"
)

// CalendarPerson is an organizer or attendee of a Google Calendar event.
type CalendarPerson struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Self           bool   `json:"self,omitempty"`
}

// GoogleCalendarEvent is the part of a raw Google Calendar payload the scheduler reads.
type GoogleCalendarEvent struct {
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Organizer   *CalendarPerson  `json:"organizer"`
	Attendees   []CalendarPerson `json:"attendees"`
	Recurrence  []string         `json:"recurrence"`
}

// ErrEmptyRawEvent is returned when an event carries no raw payload.
var ErrEmptyRawEvent = errors.New("raw calendar event payload is empty")

// ParseGoogleCalendarEvent decodes a raw payload, failing on anything that is not a well-formed event object.
func ParseGoogleCalendarEvent(raw json.RawMessage) (*GoogleCalendarEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyRawEvent
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("raw calendar event payload is not an object")
	}

	var event GoogleCalendarEvent
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, fmt.Errorf("failed to decode raw calendar event: %w", err)
	}
	return &event, nil
}

// AttendeeByEmail finds the attendee entry for email, case-insensitively.
func (g *GoogleCalendarEvent) AttendeeByEmail(email string) *CalendarPerson {
	for i := range g.Attendees {
		if strings.EqualFold(g.Attendees[i].Email, email) {
			return &g.Attendees[i]
		}
	}
	return nil
}

// NextOccurrence returns the first occurrence of the event's RRULE series strictly after start.
// Nil means the event does not recur or the series has ended.
func (g *GoogleCalendarEvent) NextOccurrence(start time.Time) (*time.Time, error) {
	set := rrule.Set{}
	found := false
	for _, line := range g.Recurrence {
		if !strings.HasPrefix(strings.ToUpper(line), "RRULE:") {
			continue
		}
		rule, err := rrule.StrToRRule(line[len("RRULE:"):])
		if err != nil {
			return nil, fmt.Errorf("failed to parse recurrence rule %q: %w", line, err)
		}
		rule.DTStart(start)
		set.RRule(rule)
		found = true
	}
	if !found {
		return nil, nil
	}

	next := set.After(start, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// Title returns the event summary or fallback when it is empty.
func (g *GoogleCalendarEvent) Title(fallback string) string {
	if g == nil || strings.TrimSpace(g.Summary) == "" {
		return fallback
	}
	return g.Summary
}
