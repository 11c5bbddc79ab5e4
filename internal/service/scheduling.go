// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

// Reasons reported by ShouldSchedule
const (
	ReasonDeletedOrNoURL   = "event deleted or missing meeting url"
	ReasonNoUserSettings   = "no user settings"
	ReasonNoUserEmail      = "no user email"
	ReasonUnparseableEvent = "raw event could not be parsed"
	ReasonPending          = "pending meeting"
	ReasonNotOrganizer     = "not organizer"
	ReasonTeamMeeting      = "internal meeting"
	ReasonExternalMeeting  = "external meeting"
)

// AttendanceFlags are the facts about the user derived from the event attendee list
type AttendanceFlags struct {
	IsOrganizer bool
	IsPending   bool
	IsInternal  bool
}

// SchedulingDecision is the outcome of ShouldSchedule
type SchedulingDecision struct {
	Schedule bool
	Reason   string
	Flags    AttendanceFlags
	// Err is set when the raw event payload could not be parsed
	Err error
}

// ShouldSchedule decides whether a bot joins the event on behalf of the user.
// Exclusions are evaluated before inclusions and short-circuit.
func ShouldSchedule(event *models.CalendarEvent, settings *models.UserSettings, userEmail string) SchedulingDecision {
	if event == nil || event.IsDeleted || !event.HasMeetingURL() {
		return SchedulingDecision{Reason: ReasonDeletedOrNoURL}
	}
	if settings == nil {
		return SchedulingDecision{Reason: ReasonNoUserSettings}
	}
	if strings.TrimSpace(userEmail) == "" {
		return SchedulingDecision{Reason: ReasonNoUserEmail}
	}

	raw, err := models.ParseGoogleCalendarEvent(event.Raw)
	if err != nil {
		return SchedulingDecision{Reason: ReasonUnparseableEvent, Err: err}
	}

	flags := DeriveAttendance(raw, userEmail)
	schedule, reason := Decide(flags, *settings)
	return SchedulingDecision{Schedule: schedule, Reason: reason, Flags: flags}
}

// DeriveAttendance computes the organizer, pending and internal flags for userEmail.
// An event without attendees is internal.
func DeriveAttendance(raw *models.GoogleCalendarEvent, userEmail string) AttendanceFlags {
	var flags AttendanceFlags
	userDomain := models.EmailDomain(userEmail)

	if raw.Organizer != nil {
		flags.IsOrganizer = strings.EqualFold(raw.Organizer.Email, userEmail)
	}
	if attendee := raw.AttendeeByEmail(userEmail); attendee != nil {
		flags.IsPending = attendee.ResponseStatus == models.ResponseStatusNeedsAction
	}

	flags.IsInternal = true
	for _, attendee := range raw.Attendees {
		if models.EmailDomain(attendee.Email) != userDomain {
			flags.IsInternal = false
			break
		}
	}
	return flags
}

// Decide applies the user join preferences to the attendance flags
func Decide(flags AttendanceFlags, settings models.UserSettings) (bool, string) {
	if settings.ShouldNotJoinPendingMeetings && flags.IsPending {
		return false, ReasonPending
	}
	if settings.ShouldNotJoinOwnedByOthersMeetings && !flags.IsOrganizer {
		return false, ReasonNotOrganizer
	}
	if flags.IsInternal {
		return settings.ShouldJoinTeamMeetings, ReasonTeamMeeting
	}
	return settings.ShouldJoinExternalMeetings, ReasonExternalMeeting
}

// DeduplicationKey derives the idempotency key of a bot from its start time floored
// to the scheduling granularity in UTC, the meeting url and the owning profile.
// Distinct (url, profile) pairs always give distinct keys.
func DeduplicationKey(startTime time.Time, meetingURL, profileID string) string {
	rounded := startTime.UTC().Truncate(constants.DeduplicationGranularity)
	return strings.Join([]string{
		rounded.Format(constants.DeduplicationTimeLayout),
		url.QueryEscape(meetingURL),
		url.QueryEscape(profileID),
	}, constants.DeduplicationSeparator)
}

// BotName returns the display name of the user's bots
func BotName(settings *models.UserSettings) string {
	return settings.DisplayBotName(constants.DefaultBotName)
}
