// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package recall

import (
	"encoding/json"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// AutomaticLeave configures when a bot leaves on its own
type AutomaticLeave struct {
	WaitingRoomTimeout int `json:"waiting_room_timeout"`
	NooneJoinedTimeout int `json:"noone_joined_timeout"`
}

// TranscriptionOptions selects the transcription provider
type TranscriptionOptions struct {
	Provider string `json:"provider"`
}

// BotConfig is the bot configuration shared by ad-hoc and calendar bots
type BotConfig struct {
	BotName              string               `json:"bot_name"`
	AutomaticLeave       AutomaticLeave       `json:"automatic_leave"`
	TranscriptionOptions TranscriptionOptions `json:"transcription_options"`
	Metadata             models.BotMetadata   `json:"metadata"`
}

// CreateBotRequest is the body of POST /api/v1/bot/
type CreateBotRequest struct {
	BotConfig
	MeetingURL       string     `json:"meeting_url"`
	JoinAt           *time.Time `json:"join_at,omitempty"`
	DeduplicationKey string     `json:"deduplication_key,omitempty"`
}

// ScheduleEventBotRequest is the body of POST /api/v2/calendar-events/{id}/bot/
type ScheduleEventBotRequest struct {
	DeduplicationKey string    `json:"deduplication_key"`
	BotConfig        BotConfig `json:"bot_config"`
}

// EventBot is a bot the calendar integration holds for an event
type EventBot struct {
	BotID            string     `json:"bot_id"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	DeduplicationKey string     `json:"deduplication_key"`
	MeetingURL       string     `json:"meeting_url"`
}

// CalendarEvent is a calendar event as synced by the provider
type CalendarEvent struct {
	ID              string          `json:"id"`
	CalendarID      string          `json:"calendar_id"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	Raw             json.RawMessage `json:"raw"`
	Platform        string          `json:"platform"`
	PlatformID      string          `json:"platform_id"`
	ICalUID         string          `json:"ical_uid"`
	MeetingPlatform *string         `json:"meeting_platform"`
	MeetingURL      *string         `json:"meeting_url"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	IsDeleted       bool            `json:"is_deleted"`
	Bots            []EventBot      `json:"bots"`
}

// CalendarEventPage is one page of GET /api/v2/calendar-events/
type CalendarEventPage struct {
	Next    *string         `json:"next"`
	Results []CalendarEvent `json:"results"`
}

// Bot is the body of GET /api/v1/bot/{id}/
type Bot struct {
	ID                  string        `json:"id"`
	VideoURL            *string       `json:"video_url"`
	MeetingParticipants []Participant `json:"meeting_participants"`
}

// Participant is a meeting participant seen by the bot
type Participant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TranscriptEntry is one speaker turn of GET /api/v1/bot/{id}/transcript/
type TranscriptEntry struct {
	Speaker string           `json:"speaker"`
	Words   []TranscriptWord `json:"words"`
}

// TranscriptWord is one transcribed word
type TranscriptWord struct {
	Text           string  `json:"text"`
	StartTimestamp float64 `json:"start_timestamp"`
	EndTimestamp   float64 `json:"end_timestamp"`
}

// ToDomain converts the provider event into a CalendarEvent. ProfileID is filled by the caller.
func (e CalendarEvent) ToDomain() models.CalendarEvent {
	event := models.CalendarEvent{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		MeetingURL: e.MeetingURL,
		Platform:   models.ParseCalendarPlatform(e.Platform),
		PlatformID: e.PlatformID,
		ICalUID:    e.ICalUID,
		IsDeleted:  e.IsDeleted,
		Raw:        e.Raw,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.MeetingPlatform != nil {
		event.MeetingPlatform = models.ParseMeetingPlatform(*e.MeetingPlatform)
	}
	for _, bot := range e.Bots {
		event.ProviderBots = append(event.ProviderBots, models.ProvisionedBot{
			ID:               bot.BotID,
			DeduplicationKey: bot.DeduplicationKey,
		})
	}
	return event
}

func (t TranscriptEntry) toDomain() models.TranscriptSegment {
	segment := models.TranscriptSegment{Speaker: t.Speaker, Words: make([]models.TranscriptSegmentWord, 0, len(t.Words))}
	for _, w := range t.Words {
		segment.Words = append(segment.Words, models.TranscriptSegmentWord{
			Text:           w.Text,
			StartTimestamp: w.StartTimestamp,
			EndTimestamp:   w.EndTimestamp,
		})
	}
	return segment
}
