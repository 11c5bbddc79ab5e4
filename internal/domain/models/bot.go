// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"slices"
	"time"
)

// Provider identifies the external recording service that owns a bot.
type Provider string

const (
	// ProviderRecall handles Google Meet and any non-Zoom meeting
	ProviderRecall Provider = "recall"
	// ProviderMeetingBaas handles Zoom meetings
	ProviderMeetingBaas Provider = "meeting_baas"
)

// IsValid reports whether p is a known provider.
func (p Provider) IsValid() bool {
	return p == ProviderRecall || p == ProviderMeetingBaas
}

// BotStatusCode is the lifecycle status reported by a provider.
type BotStatusCode string

const (
	BotStatusJoiningCall                BotStatusCode = "joining_call"
	BotStatusInWaitingRoom              BotStatusCode = "in_waiting_room"
	BotStatusInWaitingForHost           BotStatusCode = "in_waiting_for_host"
	BotStatusInCallNotRecording         BotStatusCode = "in_call_not_recording"
	BotStatusInCallRecording            BotStatusCode = "in_call_recording"
	BotStatusRecordingPermissionAllowed BotStatusCode = "recording_permission_allowed"
	BotStatusRecordingPermissionDenied  BotStatusCode = "recording_permission_denied"
	BotStatusCallEnded                  BotStatusCode = "call_ended"
	BotStatusRecordingDone              BotStatusCode = "recording_done"
	BotStatusDone                       BotStatusCode = "done"
	BotStatusFatal                      BotStatusCode = "fatal"
	BotStatusAnalysisDone               BotStatusCode = "analysis_done"
	BotStatusAnalysisFailed             BotStatusCode = "analysis_failed"
	BotStatusMediaExpired               BotStatusCode = "media_expired"
	BotStatusReady                      BotStatusCode = "ready"
)

var knownBotStatusCodes = []BotStatusCode{
	BotStatusJoiningCall,
	BotStatusInWaitingRoom,
	BotStatusInWaitingForHost,
	BotStatusInCallNotRecording,
	BotStatusInCallRecording,
	BotStatusRecordingPermissionAllowed,
	BotStatusRecordingPermissionDenied,
	BotStatusCallEnded,
	BotStatusRecordingDone,
	BotStatusDone,
	BotStatusFatal,
	BotStatusAnalysisDone,
	BotStatusAnalysisFailed,
	BotStatusMediaExpired,
	BotStatusReady,
}

// IsValid reports whether the code belongs to the known status vocabulary.
func (c BotStatusCode) IsValid() bool {
	return slices.Contains(knownBotStatusCodes, c)
}

// IsTerminal reports whether no further status transition is accepted.
func (c BotStatusCode) IsTerminal() bool {
	return c == BotStatusDone || c == BotStatusFatal
}

// BotErrorCode is the canonical failure reason of a bot.
type BotErrorCode string

const (
	BotErrorCannotJoinMeeting     BotErrorCode = "CannotJoinMeeting"
	BotErrorTimeoutWaitingToStart BotErrorCode = "TimeoutWaitingToStart"
	BotErrorBotNotAccepted        BotErrorCode = "BotNotAccepted"
	BotErrorInternalError         BotErrorCode = "InternalError"
	BotErrorInvalidMeetingURL     BotErrorCode = "InvalidMeetingUrl"
)

// waitingRoomTimeoutSpelling is how meeting-baas reports a waiting room timeout.
const waitingRoomTimeoutSpelling = "Waiting room timeout"

// ParseBotErrorCode maps a provider failure string onto the canonical error codes.
func ParseBotErrorCode(raw string) (BotErrorCode, error) {
	if raw == waitingRoomTimeoutSpelling {
		return BotErrorTimeoutWaitingToStart, nil
	}
	code := BotErrorCode(raw)
	switch code {
	case BotErrorCannotJoinMeeting, BotErrorTimeoutWaitingToStart, BotErrorBotNotAccepted,
		BotErrorInternalError, BotErrorInvalidMeetingURL:
		return code, nil
	}
	return "", fmt.Errorf("unknown bot error code %q", raw)
}

// Bot is one recording session, owned by a provider and tracked locally.
type Bot struct {
	ID               string         `json:"id"`
	Provider         Provider       `json:"provider"`
	Status           *BotStatusCode `json:"status,omitempty"`
	SubCode          *string        `json:"sub_code,omitempty"`
	Message          *string        `json:"message,omitempty"`
	ErrorCode        *BotErrorCode  `json:"error_code,omitempty"`
	RecordingID      *string        `json:"recording_id,omitempty"`
	ProfileID        string         `json:"profile_id"`
	EventID          *string        `json:"event_id,omitempty"`
	CalendarID       *string        `json:"calendar_id,omitempty"`
	IsRemoved        bool           `json:"is_removed"`
	Speakers         []string       `json:"speakers,omitempty"`
	MP4SourceURL     *string        `json:"mp4_source_url,omitempty"`
	HostedVideoID    *string        `json:"hosted_video_id,omitempty"`
	DeduplicationKey string         `json:"deduplication_key"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// CurrentStatus returns the stored status or the empty code when none was reported yet.
func (b *Bot) CurrentStatus() BotStatusCode {
	if b == nil || b.Status == nil {
		return ""
	}
	return *b.Status
}

// IsDone reports whether the bot has already reached the done status.
func (b *Bot) IsDone() bool {
	return b.CurrentStatus() == BotStatusDone
}

// BotPatch is a partial update. Nil fields are left untouched.
type BotPatch struct {
	Status        *BotStatusCode
	SubCode       *string
	Message       *string
	ErrorCode     *BotErrorCode
	RecordingID   *string
	IsRemoved     *bool
	Speakers      []string
	MP4SourceURL  *string
	HostedVideoID *string
}

// IsEmpty reports whether the patch would change nothing.
func (p BotPatch) IsEmpty() bool {
	return p.Status == nil && p.SubCode == nil && p.Message == nil && p.ErrorCode == nil &&
		p.RecordingID == nil && p.IsRemoved == nil && p.Speakers == nil &&
		p.MP4SourceURL == nil && p.HostedVideoID == nil
}

// Apply merges the present fields into bot.
// A terminal status is never replaced, the other fields still merge.
func (p BotPatch) Apply(bot *Bot) {
	if p.Status != nil && !bot.CurrentStatus().IsTerminal() {
		status := *p.Status
		bot.Status = &status
	}
	if p.SubCode != nil {
		bot.SubCode = p.SubCode
	}
	if p.Message != nil {
		bot.Message = p.Message
	}
	if p.ErrorCode != nil {
		bot.ErrorCode = p.ErrorCode
	}
	if p.RecordingID != nil {
		bot.RecordingID = p.RecordingID
	}
	if p.IsRemoved != nil {
		bot.IsRemoved = *p.IsRemoved
	}
	if p.Speakers != nil {
		bot.Speakers = slices.Clone(p.Speakers)
	}
	if p.MP4SourceURL != nil {
		bot.MP4SourceURL = p.MP4SourceURL
	}
	if p.HostedVideoID != nil {
		bot.HostedVideoID = p.HostedVideoID
	}
}

// BotMetadata is attached to provider bots so webhooks can be traced back to a user and event.
type BotMetadata struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id,omitempty"`
}

// CreateBotRequest is the provider-independent description of a bot to provision.
type CreateBotRequest struct {
	BotName          string
	MeetingURL       string
	StartTime        *time.Time
	DeduplicationKey string
	Metadata         BotMetadata
	// EventID targets a provider-side calendar event when the provider schedules through calendars.
	EventID string
	// Reserved asks the provider to reserve capacity ahead of a scheduled start.
	Reserved bool
}

// ProvisionedBot is a bot the provider accepted.
type ProvisionedBot struct {
	ID               string
	DeduplicationKey string
}

// ProviderBot is the provider-side view of a bot once it has recorded.
type ProviderBot struct {
	ID           string
	VideoURL     string
	Participants []string
}
