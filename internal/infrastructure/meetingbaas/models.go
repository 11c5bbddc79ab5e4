// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package meetingbaas

import "github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"

// RecordingModeSpeakerView records the active speaker
const RecordingModeSpeakerView = "speaker_view"

// SpeechToTextDefault selects the provider default transcription engine
const SpeechToTextDefault = "Default"

// JoinRequest is the body of POST /bots
type JoinRequest struct {
	BotName          string             `json:"bot_name"`
	BotImage         string             `json:"bot_image,omitempty"`
	MeetingURL       string             `json:"meeting_url"`
	StartTime        *int64             `json:"start_time,omitempty"`
	Reserved         bool               `json:"reserved"`
	DeduplicationKey string             `json:"deduplication_key"`
	RecordingMode    string             `json:"recording_mode"`
	SpeechToText     SpeechToText       `json:"speech_to_text"`
	AutomaticLeave   AutomaticLeave     `json:"automatic_leave"`
	Extra            models.BotMetadata `json:"extra"`
}

// SpeechToText selects the transcription engine
type SpeechToText struct {
	Provider string `json:"provider"`
}

// AutomaticLeave configures when a bot leaves on its own
type AutomaticLeave struct {
	WaitingRoomTimeout int `json:"waiting_room_timeout"`
	NooneJoinedTimeout int `json:"noone_joined_timeout"`
}

// JoinResponse is the response of POST /bots
type JoinResponse struct {
	BotID string `json:"bot_id"`
}

// MeetingData is the response of GET /bots/meeting_data
type MeetingData struct {
	BotData struct {
		Bot struct {
			DeduplicationKey *string `json:"deduplication_key"`
		} `json:"bot"`
	} `json:"bot_data"`
}
