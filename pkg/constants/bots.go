// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Bot scheduling defaults
const (
	// DefaultBotName is used when the user has not configured a bot name
	DefaultBotName = "Notetaker"

	// DefaultBotImage is the avatar meeting-baas bots join with
	DefaultBotImage = "https://i.ibb.co/jbZmcsG/Slide-16-9-1.jpg"

	// WaitingRoomTimeoutSeconds is how long a bot waits in a waiting room before leaving
	WaitingRoomTimeoutSeconds = 60 * 60

	// NooneJoinedTimeoutSeconds is how long a bot waits for a participant before leaving
	NooneJoinedTimeoutSeconds = 60 * 60

	// DeduplicationGranularity is the rounding applied to start times in deduplication keys
	DeduplicationGranularity = 5 * time.Minute

	// DeduplicationTimeLayout is the layout of the time part of a deduplication key
	DeduplicationTimeLayout = "2006-01-02T15:04:05Z"

	// DeduplicationSeparator joins the parts of a deduplication key. Parts are query
	// escaped so the separator never appears inside one.
	DeduplicationSeparator = "|"

	// ZoomHost identifies meeting URLs that must be joined through meeting-baas
	ZoomHost = "zoom.us"
)

// Storage defaults
const (
	// RecordingsBucket is the object store bucket recordings are uploaded to
	RecordingsBucket = "meetings"

	// RecordingContentType is the content type of uploaded recordings
	RecordingContentType = "video/mp4"

	// RecordingFileExtension is appended to the bot id to build the object name
	RecordingFileExtension = ".mp4"
)

// RecordingObjectName returns the object name of a bot's recording.
func RecordingObjectName(botID string) string {
	return botID + RecordingFileExtension
}
