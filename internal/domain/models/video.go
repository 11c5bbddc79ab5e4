// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Hosted video metadata keys.
const (
	VideoMetadataUserID  = "user_id"
	VideoMetadataEventID = "event_id"
	VideoMetadataBotID   = "meeting_bot_id"
)

// MetadataEntry is one key/value pair attached to a hosted video.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HostedVideo is a recording on the video hosting service.
type HostedVideo struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Metadata    []MetadataEntry `json:"metadata,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
}

// CreateHostedVideoRequest describes a video to create from a source URL.
type CreateHostedVideoRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source"`
	MP4Support  bool            `json:"mp4Support"`
	Tags        []string        `json:"tags"`
	Metadata    []MetadataEntry `json:"metadata"`
}

// StoredRecording describes an object held in durable storage.
type StoredRecording struct {
	Name        string
	Size        uint64
	ContentType string
	Metadata    map[string]string
	ModifiedAt  time.Time
}
