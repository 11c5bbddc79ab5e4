// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"io"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// VideoHosting is the video hosting service recordings are published to.
type VideoHosting interface {
	// FindByBotID returns the newest hosted video tagged with the bot id, nil when there is none.
	FindByBotID(ctx context.Context, botID string) (*models.HostedVideo, error)
	CreateVideo(ctx context.Context, request models.CreateHostedVideoRequest) (*models.HostedVideo, error)
}

// RecordingStorage is durable object storage for source recordings.
type RecordingStorage interface {
	PutRecording(ctx context.Context, name string, content io.Reader, metadata map[string]string) (*models.StoredRecording, error)
	OpenRecording(ctx context.Context, name string) (io.ReadCloser, *models.StoredRecording, error)
	// PublicURL is deterministic and known before the upload finishes.
	PublicURL(name string) string
}

// SourceFetcher downloads provider recordings.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
	// Probe reports whether the recording can be downloaded without transferring it.
	Probe(ctx context.Context, url string) error
}

// VideoProcessor hands a hosted recording to downstream analysis.
type VideoProcessor interface {
	ProcessVideo(ctx context.Context, botID string) error
}

// Severity selects how a notification is rendered.
type Severity string

const (
	SeveritySend    Severity = "send"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
	SeverityDone    Severity = "done"
)

// Notifier posts operational messages. Delivery failures are never returned.
type Notifier interface {
	Send(ctx context.Context, severity Severity, text string)
}

// WebhookValidator verifies the signature of an inbound webhook body
type WebhookValidator interface {
	ValidateSignature(body []byte, signature, timestamp string) error
}
