// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// Message represents a queued task
type Message interface {
	Subject() string
	Data() []byte
	Header(key string) string
}

// MessageHandler processes queued tasks.
// A Validation error means the message can never succeed and must not be redelivered.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message) error
	HandlerReady() bool
}

// TaskPublisher enqueues background work
type TaskPublisher interface {
	PublishEvent(ctx context.Context, envelope models.EventEnvelope) error
	PublishUploadVideo(ctx context.Context, task models.UploadVideoTask) error
}
