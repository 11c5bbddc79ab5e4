// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultDuplicateWindow is how long the task stream remembers message ids.
const DefaultDuplicateWindow = 10 * time.Minute

// IJetStreamPublisher is the part of a JetStream context the publisher needs.
type IJetStreamPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// TaskPublisher enqueues bot tasks on the JetStream task stream.
type TaskPublisher struct {
	js       IJetStreamPublisher
	encoding Encoding
}

// NewTaskPublisher creates a new TaskPublisher.
func NewTaskPublisher(js IJetStreamPublisher, encoding Encoding) *TaskPublisher {
	return &TaskPublisher{js: js, encoding: encoding}
}

// EventSubject returns the subject an event envelope is routed to.
func EventSubject(kind models.EventKind) string {
	if kind == models.EventKindCalendarSync {
		return constants.CalendarSyncSubject
	}
	return constants.BotEventSubject
}

// PublishEvent enqueues a normalized webhook event. The envelope id is the
// stream's deduplication id, so a redelivered webhook is stored once.
func (p *TaskPublisher) PublishEvent(ctx context.Context, envelope models.EventEnvelope) error {
	if envelope.ID == "" {
		return domain.NewValidationError("event envelope id is required")
	}
	if _, err := envelope.Event(); err != nil {
		return domain.NewValidationError("cannot publish event", err)
	}
	return p.publish(ctx, EventSubject(envelope.Kind), envelope.ID, envelope)
}

// PublishUploadVideo enqueues a recording upload job.
func (p *TaskPublisher) PublishUploadVideo(ctx context.Context, task models.UploadVideoTask) error {
	if task.BotID == "" || task.VideoURL == "" {
		return domain.NewValidationError("upload task requires a bot id and a video url")
	}
	return p.publish(ctx, constants.UploadVideoSubject, "upload_video."+task.BotID, task)
}

func (p *TaskPublisher) publish(ctx context.Context, subject, msgID string, payload any) error {
	data, contentType, err := Encode(p.encoding, payload)
	if err != nil {
		slog.ErrorContext(ctx, "error encoding task", logging.ErrKey, err, "subject", subject)
		return domain.NewInternalError("failed to encode task", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(ContentTypeHeader, contentType)
	msg.Header.Set(constants.NatsMsgIDHeader, msgID)
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok && requestID != "" {
		msg.Header.Set(constants.RequestIDHeader, requestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	ack, err := p.js.PublishMsg(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error publishing task to NATS", logging.ErrKey, err, "subject", subject)
		return domain.NewUnavailableError("failed to enqueue task", err)
	}

	slog.DebugContext(ctx, "published task to NATS",
		"subject", subject,
		"msg_id", msgID,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

// IJetStreamStreams is the part of a JetStream context needed to manage the task stream.
type IJetStreamStreams interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// EnsureTaskStream creates the task stream, or updates it to the expected configuration.
func EnsureTaskStream(ctx context.Context, js IJetStreamStreams, duplicateWindow time.Duration) (jetstream.Stream, error) {
	if duplicateWindow <= 0 {
		duplicateWindow = DefaultDuplicateWindow
	}
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        constants.TaskStreamName,
		Description: "meeting bot webhook events, calendar syncs and recording uploads",
		Subjects:    []string{constants.TaskSubjectsWildcard},
		Retention:   jetstream.WorkQueuePolicy,
		Storage:     jetstream.FileStorage,
		Duplicates:  duplicateWindow,
		MaxAge:      7 * 24 * time.Hour,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error creating task stream", logging.ErrKey, err, "stream", constants.TaskStreamName)
		return nil, err
	}
	return stream, nil
}
