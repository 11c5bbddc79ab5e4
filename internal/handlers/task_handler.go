// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

// BotLifecycle applies normalized bot events
type BotLifecycle interface {
	HandleStatusChange(ctx context.Context, event models.StatusChangeEvent) error
	HandleCompleted(ctx context.Context, event models.CompletedEvent) error
	HandleFailed(ctx context.Context, event models.FailedEvent) error
	ServiceReady() bool
}

// CalendarSyncer reconciles a calendar with its scheduled bots
type CalendarSyncer interface {
	SyncCalendar(ctx context.Context, event models.CalendarSyncEvent) error
	ServiceReady() bool
}

// VideoUploader copies recordings into object storage
type VideoUploader interface {
	UploadVideo(ctx context.Context, task models.UploadVideoTask) error
	ServiceReady() bool
}

// TaskHandler runs queued bot tasks
type TaskHandler struct {
	botLifecycle BotLifecycle
	calendarSync CalendarSyncer
	uploader     VideoUploader
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(botLifecycle BotLifecycle, calendarSync CalendarSyncer, uploader VideoUploader) *TaskHandler {
	return &TaskHandler{
		botLifecycle: botLifecycle,
		calendarSync: calendarSync,
		uploader:     uploader,
	}
}

func (h *TaskHandler) HandlerReady() bool {
	return h.botLifecycle.ServiceReady() && h.calendarSync.ServiceReady() && h.uploader.ServiceReady()
}

// HandleMessage implements [domain.MessageHandler] interface
func (h *TaskHandler) HandleMessage(ctx context.Context, msg domain.Message) error {
	subject := msg.Subject()
	slog.DebugContext(ctx, "handling task")

	handlers := map[string]func(ctx context.Context, msg domain.Message) error{
		constants.BotEventSubject:     h.handleEvent,
		constants.CalendarSyncSubject: h.handleEvent,
		constants.UploadVideoSubject:  h.handleUploadVideo,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown task subject")
		return domain.NewValidationError(fmt.Sprintf("unknown task subject %q", subject))
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "error handling task", logging.ErrKey, err)
		return err
	}
	slog.DebugContext(ctx, "task handled successfully")
	return nil
}

func (h *TaskHandler) handleEvent(ctx context.Context, msg domain.Message) error {
	var envelope models.EventEnvelope
	if err := messaging.Decode(msg.Data(), msg.Header(messaging.ContentTypeHeader), &envelope); err != nil {
		return domain.NewValidationError("failed to decode event envelope", err)
	}
	event, err := envelope.Event()
	if err != nil {
		return domain.NewValidationError("invalid event envelope", err)
	}

	ctx = logging.AppendCtx(ctx, slog.String("delivery_id", envelope.ID))
	ctx = logging.AppendCtx(ctx, slog.String("source", string(envelope.Source)))
	if envelope.RequestID != "" && msg.Header(constants.RequestIDHeader) == "" {
		ctx = logging.AppendCtx(ctx, slog.String(logging.RequestIDKey, envelope.RequestID))
	}
	slog.InfoContext(ctx, "processing webhook event", "event", event.Kind())

	switch e := event.(type) {
	case models.StatusChangeEvent:
		return h.botLifecycle.HandleStatusChange(ctx, e)
	case models.CompletedEvent:
		return h.botLifecycle.HandleCompleted(ctx, e)
	case models.FailedEvent:
		return h.botLifecycle.HandleFailed(ctx, e)
	case models.CalendarSyncEvent:
		ctx = logging.AppendCtx(ctx, slog.String(logging.CalendarIDKey, e.CalendarID))
		return h.calendarSync.SyncCalendar(ctx, e)
	}
	return domain.NewValidationError(fmt.Sprintf("unsupported event kind %q", event.Kind()))
}

func (h *TaskHandler) handleUploadVideo(ctx context.Context, msg domain.Message) error {
	var task models.UploadVideoTask
	if err := messaging.Decode(msg.Data(), msg.Header(messaging.ContentTypeHeader), &task); err != nil {
		return domain.NewValidationError("failed to decode upload task", err)
	}
	return h.uploader.UploadVideo(ctx, task)
}
