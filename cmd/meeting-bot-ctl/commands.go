// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

const publishTimeout = 10 * time.Second

// taskQueue is the part of the publisher the commands use
type taskQueue interface {
	PublishEvent(ctx context.Context, envelope models.EventEnvelope) error
	PublishUploadVideo(ctx context.Context, task models.UploadVideoTask) error
}

// connect opens a NATS connection and a publisher on the task stream. The returned
// function drains the connection.
var connect = func(ctx context.Context) (taskQueue, func(), error) {
	natsConn, err := nats.Connect(opts.NATSURL, nats.Name("lfx-v2-meeting-bot-ctl"))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating NATS client: %w", err)
	}
	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, nil, fmt.Errorf("error creating JetStream context: %w", err)
	}
	if _, err := messaging.EnsureTaskStream(ctx, js, messaging.DefaultDuplicateWindow); err != nil {
		natsConn.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := natsConn.Drain(); err != nil {
			natsConn.Close()
		}
	}
	return messaging.NewTaskPublisher(js, messaging.ParseEncoding(opts.TaskEncoding)), closeFn, nil
}

// syncCalendarCommand queues a calendar sync
type syncCalendarCommand struct {
	CalendarID string `long:"calendar-id" description:"calendar to sync" required:"true"`
	Full       bool   `long:"full" description:"re-read every event instead of those updated since the last sync"`

	now func() time.Time
}

// Execute implements flags.Commander
func (c *syncCalendarCommand) Execute(_ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	receivedAt := now().UTC()

	event := models.CalendarSyncEvent{
		CalendarID:  c.CalendarID,
		LastUpdated: receivedAt,
		Full:        c.Full,
	}
	envelope := models.NewEventEnvelope("manual-"+uuid.NewString(), models.WebhookSourceMeetingEvents, event, receivedAt)

	queue, closeFn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := queue.PublishEvent(ctx, envelope); err != nil {
		return fmt.Errorf("failed to queue calendar sync: %w", err)
	}
	slog.InfoContext(ctx, "calendar sync queued",
		"calendar_id", c.CalendarID,
		"full", c.Full,
		"delivery_id", envelope.ID,
	)
	return nil
}

// uploadVideoCommand queues a recording upload
type uploadVideoCommand struct {
	BotID    string `long:"bot-id" description:"bot the recording belongs to" required:"true"`
	VideoURL string `long:"video-url" description:"source URL of the recording" required:"true"`
	Provider string `long:"provider" default:"recall" choice:"recall" choice:"meeting_baas" description:"provider that recorded the meeting"`
}

// Execute implements flags.Commander
func (c *uploadVideoCommand) Execute(_ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	task := models.UploadVideoTask{
		BotID:    c.BotID,
		Provider: models.Provider(c.Provider),
		VideoURL: c.VideoURL,
		FileName: constants.RecordingObjectName(c.BotID),
	}
	if !task.Provider.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("unknown provider %q", c.Provider))
	}

	queue, closeFn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := queue.PublishUploadVideo(ctx, task); err != nil {
		return fmt.Errorf("failed to queue upload: %w", err)
	}
	slog.InfoContext(ctx, "upload queued", "bot_id", c.BotID, "file_name", task.FileName)
	return nil
}
