// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// Object metadata written with every stored recording
const (
	recordingMetadataBotID     = "meeting_bot_id"
	recordingMetadataVideoURL  = "video_url"
	recordingMetadataProvider  = "provider"
	recordingMetadataTimestamp = "upload_timestamp"
)

const bytesPerMB = 1024 * 1024

// UploadService copies provider recordings into durable object storage
type UploadService struct {
	botRepository domain.BotRepository
	fetcher       domain.SourceFetcher
	storage       domain.RecordingStorage
	notifier      domain.Notifier
	now           func() time.Time
}

// NewUploadService creates a new upload service
func NewUploadService(
	botRepository domain.BotRepository,
	fetcher domain.SourceFetcher,
	storage domain.RecordingStorage,
	notifier domain.Notifier,
) *UploadService {
	return &UploadService{
		botRepository: botRepository,
		fetcher:       fetcher,
		storage:       storage,
		notifier:      notifier,
		now:           time.Now,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *UploadService) ServiceReady() bool {
	return s.botRepository != nil && s.fetcher != nil && s.storage != nil && s.notifier != nil
}

// UploadVideo downloads the recording, stores it under the task's file name and points the
// bot at the public URL when it changed
func (s *UploadService) UploadVideo(ctx context.Context, task models.UploadVideoTask) error {
	ctx = logging.WithBot(ctx, task.BotID)
	ctx = logging.AppendCtx(ctx, slog.String(logging.ProviderKey, string(task.Provider)))

	if task.BotID == "" || task.VideoURL == "" || task.FileName == "" {
		return domain.NewValidationError("upload task requires bot id, video url and file name")
	}

	slog.InfoContext(ctx, "starting video upload to storage", "file_name", task.FileName)
	s.notifier.Send(ctx, domain.SeveritySend,
		fmt.Sprintf("🎥 Starting video upload to storage for bot %s", task.BotID))

	info, err := s.store(ctx, task)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload video to storage", "file_name", task.FileName, logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			fmt.Sprintf("Failed to upload video for bot %s to storage: %v", task.BotID, err))
		return err
	}

	publicURL := s.storage.PublicURL(task.FileName)
	if err := s.linkRecording(ctx, task.BotID, publicURL); err != nil {
		slog.ErrorContext(ctx, "failed to update bot with storage url", "public_url", publicURL, logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			fmt.Sprintf("Failed to update bot %s with storage url: %v", task.BotID, err))
		if !domain.IsErrorType(err, domain.ErrorTypeNotFound) {
			return err
		}
	}

	slog.InfoContext(ctx, "uploaded video to storage",
		"file_name", task.FileName,
		"public_url", publicURL,
		"size", info.Size,
	)
	s.notifier.Send(ctx, domain.SeveritySuccess,
		fmt.Sprintf("Successfully uploaded video for bot %s to storage (%.2fMB)", task.BotID, float64(info.Size)/bytesPerMB))
	return nil
}

func (s *UploadService) store(ctx context.Context, task models.UploadVideoTask) (*models.StoredRecording, error) {
	body, err := s.fetcher.Fetch(ctx, task.VideoURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			slog.DebugContext(ctx, "failed to close recording source", logging.ErrKey, closeErr)
		}
	}()

	return s.storage.PutRecording(ctx, task.FileName, body, map[string]string{
		recordingMetadataBotID:     task.BotID,
		recordingMetadataVideoURL:  task.VideoURL,
		recordingMetadataProvider:  string(task.Provider),
		recordingMetadataTimestamp: s.now().UTC().Format(time.RFC3339Nano),
	})
}

// linkRecording patches mp4_source_url only when the realized URL differs from the stored one
func (s *UploadService) linkRecording(ctx context.Context, botID, publicURL string) error {
	bot, err := s.botRepository.Get(ctx, botID)
	if err != nil {
		return err
	}
	if bot.MP4SourceURL != nil && *bot.MP4SourceURL == publicURL {
		return nil
	}
	_, _, err = s.botRepository.Patch(ctx, botID, models.BotPatch{MP4SourceURL: &publicURL})
	return err
}
