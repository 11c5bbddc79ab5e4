// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/utils"
)

// Ingester runs the completion pipeline of a bot
type Ingester interface {
	Ingest(ctx context.Context, bot *models.Bot, artifacts CompletionArtifacts) IngestionResult
}

// BotStatusService advances bots through their lifecycle from normalized provider events
type BotStatusService struct {
	botRepository  domain.BotRepository
	artifactSource domain.BotArtifactSource
	ingester       Ingester
	notifier       domain.Notifier
}

// NewBotStatusService creates a new bot status service
func NewBotStatusService(
	botRepository domain.BotRepository,
	artifactSource domain.BotArtifactSource,
	ingester Ingester,
	notifier domain.Notifier,
) *BotStatusService {
	return &BotStatusService{
		botRepository:  botRepository,
		artifactSource: artifactSource,
		ingester:       ingester,
		notifier:       notifier,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *BotStatusService) ServiceReady() bool {
	return s.botRepository != nil && s.ingester != nil && s.notifier != nil
}

// HandleStatusChange records the reported status. Only fields present in the event are written.
// The delivery that moves the bot to done starts the ingestion.
func (s *BotStatusService) HandleStatusChange(ctx context.Context, event models.StatusChangeEvent) error {
	ctx = logging.WithBot(ctx, event.BotID)

	patch := models.BotPatch{
		SubCode:     event.SubCode,
		Message:     event.Message,
		RecordingID: event.RecordingID,
	}
	if event.Code != "" {
		patch.Status = utils.Ptr(event.Code)
	}

	if event.Code == models.BotStatusDone {
		bot, err := s.botRepository.Get(ctx, event.BotID)
		if err != nil {
			return s.reportUpdateFailure(ctx, event.BotID, err)
		}
		// meeting-baas delivers its artifacts in a separate complete event, which does the transition
		if bot.Provider == models.ProviderMeetingBaas {
			slog.DebugContext(ctx, "deferring done status until the complete event arrives")
			patch.Status = nil
		}
	}

	before, after, err := s.botRepository.Patch(ctx, event.BotID, patch)
	if err != nil {
		return s.reportUpdateFailure(ctx, event.BotID, err)
	}

	slog.InfoContext(ctx, "updated meeting bot status",
		"code", event.Code,
		"previous_code", before.CurrentStatus(),
		"stored_code", after.CurrentStatus(),
	)

	if before.IsDone() || !after.IsDone() {
		if event.Code == models.BotStatusDone && before.IsDone() {
			slog.InfoContext(ctx, "bot already done, skipping duplicate completion")
		}
		return nil
	}

	s.ingester.Ingest(ctx, after, s.artifactsFromSource(ctx, after))
	return nil
}

// HandleCompleted marks the bot done with the artifacts carried by the event and ingests them once
func (s *BotStatusService) HandleCompleted(ctx context.Context, event models.CompletedEvent) error {
	ctx = logging.WithBot(ctx, event.BotID)

	before, after, err := s.botRepository.Patch(ctx, event.BotID, models.BotPatch{
		Status: utils.Ptr(models.BotStatusDone),
	})
	if err != nil {
		return s.reportUpdateFailure(ctx, event.BotID, err)
	}
	if before.IsDone() || !after.IsDone() {
		slog.InfoContext(ctx, "bot already completed or terminal, skipping ingestion",
			"stored_code", after.CurrentStatus())
		return nil
	}

	s.ingester.Ingest(ctx, after, CompletionArtifacts{
		VideoURL:     event.MP4URL,
		Participants: event.Speakers,
		Transcript:   event.Transcript,
	})
	return nil
}

// HandleFailed moves the bot to fatal with the canonical error code
func (s *BotStatusService) HandleFailed(ctx context.Context, event models.FailedEvent) error {
	ctx = logging.WithBot(ctx, event.BotID)

	errorCode := event.ErrorCode
	_, after, err := s.botRepository.Patch(ctx, event.BotID, models.BotPatch{
		Status:    utils.Ptr(models.BotStatusFatal),
		ErrorCode: &errorCode,
	})
	if err != nil {
		return s.reportUpdateFailure(ctx, event.BotID, err)
	}

	slog.WarnContext(ctx, "meeting bot failed", "error_code", errorCode, "stored_code", after.CurrentStatus())
	s.notifier.Send(ctx, domain.SeverityError,
		withLabel(event.BotID, fmt.Sprintf("Meeting bot failed: %s", errorCode)))
	return nil
}

// artifactsFromSource fetches the recording details of a bot from its provider.
// A failed lookup leaves the video URL and participants empty.
func (s *BotStatusService) artifactsFromSource(ctx context.Context, bot *models.Bot) CompletionArtifacts {
	artifacts := CompletionArtifacts{FetchTranscript: true}
	if s.artifactSource == nil {
		return artifacts
	}

	providerBot, err := s.artifactSource.GetBot(ctx, bot.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch bot from provider", logging.ErrKey, err)
		return artifacts
	}
	artifacts.VideoURL = providerBot.VideoURL
	artifacts.Participants = providerBot.Participants
	return artifacts
}

// reportUpdateFailure notifies about a bot that could not be read or written.
// A missing bot will never appear on redelivery, so it is dropped.
func (s *BotStatusService) reportUpdateFailure(ctx context.Context, botID string, err error) error {
	slog.ErrorContext(ctx, "failed to update meeting bot status", logging.ErrKey, err)
	s.notifier.Send(ctx, domain.SeverityError,
		withLabel(botID, fmt.Sprintf("Failed to update meeting bot status: %v", err)))
	if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		return nil
	}
	return err
}
