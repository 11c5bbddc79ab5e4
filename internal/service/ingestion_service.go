// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

// CompletionArtifacts is what a finished recording left behind
type CompletionArtifacts struct {
	VideoURL     string
	Participants []string
	Transcript   []models.TranscriptSegment
	// FetchTranscript loads the transcript from the artifact source instead of using Transcript
	FetchTranscript bool
}

// IngestionResult reports which parts of the ingestion produced something
type IngestionResult struct {
	StorageURL    string
	HostedVideoID string
	Speakers      []string
	Patched       bool
	Transcript    TranscriptResult
	Processed     bool
}

// IngestionDependencies are the collaborators of the ingestion pipeline
type IngestionDependencies struct {
	BotRepository           domain.BotRepository
	CalendarEventRepository domain.CalendarEventRepository
	ProfileRepository       domain.ProfileRepository
	TranscriptRepository    domain.TranscriptRepository
	ArtifactSource          domain.BotArtifactSource
	Fetcher                 domain.SourceFetcher
	Storage                 domain.RecordingStorage
	Publisher               domain.TaskPublisher
	Hosting                 domain.VideoHosting
	// Processor is optional
	Processor domain.VideoProcessor
	Notifier  domain.Notifier
}

// IngestionService uploads the recording of a finished bot and stores its transcript
type IngestionService struct {
	botRepository           domain.BotRepository
	calendarEventRepository domain.CalendarEventRepository
	profileRepository       domain.ProfileRepository
	transcriptRepository    domain.TranscriptRepository
	artifactSource          domain.BotArtifactSource
	fetcher                 domain.SourceFetcher
	storage                 domain.RecordingStorage
	publisher               domain.TaskPublisher
	hosting                 domain.VideoHosting
	processor               domain.VideoProcessor
	notifier                domain.Notifier
	workerPool              *concurrent.WorkerPool
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(deps IngestionDependencies, config ServiceConfig) *IngestionService {
	workers := config.WorkerCount
	if workers < 2 {
		// the storage and hosting branches always run side by side
		workers = 2
	}
	return &IngestionService{
		botRepository:           deps.BotRepository,
		calendarEventRepository: deps.CalendarEventRepository,
		profileRepository:       deps.ProfileRepository,
		transcriptRepository:    deps.TranscriptRepository,
		artifactSource:          deps.ArtifactSource,
		fetcher:                 deps.Fetcher,
		storage:                 deps.Storage,
		publisher:               deps.Publisher,
		hosting:                 deps.Hosting,
		processor:               deps.Processor,
		notifier:                deps.Notifier,
		workerPool:              concurrent.NewWorkerPool(workers),
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *IngestionService) ServiceReady() bool {
	return s.botRepository != nil &&
		s.calendarEventRepository != nil &&
		s.profileRepository != nil &&
		s.transcriptRepository != nil &&
		s.fetcher != nil &&
		s.storage != nil &&
		s.publisher != nil &&
		s.hosting != nil &&
		s.notifier != nil
}

// ingestionContext is the owner and calendar event of the bot being ingested
type ingestionContext struct {
	label   string
	profile *models.Profile
	event   *models.CalendarEvent
	raw     *models.GoogleCalendarEvent
}

// NormalizeParticipants trims and NFC-normalizes participant names, dropping
// empty and duplicate ones while keeping the first-seen order
func NormalizeParticipants(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		normalized := strings.TrimSpace(norm.NFC.String(name))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

// Ingest runs the completion pipeline for a bot that has just reached done.
// Every step reports its own failure; the result carries whatever succeeded.
func (s *IngestionService) Ingest(ctx context.Context, bot *models.Bot, artifacts CompletionArtifacts) IngestionResult {
	ctx = logging.WithBot(ctx, bot.ID)
	ctx = logging.AppendCtx(ctx, slog.String(logging.ProfileIDKey, bot.ProfileID))

	ic := s.loadContext(ctx, bot)
	participants := NormalizeParticipants(artifacts.Participants)
	result := IngestionResult{Speakers: participants}

	slog.InfoContext(ctx, "starting meeting completion workflow",
		"has_video_url", artifacts.VideoURL != "",
		"participants_count", len(participants),
	)

	if artifacts.VideoURL == "" {
		slog.WarnContext(ctx, "missing video url, skipping video upload")
		s.notifier.Send(ctx, domain.SeverityWarn,
			withLabel(ic.label, "Cannot upload video - Missing video URL for bot "+bot.ID))
	} else {
		var hostedTags []string
		branches := s.workerPool.RunAll(ctx,
			func(ctx context.Context) error {
				url, err := s.storeRecording(ctx, bot, ic, artifacts.VideoURL)
				result.StorageURL = url
				return err
			},
			func(ctx context.Context) error {
				videoID, tags, err := s.hostVideo(ctx, bot, ic, artifacts.VideoURL, participants)
				result.HostedVideoID = videoID
				hostedTags = tags
				return err
			},
		)
		if hostedTags != nil {
			result.Speakers = hostedTags
		}
		slog.InfoContext(ctx, "video upload branches settled",
			"storage_url", result.StorageURL,
			"hosted_video_id", result.HostedVideoID,
			"speakers_count", len(result.Speakers),
			"storage_failed", branches[0] != nil,
			"hosting_failed", branches[1] != nil,
		)
	}

	patch := models.BotPatch{Speakers: result.Speakers}
	if result.StorageURL != "" {
		patch.MP4SourceURL = &result.StorageURL
	}
	if result.HostedVideoID != "" {
		patch.HostedVideoID = &result.HostedVideoID
	}
	if _, _, err := s.botRepository.Patch(ctx, bot.ID, patch); err != nil {
		slog.ErrorContext(ctx, "failed to update meeting bot with video data", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(ic.label, fmt.Sprintf("Failed to update meeting bot with video data: %v", err)))
	} else {
		result.Patched = true
	}

	segments := artifacts.Transcript
	if artifacts.FetchTranscript {
		segments = s.fetchTranscript(ctx, bot)
	}
	result.Transcript = s.storeTranscript(ctx, bot, ic.label, segments)

	if result.HostedVideoID != "" && result.Patched {
		result.Processed = s.processVideo(ctx, ic.label, bot)
	}

	slog.InfoContext(ctx, "meeting completion workflow finished",
		"slices_count", result.Transcript.Slices,
		"words_count", result.Transcript.Words,
		"processed", result.Processed,
	)
	return result
}

// loadContext resolves the owner and event of the bot. Missing data degrades the
// notifications and the hosted video title, it never stops the ingestion.
func (s *IngestionService) loadContext(ctx context.Context, bot *models.Bot) ingestionContext {
	ic := ingestionContext{label: bot.ID}

	profile, err := s.profileRepository.Get(ctx, bot.ProfileID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load bot owner", logging.ErrKey, err)
	} else {
		ic.profile = profile
		if profile.Email != "" {
			ic.label = profile.Email
		}
	}

	if bot.EventID == nil || *bot.EventID == "" {
		return ic
	}
	event, err := s.calendarEventRepository.Get(ctx, *bot.EventID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load bot calendar event", logging.EventIDKey, *bot.EventID, logging.ErrKey, err)
		return ic
	}
	ic.event = event
	if raw, err := models.ParseGoogleCalendarEvent(event.Raw); err == nil {
		ic.raw = raw
	}
	return ic
}

// storeRecording checks the source is downloadable and queues the copy into object storage.
// The returned URL is known before the copy completes.
func (s *IngestionService) storeRecording(ctx context.Context, bot *models.Bot, ic ingestionContext, videoURL string) (string, error) {
	if err := s.fetcher.Probe(ctx, videoURL); err != nil {
		slog.WarnContext(ctx, "recording source is not reachable, skipping storage upload", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityWarn,
			withLabel(ic.label, fmt.Sprintf("Cannot upload video to storage - Source unreachable for bot %s: %v", bot.ID, err)))
		return "", err
	}

	task := models.UploadVideoTask{
		BotID:    bot.ID,
		Provider: bot.Provider,
		VideoURL: videoURL,
		FileName: constants.RecordingObjectName(bot.ID),
	}
	if err := s.publisher.PublishUploadVideo(ctx, task); err != nil {
		slog.ErrorContext(ctx, "failed to queue storage upload", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(ic.label, fmt.Sprintf("Failed to upload video to storage: %v", err)))
		return "", err
	}

	slog.InfoContext(ctx, "storage upload job queued", "file_name", task.FileName)
	return s.storage.PublicURL(task.FileName), nil
}

// hostVideo publishes the recording to the hosting service, reusing an earlier upload of the same bot
func (s *IngestionService) hostVideo(
	ctx context.Context,
	bot *models.Bot,
	ic ingestionContext,
	videoURL string,
	participants []string,
) (string, []string, error) {
	existing, err := s.hosting.FindByBotID(ctx, bot.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to look up hosted video", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(ic.label, fmt.Sprintf("Failed to upload to API.video: %v", err)))
		return "", nil, err
	}
	if existing != nil {
		slog.InfoContext(ctx, "found existing hosted video", "video_id", existing.VideoID)
		tags := existing.Tags
		if tags == nil {
			tags = []string{}
		}
		return existing.VideoID, tags, nil
	}

	if len(participants) == 0 {
		slog.WarnContext(ctx, "no speakers detected, skipping hosted upload")
		s.notifier.Send(ctx, domain.SeverityWarn,
			withLabel(ic.label, "Skipping API.video upload - No speakers detected for meeting "+bot.ID))
		return "", nil, nil
	}

	request := models.CreateHostedVideoRequest{
		Title:      ic.raw.Title("Meeting Recording - " + bot.ID),
		Source:     videoURL,
		MP4Support: true,
		Tags:       participants,
		Metadata:   hostedVideoMetadata(bot),
	}
	if ic.raw != nil {
		request.Description = ic.raw.Description
	}

	s.notifier.Send(ctx, domain.SeverityInfo,
		withLabel(ic.label, "Starting API.video upload for meeting "+bot.ID))

	video, err := s.hosting.CreateVideo(ctx, request)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload to hosting service", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(ic.label, fmt.Sprintf("Failed to upload to API.video: %v", err)))
		return "", nil, err
	}

	slog.InfoContext(ctx, "uploaded video to hosting service", "video_id", video.VideoID, "tags_count", len(participants))
	s.notifier.Send(ctx, domain.SeveritySuccess,
		withLabel(ic.label, "Successfully uploaded video to API.video for meeting "+bot.ID))
	return video.VideoID, participants, nil
}

func hostedVideoMetadata(bot *models.Bot) []models.MetadataEntry {
	metadata := []models.MetadataEntry{{Key: models.VideoMetadataUserID, Value: bot.ProfileID}}
	if bot.EventID != nil && *bot.EventID != "" {
		metadata = append(metadata, models.MetadataEntry{Key: models.VideoMetadataEventID, Value: *bot.EventID})
	}
	return append(metadata, models.MetadataEntry{Key: models.VideoMetadataBotID, Value: bot.ID})
}

// fetchTranscript reads the transcript from the artifact source; failures yield an empty transcript
func (s *IngestionService) fetchTranscript(ctx context.Context, bot *models.Bot) []models.TranscriptSegment {
	if s.artifactSource == nil {
		return nil
	}
	segments, err := s.artifactSource.GetTranscript(ctx, bot.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch transcript", logging.ErrKey, err)
		return nil
	}
	return segments
}

func (s *IngestionService) processVideo(ctx context.Context, label string, bot *models.Bot) bool {
	if s.processor == nil {
		slog.DebugContext(ctx, "no video processor configured, skipping")
		return false
	}
	if err := s.processor.ProcessVideo(ctx, bot.ID); err != nil {
		slog.ErrorContext(ctx, "failed to process video", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(label, fmt.Sprintf("Failed to process video: %v", err)))
		return false
	}
	slog.InfoContext(ctx, "video processing initiated")
	return true
}
