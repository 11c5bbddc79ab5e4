// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/concurrent"
)

// CalendarSyncService reconciles the bots of a calendar with its changed events
type CalendarSyncService struct {
	calendarRepository      domain.CalendarRepository
	calendarEventRepository domain.CalendarEventRepository
	profileRepository       domain.ProfileRepository
	userSettingsRepository  domain.UserSettingsRepository
	botRepository           domain.BotRepository
	calendarSource          domain.CalendarSource
	providers               domain.BotProviderRegistry
	notifier                domain.Notifier
	workerPool              *concurrent.WorkerPool
}

// NewCalendarSyncService creates a new calendar sync service
func NewCalendarSyncService(
	calendarRepository domain.CalendarRepository,
	calendarEventRepository domain.CalendarEventRepository,
	profileRepository domain.ProfileRepository,
	userSettingsRepository domain.UserSettingsRepository,
	botRepository domain.BotRepository,
	calendarSource domain.CalendarSource,
	providers domain.BotProviderRegistry,
	notifier domain.Notifier,
	config ServiceConfig,
) *CalendarSyncService {
	return &CalendarSyncService{
		calendarRepository:      calendarRepository,
		calendarEventRepository: calendarEventRepository,
		profileRepository:       profileRepository,
		userSettingsRepository:  userSettingsRepository,
		botRepository:           botRepository,
		calendarSource:          calendarSource,
		providers:               providers,
		notifier:                notifier,
		workerPool:              concurrent.NewWorkerPool(config.WorkerCount),
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *CalendarSyncService) ServiceReady() bool {
	return s.calendarRepository != nil &&
		s.calendarEventRepository != nil &&
		s.profileRepository != nil &&
		s.userSettingsRepository != nil &&
		s.botRepository != nil &&
		s.calendarSource != nil &&
		s.providers != nil &&
		s.notifier != nil
}

// SyncCalendar processes one calendar sync event. Missing calendars or profiles are
// reported and dropped; a failed event is reported without stopping the batch.
// Only store and provider lookups that may succeed on redelivery are returned.
func (s *CalendarSyncService) SyncCalendar(ctx context.Context, event models.CalendarSyncEvent) error {
	ctx = logging.AppendCtx(ctx, slog.String(logging.CalendarIDKey, event.CalendarID))

	calendar, profile, err := s.resolveOwner(ctx, event.CalendarID)
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
			slog.WarnContext(ctx, "calendar or owner not found, skipping sync", logging.ErrKey, err)
			s.notifier.Send(ctx, domain.SeverityError, "Calendar Not Found: "+event.CalendarID)
			return nil
		}
		return err
	}

	ctx = logging.AppendCtx(ctx, slog.String(logging.ProfileIDKey, profile.ID))
	ctx = logging.AppendCtx(ctx, slog.String(logging.UserEmailKey, profile.Email))

	if profile.IsCoach() {
		slog.InfoContext(ctx, "calendar belongs to a coach, skipping sync")
		return nil
	}

	var updatedSince *time.Time
	if !event.Full && !event.LastUpdated.IsZero() {
		updatedSince = &event.LastUpdated
	}

	events, err := s.calendarSource.ListCalendarEvents(ctx, calendar.ID, updatedSince)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list calendar events", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(profile.Email, fmt.Sprintf("Failed to fetch calendar events: %v", err)))
		return err
	}

	slog.InfoContext(ctx, "retrieved calendar events", "events_count", len(events), "full", event.Full)
	s.notifier.Send(ctx, domain.SeverityInfo,
		withLabel(profile.Email, fmt.Sprintf("Retrieved %d calendar events for processing", len(events))))

	settings, err := s.userSettingsRepository.GetByProfile(ctx, profile.ID)
	if err != nil {
		if !domain.IsErrorType(err, domain.ErrorTypeNotFound) {
			return err
		}
		slog.InfoContext(ctx, "user has no settings, existing bots are cleaned up but none are scheduled")
		settings = nil
	}

	failed := 0
	for i := range events {
		calendarEvent := &events[i]
		calendarEvent.CalendarID = calendar.ID
		calendarEvent.ProfileID = profile.ID

		eventCtx := logging.AppendCtx(ctx, slog.String(logging.EventIDKey, calendarEvent.ID))
		if err := s.processEvent(eventCtx, profile, settings, calendarEvent); err != nil {
			failed++
			slog.ErrorContext(eventCtx, "failed to process calendar event", logging.ErrKey, err)
			s.notifier.Send(eventCtx, domain.SeverityError,
				withLabel(profile.Email, fmt.Sprintf("Failed to process calendar event: %v", err)))
		}
	}

	slog.InfoContext(ctx, "calendar sync finished", "events_count", len(events), "failed_count", failed)
	return nil
}

func (s *CalendarSyncService) resolveOwner(ctx context.Context, calendarID string) (*models.Calendar, *models.Profile, error) {
	calendar, err := s.calendarRepository.Get(ctx, calendarID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profileRepository.Get(ctx, calendar.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	return calendar, profile, nil
}

// processEvent stores the event, removes the bots previously scheduled for it and
// schedules a new one when the user's settings allow it
func (s *CalendarSyncService) processEvent(
	ctx context.Context,
	profile *models.Profile,
	settings *models.UserSettings,
	event *models.CalendarEvent,
) error {
	annotateNextOccurrence(ctx, event)
	recoverZoomLink(ctx, event)

	if err := s.calendarEventRepository.Upsert(ctx, event); err != nil {
		return fmt.Errorf("failed to store calendar event: %w", err)
	}

	if err := s.cleanupEventBots(ctx, event); err != nil {
		return fmt.Errorf("failed to clean up bots: %w", err)
	}

	if settings == nil {
		return nil
	}

	decision := ShouldSchedule(event, settings, profile.Email)
	if decision.Err != nil {
		slog.WarnContext(ctx, "failed to read attendees, not scheduling", logging.ErrKey, decision.Err)
	}
	if !decision.Schedule {
		slog.DebugContext(ctx, "not scheduling bot",
			"reason", decision.Reason,
			"is_organizer", decision.Flags.IsOrganizer,
			"is_pending", decision.Flags.IsPending,
			"is_internal", decision.Flags.IsInternal,
		)
		return nil
	}

	return s.scheduleBot(ctx, profile, settings, event)
}

// annotateNextOccurrence records when a recurring event happens next
func annotateNextOccurrence(ctx context.Context, event *models.CalendarEvent) {
	event.NextOccurrence = nil

	raw, err := models.ParseGoogleCalendarEvent(event.Raw)
	if err != nil || len(raw.Recurrence) == 0 {
		return
	}
	next, err := raw.NextOccurrence(event.StartTime)
	if err != nil {
		slog.DebugContext(ctx, "failed to expand recurrence", logging.ErrKey, err)
		return
	}
	event.NextOccurrence = next
}

// recoverZoomLink fills in the meeting url of an event whose Zoom link was only pasted
// into its location or description
func recoverZoomLink(ctx context.Context, event *models.CalendarEvent) {
	if event.IsDeleted || event.HasMeetingURL() {
		return
	}
	raw, err := models.ParseGoogleCalendarEvent(event.Raw)
	if err != nil {
		return
	}
	link := raw.ZoomJoinLink()
	if link == "" {
		return
	}
	platform := models.MeetingPlatformZoom
	event.MeetingURL = &link
	event.MeetingPlatform = &platform
	slog.DebugContext(ctx, "recovered zoom link from event details")
}

// cleanupEventBots soft-removes the local bots of the event and cancels them upstream.
// Upstream cancellations are all attempted and only logged when they fail.
func (s *CalendarSyncService) cleanupEventBots(ctx context.Context, event *models.CalendarEvent) error {
	removed, removeErr := s.botRepository.SoftRemoveByEvent(ctx, event.ID)

	var tasks []func(context.Context) error
	if len(event.ProviderBots) > 0 {
		tasks = append(tasks, func(ctx context.Context) error {
			return s.calendarSource.CancelEventBots(ctx, event.ID)
		})
	}
	for _, bot := range removed {
		// calendar bots held by the calendar provider go away with CancelEventBots
		if bot.Provider == models.ProviderRecall {
			continue
		}
		tasks = append(tasks, func(ctx context.Context) error {
			provider, err := s.providers.GetProvider(bot.Provider)
			if err != nil {
				return err
			}
			if err := provider.RemoveBot(ctx, bot.ID); err != nil {
				return fmt.Errorf("failed to remove %s bot %s: %w", bot.Provider, bot.ID, err)
			}
			return nil
		})
	}

	if len(removed) > 0 || len(tasks) > 0 {
		slog.InfoContext(ctx, "cleaning up previously scheduled bots",
			"removed_count", len(removed),
			"upstream_calls", len(tasks),
		)
	}

	for _, err := range s.workerPool.RunAll(ctx, tasks...) {
		if err != nil {
			slog.WarnContext(ctx, "failed to cancel upstream bot", logging.ErrKey, err)
		}
	}

	return removeErr
}

// scheduleBot provisions the bot with the provider serving the event's platform and stores it
func (s *CalendarSyncService) scheduleBot(
	ctx context.Context,
	profile *models.Profile,
	settings *models.UserSettings,
	event *models.CalendarEvent,
) error {
	if event.MeetingPlatform == nil {
		slog.InfoContext(ctx, "event has no recognised meeting platform, not scheduling")
		return nil
	}
	provider, err := s.providers.ForPlatform(*event.MeetingPlatform)
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeValidation) {
			slog.InfoContext(ctx, "meeting platform is not supported, not scheduling",
				"meeting_platform", *event.MeetingPlatform)
			return nil
		}
		return err
	}

	startTime := event.StartTime
	request := models.CreateBotRequest{
		BotName:          BotName(settings),
		MeetingURL:       *event.MeetingURL,
		StartTime:        &startTime,
		DeduplicationKey: DeduplicationKey(event.StartTime, *event.MeetingURL, profile.ID),
		Metadata: models.BotMetadata{
			UserID:  profile.ID,
			EventID: event.ID,
		},
		EventID:  event.ID,
		Reserved: true,
	}

	ctx = logging.AppendCtx(ctx, slog.String(logging.ProviderKey, string(provider.Name())))
	isZoom := event.IsPlatform(models.MeetingPlatformZoom)
	if isZoom {
		s.notifier.Send(ctx, domain.SeverityInfo, withLabel(profile.Email,
			fmt.Sprintf("Creating Zoom bot: %s for meeting at %s", request.BotName, startTime.UTC().Format(time.RFC3339))))
	}

	provisioned, err := provider.CreateBot(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to create %s bot: %w", provider.Name(), err)
	}

	var errs []error
	for _, p := range provisioned {
		key := p.DeduplicationKey
		if key == "" {
			key = request.DeduplicationKey
		}
		bot := &models.Bot{
			ID:               p.ID,
			Provider:         provider.Name(),
			ProfileID:        profile.ID,
			EventID:          &event.ID,
			CalendarID:       &event.CalendarID,
			DeduplicationKey: key,
		}
		stored, err := persistBot(ctx, s.botRepository, bot)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to store bot %s: %w", p.ID, err))
			continue
		}

		slog.InfoContext(ctx, "scheduled bot", logging.BotIDKey, stored.ID, "start_time", startTime)
		if isZoom {
			s.notifier.Send(ctx, domain.SeveritySuccess,
				withLabel(profile.Email, "Successfully created Zoom bot: "+stored.ID))
		}
	}

	return errors.Join(errs...)
}
