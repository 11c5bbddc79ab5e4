// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// Messages returned to the caller of a live launch
const (
	ErrMsgUserNotFound    = "User details not found"
	ErrMsgJoinFailed      = "Failed to join meeting"
	ErrMsgCreateBotFailed = "Failed to create meeting bot"
)

// LaunchLiveMeetingRequest asks for a bot to join a meeting right away
type LaunchLiveMeetingRequest struct {
	UserID     string `json:"user_id"`
	MeetingURL string `json:"meeting_url"`
}

// LiveMeetingService launches ad-hoc bots into meetings that are already running
type LiveMeetingService struct {
	profileRepository      domain.ProfileRepository
	userSettingsRepository domain.UserSettingsRepository
	botRepository          domain.BotRepository
	providers              domain.BotProviderRegistry
	now                    func() time.Time
}

// NewLiveMeetingService creates a new live meeting service
func NewLiveMeetingService(
	profileRepository domain.ProfileRepository,
	userSettingsRepository domain.UserSettingsRepository,
	botRepository domain.BotRepository,
	providers domain.BotProviderRegistry,
) *LiveMeetingService {
	return &LiveMeetingService{
		profileRepository:      profileRepository,
		userSettingsRepository: userSettingsRepository,
		botRepository:          botRepository,
		providers:              providers,
		now:                    time.Now,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *LiveMeetingService) ServiceReady() bool {
	return s.profileRepository != nil && s.userSettingsRepository != nil &&
		s.botRepository != nil && s.providers != nil
}

// LaunchLiveMeeting sends a bot into the meeting now. A launch repeated within the same
// deduplication window returns the bot that is already on its way.
func (s *LiveMeetingService) LaunchLiveMeeting(ctx context.Context, request LaunchLiveMeetingRequest) (*models.Bot, error) {
	request.UserID = strings.TrimSpace(request.UserID)
	request.MeetingURL = strings.TrimSpace(request.MeetingURL)
	if request.UserID == "" || request.MeetingURL == "" {
		return nil, domain.NewValidationError("user_id and meeting_url are required")
	}

	ctx = logging.AppendCtx(ctx, slog.String(logging.ProfileIDKey, request.UserID))

	profile, settings, err := s.userDetails(ctx, request.UserID)
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
			slog.ErrorContext(ctx, "user details not found", "meeting_url", request.MeetingURL, logging.ErrKey, err)
			return nil, domain.NewNotFoundError(ErrMsgUserNotFound, err)
		}
		return nil, err
	}

	provider, err := s.providers.ForMeetingURL(request.MeetingURL)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String(logging.ProviderKey, string(provider.Name())))

	key := DeduplicationKey(s.now(), request.MeetingURL, profile.ID)
	existing, err := s.botRepository.GetByDeduplicationKey(ctx, key)
	switch {
	case err == nil && !existing.IsRemoved:
		slog.InfoContext(ctx, "bot already launched for this meeting", logging.BotIDKey, existing.ID)
		return existing, nil
	case err != nil && !domain.IsErrorType(err, domain.ErrorTypeNotFound):
		return nil, err
	}

	botCreateRequest := models.CreateBotRequest{
		BotName:          BotName(settings),
		MeetingURL:       request.MeetingURL,
		DeduplicationKey: key,
		Metadata:         models.BotMetadata{UserID: profile.ID},
	}
	slog.InfoContext(ctx, "preparing live bot",
		"bot_name", botCreateRequest.BotName,
		"deduplication_key", key,
	)

	provisioned, err := provider.CreateBot(ctx, botCreateRequest)
	if err != nil || len(provisioned) == 0 {
		slog.ErrorContext(ctx, "failed to launch live bot", logging.ErrKey, err)
		if provider.Name() == models.ProviderMeetingBaas {
			return nil, domain.NewUnavailableError(ErrMsgJoinFailed, err)
		}
		return nil, domain.NewUnavailableError(ErrMsgCreateBotFailed, err)
	}

	bot := &models.Bot{
		ID:               provisioned[0].ID,
		Provider:         provider.Name(),
		ProfileID:        profile.ID,
		DeduplicationKey: key,
	}
	stored, err := persistBot(ctx, s.botRepository, bot)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create meeting bot record", logging.BotIDKey, bot.ID, logging.ErrKey, err)
		return nil, domain.NewInternalError(ErrMsgCreateBotFailed, err)
	}

	slog.InfoContext(ctx, "launched live bot", logging.BotIDKey, stored.ID)
	return stored, nil
}

func (s *LiveMeetingService) userDetails(ctx context.Context, userID string) (*models.Profile, *models.UserSettings, error) {
	profile, err := s.profileRepository.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.userSettingsRepository.GetByProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return profile, settings, nil
}
