// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package meetingbaas integrates the Meeting BaaS bot API used for Zoom meetings.
package meetingbaas

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/rest"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
)

// DefaultBaseURL is the Meeting BaaS API endpoint
const DefaultBaseURL = "https://api.meetingbaas.com"

// Config holds the configuration for the Meeting BaaS client
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	APIKey    string            `yaml:"-"`
	BotImage  string            `yaml:"bot_image"`
	Timeout   time.Duration     `yaml:"timeout"`
	Retry     retry.Policy      `yaml:"retry"`
	Transport http.RoundTripper `yaml:"-"`
}

// Client implements BotProvider for Meeting BaaS
type Client struct {
	rest     *rest.Client
	botImage string
}

// NewClient creates a new Meeting BaaS client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.BotImage == "" {
		config.BotImage = constants.DefaultBotImage
	}
	return &Client{
		rest: rest.NewClient(rest.Config{
			Name:      "meeting-baas",
			BaseURL:   config.BaseURL,
			Timeout:   config.Timeout,
			Headers:   map[string]string{constants.MeetingBaasAPIKeyHeader: config.APIKey},
			Retry:     config.Retry,
			Transport: config.Transport,
		}),
		botImage: config.BotImage,
	}
}

// Name returns the provider name
func (c *Client) Name() models.Provider {
	return models.ProviderMeetingBaas
}

// CreateBot joins a bot to the meeting, reserving it ahead of StartTime when Reserved is set.
// The deduplication key the provider stored is read back and preferred over the requested one.
func (c *Client) CreateBot(ctx context.Context, request models.CreateBotRequest) ([]models.ProvisionedBot, error) {
	if request.MeetingURL == "" {
		return nil, domain.NewValidationError("meeting url is required")
	}

	body := JoinRequest{
		BotName:          request.BotName,
		BotImage:         c.botImage,
		MeetingURL:       request.MeetingURL,
		Reserved:         request.Reserved,
		DeduplicationKey: request.DeduplicationKey,
		RecordingMode:    RecordingModeSpeakerView,
		SpeechToText:     SpeechToText{Provider: SpeechToTextDefault},
		AutomaticLeave: AutomaticLeave{
			WaitingRoomTimeout: constants.WaitingRoomTimeoutSeconds,
			NooneJoinedTimeout: constants.NooneJoinedTimeoutSeconds,
		},
		Extra: request.Metadata,
	}
	if request.StartTime != nil {
		unix := request.StartTime.Unix()
		body.StartTime = &unix
	}

	var joined JoinResponse
	if err := c.rest.Create(ctx, "/bots", body, &joined); err != nil {
		return nil, err
	}
	if joined.BotID == "" {
		return nil, domain.NewUnavailableError("meeting-baas returned a bot without id")
	}

	bot := models.ProvisionedBot{ID: joined.BotID, DeduplicationKey: request.DeduplicationKey}

	var data MeetingData
	err := c.rest.Do(ctx, http.MethodGet, "/bots/meeting_data", url.Values{"bot_id": {joined.BotID}}, nil, &data)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "failed to get meeting data from meeting-baas",
			"bot_id", joined.BotID,
			logging.ErrKey, err,
		)
	case data.BotData.Bot.DeduplicationKey != nil && *data.BotData.Bot.DeduplicationKey != "":
		bot.DeduplicationKey = *data.BotData.Bot.DeduplicationKey
	}

	return []models.ProvisionedBot{bot}, nil
}

// RemoveBot makes the bot leave, or cancels it when it has not joined yet
func (c *Client) RemoveBot(ctx context.Context, botID string) error {
	if botID == "" {
		return domain.NewValidationError("bot id is required")
	}
	return c.rest.Do(ctx, http.MethodDelete, fmt.Sprintf("/bots/%s", url.PathEscape(botID)), nil, nil, nil)
}
