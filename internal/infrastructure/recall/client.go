// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package recall integrates the Recall.ai bot and calendar APIs.
package recall

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
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
)

const (
	// DefaultBaseURL is the regional Recall.ai API endpoint
	DefaultBaseURL = "https://us-west-2.recall.ai"

	// TranscriptionProvider is the transcription engine bots are created with
	TranscriptionProvider = "gladia"

	// maxCalendarPages guards against a pagination cursor that never ends
	maxCalendarPages = 1000
)

// Config holds the configuration for the Recall.ai client
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	APIKey    string            `yaml:"-"`
	Timeout   time.Duration     `yaml:"timeout"`
	Retry     retry.Policy      `yaml:"retry"`
	Transport http.RoundTripper `yaml:"-"`
}

// Client implements BotProvider, BotArtifactSource and CalendarSource for Recall.ai
type Client struct {
	rest *rest.Client
}

// NewClient creates a new Recall.ai client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Client{
		rest: rest.NewClient(rest.Config{
			Name:      "recall",
			BaseURL:   config.BaseURL,
			Timeout:   config.Timeout,
			Headers:   map[string]string{"Authorization": "Token " + config.APIKey},
			Retry:     config.Retry,
			Transport: config.Transport,
		}),
	}
}

// Name returns the provider name
func (c *Client) Name() models.Provider {
	return models.ProviderRecall
}

func botConfig(request models.CreateBotRequest) BotConfig {
	return BotConfig{
		BotName: request.BotName,
		AutomaticLeave: AutomaticLeave{
			WaitingRoomTimeout: constants.WaitingRoomTimeoutSeconds,
			NooneJoinedTimeout: constants.NooneJoinedTimeoutSeconds,
		},
		TranscriptionOptions: TranscriptionOptions{Provider: TranscriptionProvider},
		Metadata:             request.Metadata,
	}
}

// CreateBot schedules a bot on the provider calendar event when EventID is set, otherwise joins the meeting directly
func (c *Client) CreateBot(ctx context.Context, request models.CreateBotRequest) ([]models.ProvisionedBot, error) {
	if request.EventID != "" {
		return c.scheduleEventBot(ctx, request)
	}

	if request.MeetingURL == "" {
		return nil, domain.NewValidationError("meeting url is required")
	}

	body := CreateBotRequest{
		BotConfig:        botConfig(request),
		MeetingURL:       request.MeetingURL,
		JoinAt:           request.StartTime,
		DeduplicationKey: request.DeduplicationKey,
	}

	var bot Bot
	if err := c.rest.Create(ctx, "/api/v1/bot/", body, &bot); err != nil {
		return nil, err
	}
	if bot.ID == "" {
		return nil, domain.NewUnavailableError("recall returned a bot without id")
	}

	return []models.ProvisionedBot{{ID: bot.ID, DeduplicationKey: request.DeduplicationKey}}, nil
}

func (c *Client) scheduleEventBot(ctx context.Context, request models.CreateBotRequest) ([]models.ProvisionedBot, error) {
	body := ScheduleEventBotRequest{
		DeduplicationKey: request.DeduplicationKey,
		BotConfig:        botConfig(request),
	}

	// recall keeps one bot per deduplication key on a calendar event, so a repeated attempt is harmless
	var event CalendarEvent
	path := fmt.Sprintf("/api/v2/calendar-events/%s/bot/", url.PathEscape(request.EventID))
	if err := c.rest.Do(ctx, http.MethodPost, path, nil, body, &event); err != nil {
		return nil, err
	}

	var matching, all []models.ProvisionedBot
	for _, bot := range event.Bots {
		provisioned := models.ProvisionedBot{ID: bot.BotID, DeduplicationKey: bot.DeduplicationKey}
		all = append(all, provisioned)
		if bot.DeduplicationKey == request.DeduplicationKey {
			matching = append(matching, provisioned)
		}
	}
	if len(all) == 0 {
		return nil, domain.NewUnavailableError("recall scheduled no bot for calendar event " + request.EventID)
	}
	if len(matching) == 0 {
		slog.WarnContext(ctx, "recall calendar event bots do not carry the requested deduplication key",
			"event_id", request.EventID,
			"bots", len(all),
		)
		return all, nil
	}
	return matching, nil
}

// RemoveBot makes a running bot leave its call
func (c *Client) RemoveBot(ctx context.Context, botID string) error {
	if botID == "" {
		return domain.NewValidationError("bot id is required")
	}
	path := fmt.Sprintf("/api/v1/bot/%s/leave_call/", url.PathEscape(botID))
	return c.rest.Do(ctx, http.MethodPost, path, nil, nil, nil)
}

// CancelEventBots removes every bot scheduled for the calendar event
func (c *Client) CancelEventBots(ctx context.Context, eventID string) error {
	if eventID == "" {
		return domain.NewValidationError("event id is required")
	}
	path := fmt.Sprintf("/api/v2/calendar-events/%s/bot/", url.PathEscape(eventID))
	return c.rest.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListCalendarEvents follows the pagination cursor until every matching event is read
func (c *Client) ListCalendarEvents(ctx context.Context, calendarID string, updatedSince *time.Time) ([]models.CalendarEvent, error) {
	if calendarID == "" {
		return nil, domain.NewValidationError("calendar id is required")
	}

	query := url.Values{"calendar_id": {calendarID}}
	if updatedSince != nil {
		query.Set("updated_at__gte", updatedSince.UTC().Format(time.RFC3339Nano))
	}

	var events []models.CalendarEvent
	next := c.rest.URL("/api/v2/calendar-events/", query)
	for page := 0; next != ""; page++ {
		if page >= maxCalendarPages {
			return nil, domain.NewUnavailableError(fmt.Sprintf("recall calendar events exceeded %d pages", maxCalendarPages))
		}

		var result CalendarEventPage
		if err := c.rest.DoURL(ctx, http.MethodGet, next, nil, &result); err != nil {
			return nil, err
		}
		for _, event := range result.Results {
			events = append(events, event.ToDomain())
		}

		next = ""
		if result.Next != nil {
			next = *result.Next
		}
	}

	slog.DebugContext(ctx, "listed recall calendar events",
		"calendar_id", calendarID,
		"count", len(events),
	)
	return events, nil
}

// GetBot retrieves the recording url and participants of a bot
func (c *Client) GetBot(ctx context.Context, botID string) (*models.ProviderBot, error) {
	if botID == "" {
		return nil, domain.NewValidationError("bot id is required")
	}

	var bot Bot
	path := fmt.Sprintf("/api/v1/bot/%s/", url.PathEscape(botID))
	if err := c.rest.Do(ctx, http.MethodGet, path, nil, nil, &bot); err != nil {
		return nil, err
	}

	result := &models.ProviderBot{ID: botID}
	if bot.VideoURL != nil {
		result.VideoURL = *bot.VideoURL
	}
	for _, p := range bot.MeetingParticipants {
		result.Participants = append(result.Participants, p.Name)
	}
	return result, nil
}

// GetTranscript retrieves the speaker-segmented transcript of a bot
func (c *Client) GetTranscript(ctx context.Context, botID string) ([]models.TranscriptSegment, error) {
	if botID == "" {
		return nil, domain.NewValidationError("bot id is required")
	}

	var entries []TranscriptEntry
	path := fmt.Sprintf("/api/v1/bot/%s/transcript/", url.PathEscape(botID))
	if err := c.rest.Do(ctx, http.MethodGet, path, nil, nil, &entries); err != nil {
		return nil, err
	}

	segments := make([]models.TranscriptSegment, 0, len(entries))
	for _, entry := range entries {
		segments = append(segments, entry.toDomain())
	}
	return segments, nil
}
