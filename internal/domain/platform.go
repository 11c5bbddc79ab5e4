// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// BotProvider defines the operations every recording provider integration offers
type BotProvider interface {
	Name() models.Provider

	// CreateBot provisions one or more bots for the request
	CreateBot(ctx context.Context, request models.CreateBotRequest) ([]models.ProvisionedBot, error)

	// RemoveBot cancels a scheduled bot or makes a running bot leave
	RemoveBot(ctx context.Context, botID string) error
}

// BotArtifactSource retrieves recording artifacts from a provider that does not push them in webhooks
type BotArtifactSource interface {
	GetBot(ctx context.Context, botID string) (*models.ProviderBot, error)
	GetTranscript(ctx context.Context, botID string) ([]models.TranscriptSegment, error)
}

// CalendarSource reads provider-synced calendars
type CalendarSource interface {
	// ListCalendarEvents returns events updated at or after updatedSince, or all events when it is nil
	ListCalendarEvents(ctx context.Context, calendarID string, updatedSince *time.Time) ([]models.CalendarEvent, error)

	// CancelEventBots removes every provider bot scheduled for the calendar event
	CancelEventBots(ctx context.Context, eventID string) error
}

// BotProviderRegistry resolves providers by name or by meeting platform
type BotProviderRegistry interface {
	GetProvider(provider models.Provider) (BotProvider, error)
	RegisterProvider(provider BotProvider)
	ForPlatform(platform models.MeetingPlatform) (BotProvider, error)
	ForMeetingURL(meetingURL string) (BotProvider, error)
}
