// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// BotRepository owns the persisted fields of bots.
type BotRepository interface {
	// Create stores a new bot. When an active bot already holds the same deduplication key
	// the existing bot is returned together with a Conflict error.
	Create(ctx context.Context, bot *models.Bot) (*models.Bot, error)
	Get(ctx context.Context, botID string) (*models.Bot, error)
	GetByDeduplicationKey(ctx context.Context, key string) (*models.Bot, error)
	// Patch merges patch into the stored bot atomically and returns the bot before and after.
	Patch(ctx context.Context, botID string, patch models.BotPatch) (before *models.Bot, after *models.Bot, err error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Bot, error)
	// SoftRemoveByEvent flags every active bot of the event as removed and returns them.
	SoftRemoveByEvent(ctx context.Context, eventID string) ([]*models.Bot, error)
	IsReady(ctx context.Context) error
}

// CalendarEventRepository stores synced calendar events.
type CalendarEventRepository interface {
	Upsert(ctx context.Context, event *models.CalendarEvent) error
	Get(ctx context.Context, eventID string) (*models.CalendarEvent, error)
}

// CalendarRepository stores calendar connections.
type CalendarRepository interface {
	Get(ctx context.Context, calendarID string) (*models.Calendar, error)
	Put(ctx context.Context, calendar *models.Calendar) error
}

// ProfileRepository stores user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, profileID string) (*models.Profile, error)
	Put(ctx context.Context, profile *models.Profile) error
}

// UserSettingsRepository stores user join preferences.
type UserSettingsRepository interface {
	GetByProfile(ctx context.Context, profileID string) (*models.UserSettings, error)
	Put(ctx context.Context, settings *models.UserSettings) error
}

// TranscriptRepository stores normalized transcripts. Rows are write-once.
type TranscriptRepository interface {
	// InsertSlices stores slices and returns them with their generated ids, in input order.
	InsertSlices(ctx context.Context, slices []models.TranscriptSlice) ([]models.TranscriptSlice, error)
	InsertWords(ctx context.Context, words []models.TranscriptWord) error
	ListSlices(ctx context.Context, botID string) ([]models.TranscriptSlice, error)
	ListWords(ctx context.Context, botID string) ([]models.TranscriptWord, error)
	IsReady(ctx context.Context) error
}
