// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/utils"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// WorkerCount bounds the concurrent side effects of one task (ingestion branches, upstream cleanup calls).
	WorkerCount int
}

// withLabel prefixes a notification with the user or bot it is about
func withLabel(label, text string) string {
	if label == "" {
		return text
	}
	return "[" + label + "] " + text
}

// persistBot stores a provisioned bot. A bot that already exists under the same
// id or deduplication key is reused; a previously removed one is reactivated.
func persistBot(ctx context.Context, bots domain.BotRepository, bot *models.Bot) (*models.Bot, error) {
	stored, err := bots.Create(ctx, bot)
	if err == nil {
		return stored, nil
	}
	if !domain.IsErrorType(err, domain.ErrorTypeConflict) || stored == nil {
		return nil, err
	}

	if stored.ID == bot.ID && stored.IsRemoved {
		slog.InfoContext(ctx, "reactivating removed bot", logging.BotIDKey, bot.ID)
		_, after, patchErr := bots.Patch(ctx, bot.ID, models.BotPatch{IsRemoved: utils.Ptr(false)})
		if patchErr != nil {
			return nil, patchErr
		}
		return after, nil
	}

	slog.InfoContext(ctx, "bot already exists for deduplication key, reusing it",
		logging.BotIDKey, stored.ID,
		"requested_bot_id", bot.ID,
		"deduplication_key", bot.DeduplicationKey,
	)
	return stored, nil
}
