// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// maxCASAttempts bounds the read-modify-write loops on contended keys
const maxCASAttempts = 5

// NatsBotRepository stores bots in NATS KV.
//
// Layout:
//   - bot.<id>                       the bot record
//   - index.event.<event_id>.<id>    bots of a calendar event
//   - index.dedup.<key>              the active bot holding a deduplication key
type NatsBotRepository struct {
	*NatsBaseRepository[models.Bot]
	kb  *KeyBuilder
	now func() time.Time
}

// NewNatsBotRepository creates a new NATS KV-based bot repository
func NewNatsBotRepository(kvStore INatsKeyValue) *NatsBotRepository {
	return &NatsBotRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Bot](kvStore, "bot"),
		kb:                 NewKeyBuilder(""),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// IsReady reports whether the bucket is bound
func (r *NatsBotRepository) IsReady(ctx context.Context) error {
	if !r.NatsBaseRepository.IsReady() {
		return r.unavailable()
	}
	return nil
}

func (r *NatsBotRepository) botKey(botID string) string {
	return r.kb.EntityKey(KeyPrefixBot, botID)
}

func (r *NatsBotRepository) dedupKey(key string) string {
	return r.kb.UniqueIndexKey(KeyPrefixIndexDeduplication, key)
}

// Create stores a new bot after claiming its deduplication key.
// If another active bot holds the key, that bot is returned with a Conflict error.
func (r *NatsBotRepository) Create(ctx context.Context, bot *models.Bot) (*models.Bot, error) {
	if bot == nil || bot.ID == "" {
		return nil, domain.NewValidationError("bot id is required")
	}
	if !bot.Provider.IsValid() {
		return nil, domain.NewValidationError("unknown bot provider: " + string(bot.Provider))
	}

	now := r.now()
	if bot.CreatedAt.IsZero() {
		bot.CreatedAt = now
	}
	bot.UpdatedAt = now

	if bot.DeduplicationKey != "" {
		existing, err := r.claimDeduplicationKey(ctx, bot)
		if err != nil {
			return existing, err
		}
	}

	if _, err := r.NatsBaseRepository.Create(ctx, r.botKey(bot.ID), bot); err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeConflict) {
			existing, getErr := r.Get(ctx, bot.ID)
			if getErr != nil {
				return nil, errors.Join(err, getErr)
			}
			return existing, err
		}
		r.releaseDeduplicationKey(ctx, bot)
		return nil, err
	}

	if bot.EventID != nil && *bot.EventID != "" {
		if err := r.PutIndex(ctx, r.kb.IndexKey(KeyPrefixIndexEvent, *bot.EventID, bot.ID), bot.ID); err != nil {
			return nil, err
		}
	}

	return bot, nil
}

// claimDeduplicationKey points the dedup index at bot. A claim held by a removed
// or missing bot is taken over.
func (r *NatsBotRepository) claimDeduplicationKey(ctx context.Context, bot *models.Bot) (*models.Bot, error) {
	key := r.dedupKey(bot.DeduplicationKey)

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		_, err := r.CreateIndex(ctx, key, bot.ID)
		if err == nil {
			return nil, nil
		}
		if !domain.IsErrorType(err, domain.ErrorTypeConflict) {
			return nil, err
		}

		ownerID, revision, err := r.GetIndex(ctx, key)
		if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if ownerID == bot.ID {
			return nil, nil
		}

		owner, err := r.Get(ctx, ownerID)
		switch {
		case err == nil && !owner.IsRemoved:
			return owner, domain.NewConflictError("an active bot already holds deduplication key " + bot.DeduplicationKey)
		case err != nil && !domain.IsErrorType(err, domain.ErrorTypeNotFound):
			return nil, err
		}

		if _, err := r.UpdateIndex(ctx, key, bot.ID, revision); err == nil {
			return nil, nil
		} else if !domain.IsErrorType(err, domain.ErrorTypeConflict) {
			return nil, err
		}
	}

	return nil, domain.NewConflictError("deduplication key " + bot.DeduplicationKey + " is contended")
}

// releaseDeduplicationKey frees the dedup index if bot still holds it
func (r *NatsBotRepository) releaseDeduplicationKey(ctx context.Context, bot *models.Bot) {
	if bot.DeduplicationKey == "" {
		return
	}
	key := r.dedupKey(bot.DeduplicationKey)
	ownerID, _, err := r.GetIndex(ctx, key)
	if err != nil || ownerID != bot.ID {
		return
	}
	if err := r.DeleteIndex(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to release deduplication key",
			logging.BotIDKey, bot.ID, logging.ErrKey, err)
	}
}

// Get returns a bot by its provider id
func (r *NatsBotRepository) Get(ctx context.Context, botID string) (*models.Bot, error) {
	if botID == "" {
		return nil, domain.NewValidationError("bot id is required")
	}
	return r.NatsBaseRepository.Get(ctx, r.botKey(botID))
}

// GetByDeduplicationKey returns the bot currently holding the key
func (r *NatsBotRepository) GetByDeduplicationKey(ctx context.Context, key string) (*models.Bot, error) {
	ownerID, _, err := r.GetIndex(ctx, r.dedupKey(key))
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, ownerID)
}

// Patch applies the partial update with a compare-and-swap on the bot revision,
// retrying when another writer got there first.
func (r *NatsBotRepository) Patch(ctx context.Context, botID string, patch models.BotPatch) (*models.Bot, *models.Bot, error) {
	key := r.botKey(botID)

	for attempt := 1; ; attempt++ {
		bot, revision, err := r.GetWithRevision(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		before := *bot
		if patch.IsEmpty() {
			return &before, bot, nil
		}

		patch.Apply(bot)
		bot.UpdatedAt = r.now()

		if _, err := r.Update(ctx, key, bot, revision); err != nil {
			if domain.IsErrorType(err, domain.ErrorTypeConflict) && attempt < maxCASAttempts {
				slog.DebugContext(ctx, "bot modified concurrently, retrying patch",
					logging.BotIDKey, botID, "attempt", attempt)
				continue
			}
			return nil, nil, err
		}

		if bot.IsRemoved && !before.IsRemoved {
			r.releaseDeduplicationKey(ctx, bot)
		}
		return &before, bot, nil
	}
}

// ListByEvent returns the bots of a calendar event, oldest first
func (r *NatsBotRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Bot, error) {
	keys, err := r.ListKeys(ctx, r.kb.IndexFilter(KeyPrefixIndexEvent, eventID))
	if err != nil {
		return nil, err
	}

	bots := make([]*models.Bot, 0, len(keys))
	for _, indexKey := range keys {
		botID, _, err := r.GetIndex(ctx, indexKey)
		if err != nil {
			slog.WarnContext(ctx, "failed to read event index, skipping",
				"index_key", indexKey, logging.ErrKey, err)
			continue
		}
		bot, err := r.Get(ctx, botID)
		if err != nil {
			slog.WarnContext(ctx, "failed to get indexed bot, skipping",
				logging.BotIDKey, botID, logging.ErrKey, err)
			continue
		}
		bots = append(bots, bot)
	}

	sort.SliceStable(bots, func(i, j int) bool { return bots[i].CreatedAt.Before(bots[j].CreatedAt) })
	return bots, nil
}

// SoftRemoveByEvent flags every active bot of the event as removed.
// Every bot is attempted; failures are joined into the returned error.
func (r *NatsBotRepository) SoftRemoveByEvent(ctx context.Context, eventID string) ([]*models.Bot, error) {
	bots, err := r.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	removed := true
	var (
		result []*models.Bot
		errs   []error
	)
	for _, bot := range bots {
		if bot.IsRemoved {
			continue
		}
		before, after, err := r.Patch(ctx, bot.ID, models.BotPatch{IsRemoved: &removed})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !before.IsRemoved {
			result = append(result, after)
		}
	}

	return result, errors.Join(errs...)
}
