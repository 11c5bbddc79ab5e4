// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// NatsProfileRepository stores user profiles in NATS KV
type NatsProfileRepository struct {
	*NatsBaseRepository[models.Profile]
	kb *KeyBuilder
}

// NewNatsProfileRepository creates a new NATS KV-based profile repository
func NewNatsProfileRepository(kvStore INatsKeyValue) *NatsProfileRepository {
	return &NatsProfileRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Profile](kvStore, "profile"),
		kb:                 NewKeyBuilder(""),
	}
}

// Get returns a profile by id
func (r *NatsProfileRepository) Get(ctx context.Context, profileID string) (*models.Profile, error) {
	if profileID == "" {
		return nil, domain.NewValidationError("profile id is required")
	}
	return r.NatsBaseRepository.Get(ctx, r.kb.EntityKey(KeyPrefixProfile, profileID))
}

// Put stores a profile
func (r *NatsProfileRepository) Put(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.NewValidationError("profile id is required")
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	profile.UpdatedAt = time.Now().UTC()
	_, err := r.NatsBaseRepository.Put(ctx, r.kb.EntityKey(KeyPrefixProfile, profile.ID), profile)
	return err
}

// NatsUserSettingsRepository stores join preferences in NATS KV, keyed by profile
type NatsUserSettingsRepository struct {
	*NatsBaseRepository[models.UserSettings]
	kb *KeyBuilder
}

// NewNatsUserSettingsRepository creates a new NATS KV-based user settings repository
func NewNatsUserSettingsRepository(kvStore INatsKeyValue) *NatsUserSettingsRepository {
	return &NatsUserSettingsRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.UserSettings](kvStore, "user settings"),
		kb:                 NewKeyBuilder(""),
	}
}

// GetByProfile returns the settings of a profile
func (r *NatsUserSettingsRepository) GetByProfile(ctx context.Context, profileID string) (*models.UserSettings, error) {
	if profileID == "" {
		return nil, domain.NewValidationError("profile id is required")
	}
	return r.NatsBaseRepository.Get(ctx, r.kb.EntityKey(KeyPrefixUserSettings, profileID))
}

// Put stores the settings of a profile
func (r *NatsUserSettingsRepository) Put(ctx context.Context, settings *models.UserSettings) error {
	if settings == nil || settings.ProfileID == "" {
		return domain.NewValidationError("profile id is required")
	}
	settings.UpdatedAt = time.Now().UTC()
	_, err := r.NatsBaseRepository.Put(ctx, r.kb.EntityKey(KeyPrefixUserSettings, settings.ProfileID), settings)
	return err
}
