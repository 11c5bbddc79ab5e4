// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// DefaultLookupCacheTTL keeps profile and settings lookups warm for one sync batch
const DefaultLookupCacheTTL = 2 * time.Minute

// CachedProfileRepository serves repeated profile reads from memory.
// Only found profiles are cached.
type CachedProfileRepository struct {
	next  domain.ProfileRepository
	cache *cache.Cache
}

// NewCachedProfileRepository wraps next with a go-cache of the given TTL
func NewCachedProfileRepository(next domain.ProfileRepository, ttl time.Duration) *CachedProfileRepository {
	return &CachedProfileRepository{next: next, cache: cache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached profile or loads it
func (r *CachedProfileRepository) Get(ctx context.Context, profileID string) (*models.Profile, error) {
	if cached, ok := r.cache.Get(profileID); ok {
		profile := cached.(models.Profile)
		return &profile, nil
	}
	profile, err := r.next.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(profileID, *profile)
	return profile, nil
}

// Put writes through and refreshes the cache
func (r *CachedProfileRepository) Put(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return r.next.Put(ctx, profile)
	}
	if err := r.next.Put(ctx, profile); err != nil {
		r.cache.Delete(profile.ID)
		return err
	}
	r.cache.SetDefault(profile.ID, *profile)
	return nil
}

// CachedUserSettingsRepository serves repeated settings reads from memory.
type CachedUserSettingsRepository struct {
	next  domain.UserSettingsRepository
	cache *cache.Cache
}

// NewCachedUserSettingsRepository wraps next with a go-cache of the given TTL
func NewCachedUserSettingsRepository(next domain.UserSettingsRepository, ttl time.Duration) *CachedUserSettingsRepository {
	return &CachedUserSettingsRepository{next: next, cache: cache.New(ttl, 2*ttl)}
}

// GetByProfile returns a copy of the cached settings or loads them
func (r *CachedUserSettingsRepository) GetByProfile(ctx context.Context, profileID string) (*models.UserSettings, error) {
	if cached, ok := r.cache.Get(profileID); ok {
		settings := cached.(models.UserSettings)
		return &settings, nil
	}
	settings, err := r.next.GetByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(profileID, *settings)
	return settings, nil
}

// Put writes through and refreshes the cache
func (r *CachedUserSettingsRepository) Put(ctx context.Context, settings *models.UserSettings) error {
	if settings == nil {
		return r.next.Put(ctx, settings)
	}
	if err := r.next.Put(ctx, settings); err != nil {
		r.cache.Delete(settings.ProfileID)
		return err
	}
	r.cache.SetDefault(settings.ProfileID, *settings)
	return nil
}
