// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedProfileRepository(t *testing.T) {
	ctx := context.Background()
	kv := newMockNatsKeyValue()
	backing := NewNatsProfileRepository(kv)
	cached := NewCachedProfileRepository(backing, time.Minute)

	require.NoError(t, backing.Put(ctx, &models.Profile{ID: "p1", Email: "ada@example.com"}))

	first, err := cached.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Email)

	// backing store changes are not seen until the entry expires
	kv.getError = assertNotCalledError{}
	second, err := cached.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", second.Email)

	// callers get copies
	second.Email = "mutated@example.com"
	third, _ := cached.Get(ctx, "p1")
	assert.Equal(t, "ada@example.com", third.Email)

	kv.getError = nil
	_, err = cached.Get(ctx, "missing")
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestCachedUserSettingsRepository_WriteThrough(t *testing.T) {
	ctx := context.Background()
	backing := NewNatsUserSettingsRepository(newMockNatsKeyValue())
	cached := NewCachedUserSettingsRepository(backing, time.Minute)

	require.NoError(t, cached.Put(ctx, &models.UserSettings{ProfileID: "p1", ShouldJoinTeamMeetings: true}))
	got, err := cached.GetByProfile(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.ShouldJoinTeamMeetings)

	require.NoError(t, cached.Put(ctx, &models.UserSettings{ProfileID: "p1", ShouldJoinTeamMeetings: false}))
	got, err = cached.GetByProfile(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, got.ShouldJoinTeamMeetings)

	fromStore, err := backing.GetByProfile(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, fromStore.ShouldJoinTeamMeetings)
}

type assertNotCalledError struct{}

func (assertNotCalledError) Error() string { return "backing store must not be called" }
