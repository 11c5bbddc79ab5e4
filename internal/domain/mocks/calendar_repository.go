// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// MockCalendarRepository implements domain.CalendarRepository for testing
type MockCalendarRepository struct {
	mock.Mock
}

func (m *MockCalendarRepository) Get(ctx context.Context, calendarID string) (*models.Calendar, error) {
	args := m.Called(ctx, calendarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Calendar), args.Error(1)
}

func (m *MockCalendarRepository) Put(ctx context.Context, calendar *models.Calendar) error {
	args := m.Called(ctx, calendar)
	return args.Error(0)
}

// MockCalendarEventRepository implements domain.CalendarEventRepository for testing
type MockCalendarEventRepository struct {
	mock.Mock
}

func (m *MockCalendarEventRepository) Upsert(ctx context.Context, event *models.CalendarEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockCalendarEventRepository) Get(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

// MockProfileRepository implements domain.ProfileRepository for testing
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Get(ctx context.Context, profileID string) (*models.Profile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Put(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockUserSettingsRepository implements domain.UserSettingsRepository for testing
type MockUserSettingsRepository struct {
	mock.Mock
}

func (m *MockUserSettingsRepository) GetByProfile(ctx context.Context, profileID string) (*models.UserSettings, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSettings), args.Error(1)
}

func (m *MockUserSettingsRepository) Put(ctx context.Context, settings *models.UserSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}
