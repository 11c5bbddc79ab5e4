// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// MockBotProvider implements domain.BotProvider for testing
type MockBotProvider struct {
	mock.Mock
	ProviderName models.Provider
}

// NewMockBotProvider creates a provider mock reporting the given name
func NewMockBotProvider(name models.Provider) *MockBotProvider {
	return &MockBotProvider{ProviderName: name}
}

func (m *MockBotProvider) Name() models.Provider {
	return m.ProviderName
}

func (m *MockBotProvider) CreateBot(ctx context.Context, request models.CreateBotRequest) ([]models.ProvisionedBot, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProvisionedBot), args.Error(1)
}

func (m *MockBotProvider) RemoveBot(ctx context.Context, botID string) error {
	args := m.Called(ctx, botID)
	return args.Error(0)
}

// MockBotArtifactSource implements domain.BotArtifactSource for testing
type MockBotArtifactSource struct {
	mock.Mock
}

func (m *MockBotArtifactSource) GetBot(ctx context.Context, botID string) (*models.ProviderBot, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderBot), args.Error(1)
}

func (m *MockBotArtifactSource) GetTranscript(ctx context.Context, botID string) ([]models.TranscriptSegment, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TranscriptSegment), args.Error(1)
}

// MockCalendarSource implements domain.CalendarSource for testing
type MockCalendarSource struct {
	mock.Mock
}

func (m *MockCalendarSource) ListCalendarEvents(ctx context.Context, calendarID string, updatedSince *time.Time) ([]models.CalendarEvent, error) {
	args := m.Called(ctx, calendarID, updatedSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CalendarEvent), args.Error(1)
}

func (m *MockCalendarSource) CancelEventBots(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}
