// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// MockBotRepository implements domain.BotRepository for testing
type MockBotRepository struct {
	mock.Mock
}

func (m *MockBotRepository) Create(ctx context.Context, bot *models.Bot) (*models.Bot, error) {
	args := m.Called(ctx, bot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bot), args.Error(1)
}

func (m *MockBotRepository) Get(ctx context.Context, botID string) (*models.Bot, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bot), args.Error(1)
}

func (m *MockBotRepository) GetByDeduplicationKey(ctx context.Context, key string) (*models.Bot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bot), args.Error(1)
}

func (m *MockBotRepository) Patch(ctx context.Context, botID string, patch models.BotPatch) (*models.Bot, *models.Bot, error) {
	args := m.Called(ctx, botID, patch)
	var before, after *models.Bot
	if b := args.Get(0); b != nil {
		before = b.(*models.Bot)
	}
	if a := args.Get(1); a != nil {
		after = a.(*models.Bot)
	}
	return before, after, args.Error(2)
}

func (m *MockBotRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Bot, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bot), args.Error(1)
}

func (m *MockBotRepository) SoftRemoveByEvent(ctx context.Context, eventID string) ([]*models.Bot, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bot), args.Error(1)
}

func (m *MockBotRepository) IsReady(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
