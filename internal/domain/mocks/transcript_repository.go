// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// MockTranscriptRepository implements domain.TranscriptRepository for testing
type MockTranscriptRepository struct {
	mock.Mock
}

func (m *MockTranscriptRepository) InsertSlices(ctx context.Context, slices []models.TranscriptSlice) ([]models.TranscriptSlice, error) {
	args := m.Called(ctx, slices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TranscriptSlice), args.Error(1)
}

func (m *MockTranscriptRepository) InsertWords(ctx context.Context, words []models.TranscriptWord) error {
	args := m.Called(ctx, words)
	return args.Error(0)
}

func (m *MockTranscriptRepository) ListSlices(ctx context.Context, botID string) ([]models.TranscriptSlice, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TranscriptSlice), args.Error(1)
}

func (m *MockTranscriptRepository) ListWords(ctx context.Context, botID string) ([]models.TranscriptWord, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TranscriptWord), args.Error(1)
}

func (m *MockTranscriptRepository) IsReady(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
