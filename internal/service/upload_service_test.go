// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/utils"
)

func newUploadFixture() (*UploadService, *mocks.MockBotRepository, *mocks.MockSourceFetcher, *mocks.MockRecordingStorage, *mocks.RecordingNotifier) {
	bots := &mocks.MockBotRepository{}
	fetcher := &mocks.MockSourceFetcher{}
	storage := &mocks.MockRecordingStorage{}
	notifier := &mocks.RecordingNotifier{}
	svc := NewUploadService(bots, fetcher, storage, notifier)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 16, 0, 0, 0, time.UTC) }
	return svc, bots, fetcher, storage, notifier
}

func uploadTask() models.UploadVideoTask {
	return models.UploadVideoTask{
		BotID:    "b1",
		Provider: models.ProviderRecall,
		VideoURL: testVideoURL,
		FileName: testObjectName,
	}
}

func TestUploadService_UploadVideo(t *testing.T) {
	svc, bots, fetcher, storage, notifier := newUploadFixture()

	fetcher.On("Fetch", mock.Anything, testVideoURL).Return(io.NopCloser(strings.NewReader("mp4 bytes")), nil)
	storage.On("PutRecording", mock.Anything, testObjectName, mock.Anything, map[string]string{
		"meeting_bot_id":   "b1",
		"video_url":        testVideoURL,
		"provider":         "recall",
		"upload_timestamp": "2025-03-04T16:00:00Z",
	}).Return(&models.StoredRecording{Name: testObjectName, Size: 3 * 1024 * 1024}, nil).Once()
	storage.On("PublicURL", testObjectName).Return(testPublicURL)
	bots.On("Get", mock.Anything, "b1").Return(doneBot(), nil)
	bots.On("Patch", mock.Anything, "b1", models.BotPatch{MP4SourceURL: utils.Ptr(testPublicURL)}).
		Return(doneBot(), doneBot(), nil).Once()

	require.NoError(t, svc.UploadVideo(context.Background(), uploadTask()))

	assert.True(t, notifier.Has(domain.SeveritySend, "🎥 Starting video upload to storage for bot b1"))
	assert.True(t, notifier.Has(domain.SeveritySuccess, "Successfully uploaded video for bot b1 to storage (3.00MB)"))
	bots.AssertExpectations(t)
	fetcher.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestUploadService_UploadVideo_URLUnchanged(t *testing.T) {
	svc, bots, fetcher, storage, _ := newUploadFixture()

	linked := doneBot()
	linked.MP4SourceURL = utils.Ptr(testPublicURL)
	fetcher.On("Fetch", mock.Anything, testVideoURL).Return(io.NopCloser(strings.NewReader("x")), nil)
	storage.On("PutRecording", mock.Anything, testObjectName, mock.Anything, mock.Anything).
		Return(&models.StoredRecording{Name: testObjectName, Size: 1}, nil)
	storage.On("PublicURL", testObjectName).Return(testPublicURL)
	bots.On("Get", mock.Anything, "b1").Return(linked, nil)

	require.NoError(t, svc.UploadVideo(context.Background(), uploadTask()))
	bots.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadService_UploadVideo_Failures(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(bots *mocks.MockBotRepository, fetcher *mocks.MockSourceFetcher, storage *mocks.MockRecordingStorage)
		expectErr   bool
		expectedMsg string
	}{
		{
			name: "download failure is retried",
			setup: func(_ *mocks.MockBotRepository, fetcher *mocks.MockSourceFetcher, _ *mocks.MockRecordingStorage) {
				fetcher.On("Fetch", mock.Anything, testVideoURL).Return(nil, domain.NewUnavailableError("source returned 503"))
			},
			expectErr:   true,
			expectedMsg: "Failed to upload video for bot b1 to storage: source returned 503",
		},
		{
			name: "storage failure is retried",
			setup: func(_ *mocks.MockBotRepository, fetcher *mocks.MockSourceFetcher, storage *mocks.MockRecordingStorage) {
				fetcher.On("Fetch", mock.Anything, testVideoURL).Return(io.NopCloser(strings.NewReader("x")), nil)
				storage.On("PutRecording", mock.Anything, testObjectName, mock.Anything, mock.Anything).
					Return(nil, errors.New("object store full"))
			},
			expectErr:   true,
			expectedMsg: "Failed to upload video for bot b1 to storage: object store full",
		},
		{
			name: "missing bot after upload is dropped",
			setup: func(bots *mocks.MockBotRepository, fetcher *mocks.MockSourceFetcher, storage *mocks.MockRecordingStorage) {
				fetcher.On("Fetch", mock.Anything, testVideoURL).Return(io.NopCloser(strings.NewReader("x")), nil)
				storage.On("PutRecording", mock.Anything, testObjectName, mock.Anything, mock.Anything).
					Return(&models.StoredRecording{Name: testObjectName}, nil)
				storage.On("PublicURL", testObjectName).Return(testPublicURL)
				bots.On("Get", mock.Anything, "b1").Return(nil, domain.NewNotFoundError("bot not found"))
			},
			expectedMsg: "Failed to update bot b1 with storage url: bot not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, bots, fetcher, storage, notifier := newUploadFixture()
			tt.setup(bots, fetcher, storage)

			err := svc.UploadVideo(context.Background(), uploadTask())
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, notifier.Has(domain.SeverityError, tt.expectedMsg))
		})
	}
}

func TestUploadService_UploadVideo_InvalidTask(t *testing.T) {
	svc, _, fetcher, _, _ := newUploadFixture()

	err := svc.UploadVideo(context.Background(), models.UploadVideoTask{BotID: "b1"})
	require.Error(t, err)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeValidation))
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}
