// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

type mockWebhookProcessor struct {
	mock.Mock
}

func (m *mockWebhookProcessor) Authenticate(req service.WebhookRequest) error {
	return m.Called(req).Error(0)
}

func (m *mockWebhookProcessor) Process(ctx context.Context, req service.WebhookRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockWebhookProcessor) ServiceReady() bool { return true }

type mockLiveMeetingLauncher struct {
	mock.Mock
}

func (m *mockLiveMeetingLauncher) LaunchLiveMeeting(ctx context.Context, request service.LaunchLiveMeetingRequest) (*models.Bot, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bot), args.Error(1)
}

func (m *mockLiveMeetingLauncher) ServiceReady() bool { return true }

type httpFixture struct {
	webhooks   *mockWebhookProcessor
	live       *mockLiveMeetingLauncher
	recordings *mocks.MockRecordingStorage
	handler    http.Handler
}

func newHTTPFixture(checks ...ReadinessCheck) *httpFixture {
	f := &httpFixture{
		webhooks:   &mockWebhookProcessor{},
		live:       &mockLiveMeetingLauncher{},
		recordings: &mocks.MockRecordingStorage{},
	}
	var handler http.Handler = NewHTTPHandlers(f.webhooks, f.live, f.recordings, checks...).Router()
	handler = middleware.WebhookBodyCaptureMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	f.handler = handler
	return f
}

func (f *httpFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestWebhookRoutes(t *testing.T) {
	body := `{"event":"calendar.sync_events","data":{"calendar_id":"cal-1","last_updated_ts":"2025-03-04T15:00:00Z"}}`

	tests := []struct {
		name       string
		path       string
		source     models.WebhookSource
		full       bool
		processErr error
	}{
		{name: "recall", path: RecallWebhookPath, source: models.WebhookSourceRecall},
		{name: "meeting-baas", path: MeetingBaasWebhookPath, source: models.WebhookSourceMeetingBaas},
		{name: "meeting events full resync", path: MeetingEventsWebhookPath + "?full=true", source: models.WebhookSourceMeetingEvents, full: true},
		{
			name:       "malformed payload is still acknowledged",
			path:       RecallWebhookPath,
			source:     models.WebhookSourceRecall,
			processErr: domain.NewValidationError("webhook body is not a JSON object"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHTTPFixture()
			matches := mock.MatchedBy(func(req service.WebhookRequest) bool {
				return req.Source == tt.source &&
					string(req.Body) == body &&
					req.Full == tt.full &&
					req.Signature == "v0=abc" &&
					req.Timestamp == "1741100000" &&
					req.RequestID == "req-42"
			})
			f.webhooks.On("Authenticate", matches).Return(nil).Once()
			f.webhooks.On("Process", mock.Anything, matches).Return(tt.processErr).Once()

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(body))
			req.Header.Set(constants.WebhookSignatureHeader, "v0=abc")
			req.Header.Set(constants.WebhookTimestampHeader, "1741100000")
			req.Header.Set(constants.RequestIDHeader, "req-42")

			w := f.do(req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
			f.webhooks.AssertExpectations(t)
		})
	}
}

func TestWebhookRoutes_InvalidSignature(t *testing.T) {
	f := newHTTPFixture()
	f.webhooks.On("Authenticate", mock.Anything).Return(errors.New("invalid webhook signature"))

	w := f.do(httptest.NewRequest(http.MethodPost, MeetingBaasWebhookPath, strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.webhooks.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestLaunchLiveMeeting(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(live *mockLiveMeetingLauncher)
		expectedStatus int
		expected       LiveMeetingResponse
	}{
		{
			name: "launches bot",
			body: `{"user_id":"p1","meeting_url":"https://zoom.us/j/123"}`,
			setup: func(live *mockLiveMeetingLauncher) {
				live.On("LaunchLiveMeeting", mock.Anything, service.LaunchLiveMeetingRequest{
					UserID: "p1", MeetingURL: "https://zoom.us/j/123",
				}).Return(&models.Bot{ID: "baas-live"}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       LiveMeetingResponse{Success: true, BotID: "baas-live"},
		},
		{
			name:           "invalid json",
			body:           `{"user_id":`,
			setup:          func(*mockLiveMeetingLauncher) {},
			expectedStatus: http.StatusBadRequest,
			expected:       LiveMeetingResponse{Error: "invalid request body"},
		},
		{
			name: "unknown user",
			body: `{"user_id":"ghost","meeting_url":"https://meet.google.com/abc"}`,
			setup: func(live *mockLiveMeetingLauncher) {
				live.On("LaunchLiveMeeting", mock.Anything, mock.Anything).
					Return(nil, domain.NewNotFoundError(service.ErrMsgUserNotFound, errors.New("profile not found")))
			},
			expectedStatus: http.StatusNotFound,
			expected:       LiveMeetingResponse{Error: service.ErrMsgUserNotFound},
		},
		{
			name: "provider refused",
			body: `{"user_id":"p1","meeting_url":"https://zoom.us/j/123"}`,
			setup: func(live *mockLiveMeetingLauncher) {
				live.On("LaunchLiveMeeting", mock.Anything, mock.Anything).
					Return(nil, domain.NewUnavailableError(service.ErrMsgJoinFailed, errors.New("meeting not started")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       LiveMeetingResponse{Error: service.ErrMsgJoinFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHTTPFixture()
			tt.setup(f.live)

			w := f.do(httptest.NewRequest(http.MethodPost, LiveBotPath, strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var response LiveMeetingResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.expected, response)
		})
	}
}

func TestGetRecording(t *testing.T) {
	t.Run("streams the object", func(t *testing.T) {
		f := newHTTPFixture()
		f.recordings.On("OpenRecording", mock.Anything, "b1.mp4").Return(
			io.NopCloser(strings.NewReader("mp4 bytes")),
			&models.StoredRecording{Name: "b1.mp4", Size: 9},
			nil,
		)

		w := f.do(httptest.NewRequest(http.MethodGet, "/recordings/meetings/b1.mp4", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
		assert.Equal(t, "9", w.Header().Get("Content-Length"))
		assert.Equal(t, "mp4 bytes", w.Body.String())
	})

	t.Run("missing object", func(t *testing.T) {
		f := newHTTPFixture()
		f.recordings.On("OpenRecording", mock.Anything, "gone.mp4").
			Return(nil, nil, domain.NewNotFoundError("recording gone.mp4 not found"))

		w := f.do(httptest.NewRequest(http.MethodGet, "/recordings/meetings/gone.mp4", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown bucket", func(t *testing.T) {
		f := newHTTPFixture()

		w := f.do(httptest.NewRequest(http.MethodGet, "/recordings/private/b1.mp4", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		f.recordings.AssertNotCalled(t, "OpenRecording", mock.Anything, mock.Anything)
	})

	t.Run("head omits the body", func(t *testing.T) {
		f := newHTTPFixture()
		f.recordings.On("OpenRecording", mock.Anything, "b1.mp4").Return(
			io.NopCloser(strings.NewReader("mp4 bytes")),
			&models.StoredRecording{Name: "b1.mp4", Size: 9, ContentType: "video/mp4"},
			nil,
		)

		w := f.do(httptest.NewRequest(http.MethodHead, "/recordings/meetings/b1.mp4", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestHealthChecks(t *testing.T) {
	f := newHTTPFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, LivezPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK\n", w.Body.String())

	w = f.do(httptest.NewRequest(http.MethodGet, ReadyzPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	failing := newHTTPFixture(func(context.Context) error { return errors.New("kv bucket unavailable") })
	w = failing.do(httptest.NewRequest(http.MethodGet, ReadyzPath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
