// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// MockVideoHosting implements domain.VideoHosting for testing
type MockVideoHosting struct {
	mock.Mock
}

func (m *MockVideoHosting) FindByBotID(ctx context.Context, botID string) (*models.HostedVideo, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HostedVideo), args.Error(1)
}

func (m *MockVideoHosting) CreateVideo(ctx context.Context, request models.CreateHostedVideoRequest) (*models.HostedVideo, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HostedVideo), args.Error(1)
}

// MockRecordingStorage implements domain.RecordingStorage for testing
type MockRecordingStorage struct {
	mock.Mock
}

func (m *MockRecordingStorage) PutRecording(ctx context.Context, name string, content io.Reader, metadata map[string]string) (*models.StoredRecording, error) {
	args := m.Called(ctx, name, content, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoredRecording), args.Error(1)
}

func (m *MockRecordingStorage) OpenRecording(ctx context.Context, name string) (io.ReadCloser, *models.StoredRecording, error) {
	args := m.Called(ctx, name)
	var body io.ReadCloser
	var info *models.StoredRecording
	if b := args.Get(0); b != nil {
		body = b.(io.ReadCloser)
	}
	if i := args.Get(1); i != nil {
		info = i.(*models.StoredRecording)
	}
	return body, info, args.Error(2)
}

func (m *MockRecordingStorage) PublicURL(name string) string {
	args := m.Called(name)
	return args.String(0)
}

// MockSourceFetcher implements domain.SourceFetcher for testing
type MockSourceFetcher struct {
	mock.Mock
}

func (m *MockSourceFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockSourceFetcher) Probe(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// MockVideoProcessor implements domain.VideoProcessor for testing
type MockVideoProcessor struct {
	mock.Mock
}

func (m *MockVideoProcessor) ProcessVideo(ctx context.Context, botID string) error {
	args := m.Called(ctx, botID)
	return args.Error(0)
}

// Notification is one message captured by RecordingNotifier
type Notification struct {
	Severity domain.Severity
	Text     string
}

// RecordingNotifier implements domain.Notifier and keeps every message it is sent
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []Notification
}

func (n *RecordingNotifier) Send(_ context.Context, severity domain.Severity, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, Notification{Severity: severity, Text: text})
}

// Messages returns a copy of the notifications sent so far
func (n *RecordingNotifier) Messages() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.messages...)
}

// Has reports whether a notification with the given severity and text was sent
func (n *RecordingNotifier) Has(severity domain.Severity, text string) bool {
	for _, msg := range n.Messages() {
		if msg.Severity == severity && msg.Text == text {
			return true
		}
	}
	return false
}
