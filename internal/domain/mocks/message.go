// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// MockMessage implements domain.Message for testing
type MockMessage struct {
	data    []byte
	subject string
	headers map[string]string
}

func (m *MockMessage) Subject() string {
	return m.subject
}

func (m *MockMessage) Data() []byte {
	return m.data
}

func (m *MockMessage) Header(key string) string {
	return m.headers[key]
}

// NewMockMessage creates a mock message for testing
func NewMockMessage(data []byte, subject string, headers map[string]string) *MockMessage {
	return &MockMessage{
		data:    data,
		subject: subject,
		headers: headers,
	}
}

// MockTaskPublisher implements domain.TaskPublisher for testing
type MockTaskPublisher struct {
	mock.Mock
}

func (m *MockTaskPublisher) PublishEvent(ctx context.Context, envelope models.EventEnvelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

func (m *MockTaskPublisher) PublishUploadVideo(ctx context.Context, task models.UploadVideoTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
