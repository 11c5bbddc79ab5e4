// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

type fakeQueue struct {
	envelopes []models.EventEnvelope
	uploads   []models.UploadVideoTask
	err       error
}

func (q *fakeQueue) PublishEvent(_ context.Context, envelope models.EventEnvelope) error {
	q.envelopes = append(q.envelopes, envelope)
	return q.err
}

func (q *fakeQueue) PublishUploadVideo(_ context.Context, task models.UploadVideoTask) error {
	q.uploads = append(q.uploads, task)
	return q.err
}

func useFakeQueue(t *testing.T, q *fakeQueue) *bool {
	t.Helper()
	closed := false
	original := connect
	connect = func(context.Context) (taskQueue, func(), error) {
		return q, func() { closed = true }, nil
	}
	t.Cleanup(func() { connect = original })
	return &closed
}

func TestSyncCalendarCommand(t *testing.T) {
	q := &fakeQueue{}
	closed := useFakeQueue(t, q)
	now := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

	cmd := &syncCalendarCommand{CalendarID: "cal-1", Full: true, now: func() time.Time { return now }}
	require.NoError(t, cmd.Execute(nil))

	require.Len(t, q.envelopes, 1)
	envelope := q.envelopes[0]
	assert.True(t, strings.HasPrefix(envelope.ID, "manual-"))
	assert.Equal(t, models.WebhookSourceMeetingEvents, envelope.Source)

	event, err := envelope.Event()
	require.NoError(t, err)
	assert.Equal(t, models.CalendarSyncEvent{CalendarID: "cal-1", LastUpdated: now, Full: true}, event)
	assert.True(t, *closed)
}

func TestUploadVideoCommand(t *testing.T) {
	tests := []struct {
		name        string
		cmd         uploadVideoCommand
		publishErr  error
		expectErr   bool
		expectTasks int
	}{
		{
			name:        "queues upload under the bot object name",
			cmd:         uploadVideoCommand{BotID: "b1", VideoURL: "https://cdn.example.com/b1.mp4", Provider: "recall"},
			expectTasks: 1,
		},
		{
			name:      "unknown provider",
			cmd:       uploadVideoCommand{BotID: "b1", VideoURL: "https://cdn.example.com/b1.mp4", Provider: "teams"},
			expectErr: true,
		},
		{
			name:        "publish failure",
			cmd:         uploadVideoCommand{BotID: "b1", VideoURL: "https://cdn.example.com/b1.mp4", Provider: "meeting_baas"},
			publishErr:  errors.New("stream not found"),
			expectErr:   true,
			expectTasks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{err: tt.publishErr}
			useFakeQueue(t, q)

			err := tt.cmd.Execute(nil)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, q.uploads, tt.expectTasks)
			if tt.expectTasks > 0 {
				assert.Equal(t, "b1.mp4", q.uploads[0].FileName)
				assert.Equal(t, models.Provider(tt.cmd.Provider), q.uploads[0].Provider)
			}
		})
	}
}

func TestParser_RequiresCommandFlags(t *testing.T) {
	q := &fakeQueue{}
	useFakeQueue(t, q)

	parser := newParser()
	parser.Options = 0
	_, err := parser.ParseArgs([]string{"upload-video", "--bot-id", "b1"})
	require.Error(t, err)
	assert.Empty(t, q.uploads)
}
