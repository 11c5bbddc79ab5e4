// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StatusChange(t *testing.T) {
	body := `{
		"event": "bot.status_change",
		"data": {
			"bot_id": "bot-1",
			"status": {
				"code": "in_waiting_room",
				"created_at": "2026-05-01T09:00:00.123Z",
				"sub_code": "waiting_for_host",
				"message": null
			}
		}
	}`

	event, err := Normalize([]byte(body))
	require.NoError(t, err)

	change, ok := event.(models.StatusChangeEvent)
	require.True(t, ok)
	assert.Equal(t, "bot-1", change.BotID)
	assert.Equal(t, models.BotStatusInWaitingRoom, change.Code)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 123000000, time.UTC), change.CreatedAt.UTC())
	require.NotNil(t, change.SubCode)
	assert.Equal(t, "waiting_for_host", *change.SubCode)
	assert.Nil(t, change.Message)
	assert.Nil(t, change.RecordingID)
}

func TestNormalize_StatusChangeEmptyFieldsKeepStoredState(t *testing.T) {
	body := `{
		"event": "bot.status_change",
		"data": {
			"bot_id": "bot-1",
			"status": {
				"code": "in_call_recording",
				"created_at": "2026-05-01T09:05:00Z",
				"sub_code": "",
				"message": "  ",
				"recording_id": ""
			}
		}
	}`

	event, err := Normalize([]byte(body))
	require.NoError(t, err)
	change, ok := event.(models.StatusChangeEvent)
	require.True(t, ok)
	assert.Nil(t, change.SubCode)
	assert.Nil(t, change.Message)
	assert.Nil(t, change.RecordingID)

	subCode, message, recordingID := "waiting_for_host", "kept", "rec-1"
	bot := &models.Bot{ID: "bot-1", SubCode: &subCode, Message: &message, RecordingID: &recordingID}
	code := change.Code
	models.BotPatch{Status: &code, SubCode: change.SubCode, Message: change.Message, RecordingID: change.RecordingID}.Apply(bot)

	assert.Equal(t, models.BotStatusInCallRecording, bot.CurrentStatus())
	assert.Equal(t, "waiting_for_host", *bot.SubCode)
	assert.Equal(t, "kept", *bot.Message)
	assert.Equal(t, "rec-1", *bot.RecordingID)
}

func TestNormalize_Complete(t *testing.T) {
	body := `{
		"event": "complete",
		"data": {
			"bot_id": "bot-2",
			"mp4": "https://storage.example.com/bot-2.mp4",
			"speakers": ["Ada", "Grace"],
			"transcript": [
				{"speaker": "Ada", "words": [{"start": 0.5, "end": 0.9, "word": "Hello"}, {"start": 1, "end": 1.4, "word": "there"}]},
				{"speaker": "Grace", "words": []}
			]
		}
	}`

	event, err := Normalize([]byte(body))
	require.NoError(t, err)

	completed, ok := event.(models.CompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "bot-2", completed.BotID)
	assert.Equal(t, "https://storage.example.com/bot-2.mp4", completed.MP4URL)
	assert.Equal(t, []string{"Ada", "Grace"}, completed.Speakers)
	require.Len(t, completed.Transcript, 2)
	assert.Equal(t, models.TranscriptSegmentWord{Text: "Hello", StartTimestamp: 0.5, EndTimestamp: 0.9}, completed.Transcript[0].Words[0])
	assert.Empty(t, completed.Transcript[1].Words)
}

func TestNormalize_Failed(t *testing.T) {
	tests := []struct {
		name     string
		reason   string
		expected models.BotErrorCode
	}{
		{name: "canonical code", reason: "CannotJoinMeeting", expected: models.BotErrorCannotJoinMeeting},
		{name: "timeout spelled by meeting-baas", reason: "Waiting room timeout", expected: models.BotErrorTimeoutWaitingToStart},
		{name: "canonical timeout", reason: "TimeoutWaitingToStart", expected: models.BotErrorTimeoutWaitingToStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"event":"failed","data":{"bot_id":"bot-3","error":"` + tt.reason + `"}}`

			event, err := Normalize([]byte(body))
			require.NoError(t, err)

			failed, ok := event.(models.FailedEvent)
			require.True(t, ok)
			assert.Equal(t, tt.expected, failed.ErrorCode)
		})
	}
}

func TestNormalize_CalendarSync(t *testing.T) {
	body := `{"event":"calendar.sync_events","data":{"calendar_id":"cal-1","last_updated_ts":"2026-05-01T08:00:00+00:00"}}`

	event, err := Normalize([]byte(body))
	require.NoError(t, err)

	sync, ok := event.(models.CalendarSyncEvent)
	require.True(t, ok)
	assert.Equal(t, "cal-1", sync.CalendarID)
	assert.True(t, sync.LastUpdated.Equal(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)))
	assert.False(t, sync.Full)
}

func TestNormalize_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":              `{"event":`,
		"array":                 `[]`,
		"no data":               `{"event":"bot.status_change"}`,
		"no discriminator":      `{"data":{"bot_id":"b"}}`,
		"unknown event":         `{"event":"bot.exploded","data":{"bot_id":"b"}}`,
		"unknown status code":   `{"event":"bot.status_change","data":{"bot_id":"b","status":{"code":"dancing","created_at":"2026-05-01T09:00:00Z"}}}`,
		"status not object":     `{"event":"bot.status_change","data":{"bot_id":"b","status":"done"}}`,
		"missing created_at":    `{"event":"bot.status_change","data":{"bot_id":"b","status":{"code":"done"}}}`,
		"bad created_at":        `{"event":"bot.status_change","data":{"bot_id":"b","status":{"code":"done","created_at":"yesterday"}}}`,
		"empty bot id":          `{"event":"bot.status_change","data":{"bot_id":"","status":{"code":"done","created_at":"2026-05-01T09:00:00Z"}}}`,
		"numeric bot id":        `{"event":"failed","data":{"bot_id":42,"error":"InternalError"}}`,
		"unknown failure":       `{"event":"failed","data":{"bot_id":"b","error":"Gremlins"}}`,
		"complete without url":  `{"event":"complete","data":{"bot_id":"b","mp4":"not a url","speakers":[],"transcript":[]}}`,
		"complete missing keys": `{"event":"complete","data":{"bot_id":"b","mp4":"https://x.example.com/a.mp4"}}`,
		"sync without calendar": `{"event":"calendar.sync_events","data":{"last_updated_ts":"2026-05-01T09:00:00Z"}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			event, err := Normalize([]byte(body))

			assert.Nil(t, event)
			assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		})
	}
}

func TestAccepts(t *testing.T) {
	kinds := []models.EventKind{
		models.EventKindStatusChange,
		models.EventKindCompleted,
		models.EventKindFailed,
		models.EventKindCalendarSync,
	}
	expected := map[models.WebhookSource][]bool{
		models.WebhookSourceRecall:        {true, false, false, true},
		models.WebhookSourceMeetingBaas:   {true, true, true, false},
		models.WebhookSourceMeetingEvents: {true, true, true, true},
		"unknown":                         {false, false, false, false},
	}

	for source, accepts := range expected {
		for i, kind := range kinds {
			assert.Equal(t, accepts[i], Accepts(source, kind), "%s/%s", source, kind)
		}
	}
}

func TestDeliveryID(t *testing.T) {
	body := []byte(`{"event":"failed","data":{"bot_id":"b","error":"InternalError"}}`)

	first := DeliveryID(models.WebhookSourceMeetingBaas, body)
	assert.Len(t, first, 64)
	assert.Equal(t, first, DeliveryID(models.WebhookSourceMeetingBaas, append(body, '\n')))
	assert.NotEqual(t, first, DeliveryID(models.WebhookSourceMeetingEvents, body))
}
