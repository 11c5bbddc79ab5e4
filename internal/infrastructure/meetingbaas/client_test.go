// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package meetingbaas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "baas-key",
		Retry:   retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

func TestClient_CreateBot(t *testing.T) {
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		request     models.CreateBotRequest
		meetingData func(w http.ResponseWriter)
		expectedKey string
		assertBody  func(t *testing.T, body map[string]any)
	}{
		{
			name: "reserved calendar bot uses the provider deduplication key",
			request: models.CreateBotRequest{
				BotName:          "Notetaker",
				MeetingURL:       "https://zoom.us/j/123",
				StartTime:        &start,
				Reserved:         true,
				DeduplicationKey: "requested",
				Metadata:         models.BotMetadata{UserID: "p1", EventID: "ev-1"},
			},
			meetingData: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{"bot_data":{"bot":{"deduplication_key":"stored"}}}`))
			},
			expectedKey: "stored",
			assertBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(start.Unix()), body["start_time"])
				assert.Equal(t, true, body["reserved"])
				assert.Equal(t, map[string]any{"user_id": "p1", "event_id": "ev-1"}, body["extra"])
			},
		},
		{
			name: "live bot keeps the requested key when meeting data fails",
			request: models.CreateBotRequest{
				BotName:          "Notetaker",
				MeetingURL:       "https://zoom.us/j/123",
				DeduplicationKey: "requested",
				Metadata:         models.BotMetadata{UserID: "p1"},
			},
			meetingData: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadRequest)
			},
			expectedKey: "requested",
			assertBody: func(t *testing.T, body map[string]any) {
				_, hasStart := body["start_time"]
				assert.False(t, hasStart)
				assert.Equal(t, false, body["reserved"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "baas-key", r.Header.Get(constants.MeetingBaasAPIKeyHeader))
				switch {
				case r.Method == http.MethodPost && r.URL.Path == "/bots":
					var body map[string]any
					require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
					assert.Equal(t, "Notetaker", body["bot_name"])
					assert.Equal(t, constants.DefaultBotImage, body["bot_image"])
					assert.Equal(t, "https://zoom.us/j/123", body["meeting_url"])
					assert.Equal(t, "requested", body["deduplication_key"])
					assert.Equal(t, "speaker_view", body["recording_mode"])
					assert.Equal(t, map[string]any{"provider": "Default"}, body["speech_to_text"])
					tt.assertBody(t, body)
					_, _ = w.Write([]byte(`{"bot_id":"baas-1"}`))
				case r.Method == http.MethodGet && r.URL.Path == "/bots/meeting_data":
					assert.Equal(t, "baas-1", r.URL.Query().Get("bot_id"))
					tt.meetingData(w)
				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			})

			bots, err := client.CreateBot(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, []models.ProvisionedBot{{ID: "baas-1", DeduplicationKey: tt.expectedKey}}, bots)
		})
	}
}

func TestClient_CreateBot_Failure(t *testing.T) {
	var joins atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		joins.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CreateBot(context.Background(), models.CreateBotRequest{MeetingURL: "https://zoom.us/j/1"})
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
	assert.Equal(t, int32(1), joins.Load(), "a join the provider may have accepted is not sent twice")

	_, err = client.CreateBot(context.Background(), models.CreateBotRequest{})
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestClient_RemoveBot(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, client.RemoveBot(context.Background(), "baas-1"))
	assert.Equal(t, "/bots/baas-1", path)
}
