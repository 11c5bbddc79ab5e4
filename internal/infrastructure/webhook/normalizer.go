// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// Webhook event discriminators
const (
	EventBotStatusChange = "bot.status_change"
	EventComplete        = "complete"
	EventFailed          = "failed"
	EventCalendarSync    = "calendar.sync_events"
)

type webhookRequest struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type statusChangeData struct {
	BotID  string `json:"bot_id"`
	Status struct {
		Code        string    `json:"code"`
		CreatedAt   time.Time `json:"created_at"`
		SubCode     *string   `json:"sub_code"`
		Message     *string   `json:"message"`
		RecordingID *string   `json:"recording_id"`
	} `json:"status"`
}

type transcriptWord struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

type transcriptPart struct {
	Speaker string           `json:"speaker"`
	Words   []transcriptWord `json:"words"`
}

type completeData struct {
	BotID      string           `json:"bot_id"`
	MP4        string           `json:"mp4"`
	Speakers   []string         `json:"speakers"`
	Transcript []transcriptPart `json:"transcript"`
}

type failedData struct {
	BotID string `json:"bot_id"`
	Error string `json:"error"`
}

type calendarSyncData struct {
	CalendarID    string    `json:"calendar_id"`
	LastUpdatedTS time.Time `json:"last_updated_ts"`
}

// Normalize parses a raw webhook body from either provider into one normalized event.
// Every failure is a Validation error; nothing about the body is trusted before it passes here.
func Normalize(body []byte) (models.Event, error) {
	var request webhookRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return nil, domain.NewValidationError("webhook body is not a JSON object", err)
	}
	if request.Data == nil {
		return nil, domain.NewValidationError("webhook body has no data object")
	}

	switch request.Event {
	case EventBotStatusChange:
		return normalizeStatusChange(request.Data)
	case EventComplete:
		return normalizeComplete(request.Data)
	case EventFailed:
		return normalizeFailed(request.Data)
	case EventCalendarSync:
		return normalizeCalendarSync(request.Data)
	case "":
		return nil, domain.NewValidationError("webhook body has no event discriminator")
	}
	return nil, domain.NewValidationError(fmt.Sprintf("unsupported webhook event %q", request.Event))
}

// Accepts reports whether a source handles an event kind. Sources deliver
// events they do not handle; those are acknowledged and dropped.
func Accepts(source models.WebhookSource, kind models.EventKind) bool {
	switch source {
	case models.WebhookSourceRecall:
		return kind == models.EventKindStatusChange || kind == models.EventKindCalendarSync
	case models.WebhookSourceMeetingBaas:
		return kind != models.EventKindCalendarSync
	case models.WebhookSourceMeetingEvents:
		return true
	}
	return false
}

// DeliveryID derives a stable id for a webhook delivery, identical for a
// provider retry of the same body to the same source.
func DeliveryID(source models.WebhookSource, body []byte) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{':'})
	h.Write(bytes.TrimSpace(body))
	return hex.EncodeToString(h.Sum(nil))
}

func decodeData(data map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     target,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return domain.NewInternalError("failed to create payload decoder", err)
	}
	if err := decoder.Decode(data); err != nil {
		return domain.NewValidationError("invalid webhook data", err)
	}
	return nil
}

func requireKeys(data map[string]any, keys ...string) error {
	var missing []string
	for _, key := range keys {
		if value, ok := data[key]; !ok || value == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.NewValidationError("webhook data is missing " + strings.Join(missing, ", "))
	}
	return nil
}

func normalizeStatusChange(data map[string]any) (models.Event, error) {
	if err := requireKeys(data, "bot_id", "status"); err != nil {
		return nil, err
	}
	if status, ok := data["status"].(map[string]any); !ok {
		return nil, domain.NewValidationError("status must be an object")
	} else if err := requireKeys(status, "code", "created_at"); err != nil {
		return nil, err
	}

	var payload statusChangeData
	if err := decodeData(data, &payload); err != nil {
		return nil, err
	}
	if payload.BotID == "" {
		return nil, domain.NewValidationError("bot_id is empty")
	}
	code := models.BotStatusCode(payload.Status.Code)
	if !code.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown bot status code %q", payload.Status.Code))
	}

	return models.StatusChangeEvent{
		BotID:       payload.BotID,
		Code:        code,
		CreatedAt:   payload.Status.CreatedAt,
		SubCode:     presentString(payload.Status.SubCode),
		Message:     presentString(payload.Status.Message),
		RecordingID: presentString(payload.Status.RecordingID),
	}, nil
}

// presentString treats an empty value like an absent one so a status change never
// erases what an earlier delivery recorded.
func presentString(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}

func normalizeComplete(data map[string]any) (models.Event, error) {
	if err := requireKeys(data, "bot_id", "mp4", "speakers", "transcript"); err != nil {
		return nil, err
	}
	var payload completeData
	if err := decodeData(data, &payload); err != nil {
		return nil, err
	}
	if payload.BotID == "" {
		return nil, domain.NewValidationError("bot_id is empty")
	}
	if !isHTTPURL(payload.MP4) {
		return nil, domain.NewValidationError(fmt.Sprintf("mp4 is not a URL: %q", payload.MP4))
	}

	segments := make([]models.TranscriptSegment, 0, len(payload.Transcript))
	for _, part := range payload.Transcript {
		words := make([]models.TranscriptSegmentWord, 0, len(part.Words))
		for _, w := range part.Words {
			words = append(words, models.TranscriptSegmentWord{
				Text:           w.Word,
				StartTimestamp: w.Start,
				EndTimestamp:   w.End,
			})
		}
		segments = append(segments, models.TranscriptSegment{Speaker: part.Speaker, Words: words})
	}

	return models.CompletedEvent{
		BotID:      payload.BotID,
		MP4URL:     payload.MP4,
		Speakers:   payload.Speakers,
		Transcript: segments,
	}, nil
}

func normalizeFailed(data map[string]any) (models.Event, error) {
	if err := requireKeys(data, "bot_id", "error"); err != nil {
		return nil, err
	}
	var payload failedData
	if err := decodeData(data, &payload); err != nil {
		return nil, err
	}
	if payload.BotID == "" {
		return nil, domain.NewValidationError("bot_id is empty")
	}
	code, err := models.ParseBotErrorCode(payload.Error)
	if err != nil {
		return nil, domain.NewValidationError("invalid failure reason", err)
	}
	return models.FailedEvent{BotID: payload.BotID, ErrorCode: code}, nil
}

func normalizeCalendarSync(data map[string]any) (models.Event, error) {
	if err := requireKeys(data, "calendar_id", "last_updated_ts"); err != nil {
		return nil, err
	}
	var payload calendarSyncData
	if err := decodeData(data, &payload); err != nil {
		return nil, err
	}
	if payload.CalendarID == "" {
		return nil, domain.NewValidationError("calendar_id is empty")
	}
	return models.CalendarSyncEvent{
		CalendarID:  payload.CalendarID,
		LastUpdated: payload.LastUpdatedTS,
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
