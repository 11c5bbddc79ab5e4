// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"errors"
	"time"
)

// EventKind is the discriminator of a normalized webhook event.
type EventKind string

const (
	EventKindStatusChange EventKind = "bot.status_change"
	EventKindCompleted    EventKind = "complete"
	EventKindFailed       EventKind = "failed"
	EventKindCalendarSync EventKind = "calendar.sync_events"
)

// WebhookSource is the endpoint a webhook was delivered to.
type WebhookSource string

const (
	WebhookSourceRecall        WebhookSource = "recall"
	WebhookSourceMeetingBaas   WebhookSource = "meeting_baas"
	WebhookSourceMeetingEvents WebhookSource = "meeting_events"
)

// Event is the closed set of normalized webhook events.
type Event interface {
	Kind() EventKind
	isEvent()
}

// BotEvent is an Event about a single bot.
type BotEvent interface {
	Event
	GetBotID() string
}

// StatusChangeEvent reports a new provider status for a bot.
type StatusChangeEvent struct {
	BotID       string        `json:"bot_id" msgpack:"bot_id"`
	Code        BotStatusCode `json:"code" msgpack:"code"`
	CreatedAt   time.Time     `json:"created_at" msgpack:"created_at"`
	SubCode     *string       `json:"sub_code,omitempty" msgpack:"sub_code,omitempty"`
	Message     *string       `json:"message,omitempty" msgpack:"message,omitempty"`
	RecordingID *string       `json:"recording_id,omitempty" msgpack:"recording_id,omitempty"`
}

// CompletedEvent carries the artifacts of a finished recording.
type CompletedEvent struct {
	BotID      string              `json:"bot_id" msgpack:"bot_id"`
	MP4URL     string              `json:"mp4" msgpack:"mp4"`
	Speakers   []string            `json:"speakers" msgpack:"speakers"`
	Transcript []TranscriptSegment `json:"transcript,omitempty" msgpack:"transcript,omitempty"`
}

// FailedEvent reports that a bot could not record.
type FailedEvent struct {
	BotID     string       `json:"bot_id" msgpack:"bot_id"`
	ErrorCode BotErrorCode `json:"error" msgpack:"error"`
}

// CalendarSyncEvent signals that a calendar changed since LastUpdated.
type CalendarSyncEvent struct {
	CalendarID  string    `json:"calendar_id" msgpack:"calendar_id"`
	LastUpdated time.Time `json:"last_updated_ts" msgpack:"last_updated_ts"`
	// Full drops the watermark and re-reads every event of the calendar.
	Full bool `json:"full,omitempty" msgpack:"full,omitempty"`
}

func (StatusChangeEvent) Kind() EventKind { return EventKindStatusChange }
func (CompletedEvent) Kind() EventKind    { return EventKindCompleted }
func (FailedEvent) Kind() EventKind       { return EventKindFailed }
func (CalendarSyncEvent) Kind() EventKind { return EventKindCalendarSync }

func (StatusChangeEvent) isEvent() {}
func (CompletedEvent) isEvent()    {}
func (FailedEvent) isEvent()       {}
func (CalendarSyncEvent) isEvent() {}

func (e StatusChangeEvent) GetBotID() string { return e.BotID }
func (e CompletedEvent) GetBotID() string    { return e.BotID }
func (e FailedEvent) GetBotID() string       { return e.BotID }

// EventEnvelope is the queued form of a normalized event. Exactly one variant field is set.
type EventEnvelope struct {
	ID           string             `json:"id" msgpack:"id"`
	Source       WebhookSource      `json:"source" msgpack:"source"`
	Kind         EventKind          `json:"kind" msgpack:"kind"`
	ReceivedAt   time.Time          `json:"received_at" msgpack:"received_at"`
	RequestID    string             `json:"request_id,omitempty" msgpack:"request_id,omitempty"`
	StatusChange *StatusChangeEvent `json:"status_change,omitempty" msgpack:"status_change,omitempty"`
	Completed    *CompletedEvent    `json:"completed,omitempty" msgpack:"completed,omitempty"`
	Failed       *FailedEvent       `json:"failed,omitempty" msgpack:"failed,omitempty"`
	CalendarSync *CalendarSyncEvent `json:"calendar_sync,omitempty" msgpack:"calendar_sync,omitempty"`
}

// ErrEmptyEnvelope is returned when an envelope holds no event variant.
var ErrEmptyEnvelope = errors.New("event envelope carries no event")

// NewEventEnvelope wraps event for queueing.
func NewEventEnvelope(id string, source WebhookSource, event Event, receivedAt time.Time) EventEnvelope {
	env := EventEnvelope{ID: id, Source: source, Kind: event.Kind(), ReceivedAt: receivedAt}
	switch e := event.(type) {
	case StatusChangeEvent:
		env.StatusChange = &e
	case CompletedEvent:
		env.Completed = &e
	case FailedEvent:
		env.Failed = &e
	case CalendarSyncEvent:
		env.CalendarSync = &e
	}
	return env
}

// Event returns the wrapped event variant.
func (e EventEnvelope) Event() (Event, error) {
	switch {
	case e.StatusChange != nil:
		return *e.StatusChange, nil
	case e.Completed != nil:
		return *e.Completed, nil
	case e.Failed != nil:
		return *e.Failed, nil
	case e.CalendarSync != nil:
		return *e.CalendarSync, nil
	}
	return nil, ErrEmptyEnvelope
}

// UploadVideoTask asks the storage worker to copy a recording into the object store.
type UploadVideoTask struct {
	BotID    string   `json:"bot_id" msgpack:"bot_id"`
	Provider Provider `json:"provider" msgpack:"provider"`
	VideoURL string   `json:"video_url" msgpack:"video_url"`
	FileName string   `json:"file_name" msgpack:"file_name"`
}
