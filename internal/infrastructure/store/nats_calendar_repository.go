// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// NatsCalendarRepository stores calendar connections in NATS KV
type NatsCalendarRepository struct {
	*NatsBaseRepository[models.Calendar]
	kb *KeyBuilder
}

// NewNatsCalendarRepository creates a new NATS KV-based calendar repository
func NewNatsCalendarRepository(kvStore INatsKeyValue) *NatsCalendarRepository {
	return &NatsCalendarRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Calendar](kvStore, "calendar"),
		kb:                 NewKeyBuilder(""),
	}
}

// Get returns a calendar connection by id
func (r *NatsCalendarRepository) Get(ctx context.Context, calendarID string) (*models.Calendar, error) {
	if calendarID == "" {
		return nil, domain.NewValidationError("calendar id is required")
	}
	return r.NatsBaseRepository.Get(ctx, r.kb.EntityKey(KeyPrefixCalendar, calendarID))
}

// Put stores a calendar connection
func (r *NatsCalendarRepository) Put(ctx context.Context, calendar *models.Calendar) error {
	if calendar == nil || calendar.ID == "" {
		return domain.NewValidationError("calendar id is required")
	}
	if calendar.CreatedAt.IsZero() {
		calendar.CreatedAt = time.Now().UTC()
	}
	calendar.UpdatedAt = time.Now().UTC()
	_, err := r.NatsBaseRepository.Put(ctx, r.kb.EntityKey(KeyPrefixCalendar, calendar.ID), calendar)
	return err
}

// NatsCalendarEventRepository stores synced calendar events in NATS KV
type NatsCalendarEventRepository struct {
	*NatsBaseRepository[models.CalendarEvent]
	kb *KeyBuilder
}

// NewNatsCalendarEventRepository creates a new NATS KV-based calendar event repository
func NewNatsCalendarEventRepository(kvStore INatsKeyValue) *NatsCalendarEventRepository {
	return &NatsCalendarEventRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CalendarEvent](kvStore, "calendar event"),
		kb:                 NewKeyBuilder(""),
	}
}

// Upsert replaces the stored copy of the event
func (r *NatsCalendarEventRepository) Upsert(ctx context.Context, event *models.CalendarEvent) error {
	if event == nil || event.ID == "" {
		return domain.NewValidationError("calendar event id is required")
	}
	_, err := r.NatsBaseRepository.Put(ctx, r.kb.EntityKey(KeyPrefixCalendarEvent, event.ID), event)
	return err
}

// Get returns a calendar event by id
func (r *NatsCalendarEventRepository) Get(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	if eventID == "" {
		return nil, domain.NewValidationError("calendar event id is required")
	}
	return r.NatsBaseRepository.Get(ctx, r.kb.EntityKey(KeyPrefixCalendarEvent, eventID))
}
