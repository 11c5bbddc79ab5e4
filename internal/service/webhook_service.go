// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/webhook"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// fullSyncSuffix keeps a full resync from being deduplicated against the incremental delivery of the same body
const fullSyncSuffix = "-full"

// WebhookValidators resolves the signature validator of a webhook source
type WebhookValidators interface {
	GetValidator(source models.WebhookSource) domain.WebhookValidator
}

// WebhookRequest is an inbound webhook delivery
type WebhookRequest struct {
	Source    models.WebhookSource
	Body      []byte
	Signature string
	Timestamp string
	// Full requests a calendar resync without watermark
	Full      bool
	RequestID string
}

// WebhookService acknowledges provider webhooks by normalizing and queueing them
type WebhookService struct {
	validators WebhookValidators
	publisher  domain.TaskPublisher
	notifier   domain.Notifier
	now        func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	validators WebhookValidators,
	publisher domain.TaskPublisher,
	notifier domain.Notifier,
) *WebhookService {
	return &WebhookService{
		validators: validators,
		publisher:  publisher,
		notifier:   notifier,
		now:        time.Now,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *WebhookService) ServiceReady() bool {
	return s.validators != nil && s.publisher != nil && s.notifier != nil
}

// Authenticate verifies the delivery signature when the source enforces one
func (s *WebhookService) Authenticate(req WebhookRequest) error {
	validator := s.validators.GetValidator(req.Source)
	if validator == nil {
		return nil
	}
	return validator.ValidateSignature(req.Body, req.Signature, req.Timestamp)
}

// Process normalizes the delivery and queues it for the workers. Malformed bodies and
// events the source does not handle are dropped. The returned error is informational:
// the delivery is acknowledged either way.
func (s *WebhookService) Process(ctx context.Context, req WebhookRequest) error {
	event, err := webhook.Normalize(req.Body)
	if err != nil {
		slog.WarnContext(ctx, "dropping malformed webhook payload",
			"source", req.Source,
			"body_size", len(req.Body),
			logging.ErrKey, err,
		)
		return err
	}

	if !webhook.Accepts(req.Source, event.Kind()) {
		slog.InfoContext(ctx, "webhook event is not handled by this source, ignoring",
			"source", req.Source, "event", event.Kind())
		return nil
	}

	id := webhook.DeliveryID(req.Source, req.Body)
	if sync, ok := event.(models.CalendarSyncEvent); ok && req.Full {
		sync.Full = true
		event = sync
		id += fullSyncSuffix
	}

	envelope := models.NewEventEnvelope(id, req.Source, event, s.now().UTC())
	envelope.RequestID = req.RequestID
	if botEvent, ok := event.(models.BotEvent); ok {
		ctx = logging.WithBot(ctx, botEvent.GetBotID())
	}

	if err := s.publisher.PublishEvent(ctx, envelope); err != nil {
		slog.ErrorContext(ctx, "failed to queue webhook event",
			"source", req.Source, "event", event.Kind(), logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError, fmt.Sprintf("Failed to process webhook: %v", err))
		return err
	}

	slog.InfoContext(ctx, "queued webhook event",
		"source", req.Source, "event", event.Kind(), "delivery_id", id)
	s.notifier.Send(ctx, domain.SeveritySuccess, fmt.Sprintf("Successfully processed %s webhook", event.Kind()))
	return nil
}
