// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/apivideo"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/meetingbaas"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/notifier"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/processing"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/recall"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/rest"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/webhook"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

const gracefulShutdownSeconds = 25

// repositories are the storage adapters of the service
type repositories struct {
	Bot           *store.NatsBotRepository
	Calendar      *store.NatsCalendarRepository
	CalendarEvent *store.NatsCalendarEventRepository
	Profile       domain.ProfileRepository
	UserSettings  domain.UserSettingsRepository
	Transcript    *store.SQLiteTranscriptRepository
	Recordings    *store.NatsRecordingStorage

	transcriptDB *sql.DB
}

// clients are the adapters of the external providers
type clients struct {
	Recall     *recall.Client
	Providers  domain.BotProviderRegistry
	Hosting    domain.VideoHosting
	Processor  domain.VideoProcessor
	Fetcher    domain.SourceFetcher
	Notifier   domain.Notifier
	Validators *webhook.Registry
}

// setupNATS connects to NATS. A connection closed after reconnects are exhausted
// triggers a shutdown through done.
func setupNATS(ctx context.Context, cfg *config, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		cfg.NATSURL,
		nats.Name("lfx-v2-meeting-bot-service"),
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Graceful shutdown in progress.
				gracefulCloseWG.Done()
				return
			}
			slog.Error("NATS max-reconnects exhausted; connection closed")
			done <- os.Interrupt
			time.Sleep(5 * time.Second)
			os.Exit(1)
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("error creating NATS client: %w", err)
	}
	slog.With("nats_url", cfg.NATSURL).Info("NATS connection established")
	return natsConn, nil
}

// getKeyValueStores binds every bucket the service reads and writes, creating missing ones
func getKeyValueStores(ctx context.Context, js jetstream.JetStream, cfg *config) (*repositories, error) {
	buckets := map[string]jetstream.KeyValue{}
	for _, name := range []string{
		store.KVStoreNameBots,
		store.KVStoreNameCalendars,
		store.KVStoreNameCalendarEvents,
		store.KVStoreNameProfiles,
		store.KVStoreNameUserSettings,
	} {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  name,
			History: 5,
		})
		if err != nil {
			return nil, fmt.Errorf("error binding %s KV bucket: %w", name, err)
		}
		buckets[name] = kv
	}

	objectStore, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      constants.RecordingsBucket,
		Description: "meeting bot recordings",
	})
	if err != nil {
		return nil, fmt.Errorf("error binding %s object store: %w", constants.RecordingsBucket, err)
	}

	db, err := store.OpenTranscriptDB(cfg.TranscriptDBPath)
	if err != nil {
		return nil, err
	}
	version, dirty, err := store.RunTranscriptMigrations(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.With("version", version, "dirty", dirty, "path", cfg.TranscriptDBPath).Info("transcript database migrated")

	ttl := cfg.Tuning.LookupCacheTTL
	return &repositories{
		Bot:           store.NewNatsBotRepository(buckets[store.KVStoreNameBots]),
		Calendar:      store.NewNatsCalendarRepository(buckets[store.KVStoreNameCalendars]),
		CalendarEvent: store.NewNatsCalendarEventRepository(buckets[store.KVStoreNameCalendarEvents]),
		Profile:       store.NewCachedProfileRepository(store.NewNatsProfileRepository(buckets[store.KVStoreNameProfiles]), ttl),
		UserSettings:  store.NewCachedUserSettingsRepository(store.NewNatsUserSettingsRepository(buckets[store.KVStoreNameUserSettings]), ttl),
		Transcript:    store.NewSQLiteTranscriptRepository(db),
		Recordings:    store.NewNatsRecordingStorage(objectStore, constants.RecordingsBucket, cfg.PublicBaseURL),
		transcriptDB:  db,
	}, nil
}

// setupClients builds the provider, hosting and notification adapters
func setupClients(ctx context.Context, cfg *config) *clients {
	t := cfg.Tuning

	recallClient := recall.NewClient(t.Recall)
	providers := platform.NewRegistry()
	providers.RegisterProvider(recallClient)
	providers.RegisterProvider(meetingbaas.NewClient(t.MeetingBaas))

	var processor domain.VideoProcessor
	if t.Processing.BaseURL != "" {
		processor = processing.NewClient(t.Processing)
	} else {
		slog.Warn("video processing disabled, no processing base URL configured")
	}

	validators := webhook.NewRegistry()
	validators.RegisterValidator(models.WebhookSourceRecall, webhook.NewSignatureValidator(cfg.RecallWebhookSecret, t.SignatureTolerance))
	validators.RegisterValidator(models.WebhookSourceMeetingBaas, webhook.NewSignatureValidator(cfg.MeetingBaasWebhookSecret, t.SignatureTolerance))
	validators.RegisterValidator(models.WebhookSourceMeetingEvents, webhook.NewSignatureValidator(cfg.MeetingEventsWebhookSecret, t.SignatureTolerance))

	return &clients{
		Recall:     recallClient,
		Providers:  providers,
		Hosting:    apivideo.NewClient(ctx, t.APIVideo),
		Processor:  processor,
		Fetcher:    rest.NewFetcher(t.Fetcher.Timeout, t.Fetcher.Retry, nil),
		Notifier:   notifier.New(t.Slack),
		Validators: validators,
	}
}
