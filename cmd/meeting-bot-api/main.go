// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the meeting bot service. It receives provider webhooks over HTTP, queues
// them on JetStream and runs the bot lifecycle, calendar sync and upload workers.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/utils"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error loading configuration")
		os.Exit(1)
	}
	if cfg == nil {
		// Help was shown.
		return
	}

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry")
		os.Exit(1)
	}

	natsConn, err := setupNATS(ctx, cfg, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		os.Exit(1)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating JetStream context")
		os.Exit(1)
	}

	if _, err := messaging.EnsureTaskStream(ctx, js, cfg.Tuning.DuplicateWindow); err != nil {
		slog.With(logging.ErrKey, err).Error("error creating task stream")
		os.Exit(1)
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, js, cfg)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		os.Exit(1)
	}

	c := setupClients(ctx, cfg)
	publisher := messaging.NewTaskPublisher(js, messaging.ParseEncoding(cfg.TaskEncoding))

	// Initialize services
	serviceConfig := service.ServiceConfig{
		WorkerCount: cfg.Tuning.WorkerCount,
	}
	ingestionService := service.NewIngestionService(service.IngestionDependencies{
		BotRepository:           repos.Bot,
		CalendarEventRepository: repos.CalendarEvent,
		ProfileRepository:       repos.Profile,
		TranscriptRepository:    repos.Transcript,
		ArtifactSource:          c.Recall,
		Fetcher:                 c.Fetcher,
		Storage:                 repos.Recordings,
		Publisher:               publisher,
		Hosting:                 c.Hosting,
		Processor:               c.Processor,
		Notifier:                c.Notifier,
	}, serviceConfig)
	botStatusService := service.NewBotStatusService(
		repos.Bot,
		c.Recall,
		ingestionService,
		c.Notifier,
	)
	calendarSyncService := service.NewCalendarSyncService(
		repos.Calendar,
		repos.CalendarEvent,
		repos.Profile,
		repos.UserSettings,
		repos.Bot,
		c.Recall,
		c.Providers,
		c.Notifier,
		serviceConfig,
	)
	uploadService := service.NewUploadService(
		repos.Bot,
		c.Fetcher,
		repos.Recordings,
		c.Notifier,
	)
	liveMeetingService := service.NewLiveMeetingService(
		repos.Profile,
		repos.UserSettings,
		repos.Bot,
		c.Providers,
	)
	webhookService := service.NewWebhookService(
		c.Validators,
		publisher,
		c.Notifier,
	)

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(botStatusService, calendarSyncService, uploadService)
	httpHandlers := handlers.NewHTTPHandlers(
		webhookService,
		liveMeetingService,
		repos.Recordings,
		repos.Bot.IsReady,
		repos.Recordings.IsReady,
		repos.Transcript.IsReady,
	)

	consumer := messaging.NewTaskConsumer(js, taskHandler, cfg.Tuning.Consumer)
	if err := consumer.Start(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("error starting task consumer")
		os.Exit(1)
	}

	httpServer := setupHTTPServer(cfg, httpHandlers, &gracefulCloseWG)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(cfg, httpServer, consumer, natsConn, repos, otelShutdown, &gracefulCloseWG, cancel)
}
