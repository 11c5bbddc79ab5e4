// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/middleware"
)

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(cfg *config, h *handlers.HTTPHandlers, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var handler http.Handler = h.Router()

	// Add HTTP middleware
	// Note: Order matters - RequestIDMiddleware should come first in the chain,
	// so it should be the last middleware added to the handler since it is executed in reverse order.
	handler = middleware.WebhookBodyCaptureMiddleware()(handler)
	handler = middleware.RequestLoggerMiddleware(handlers.LivezPath, handlers.ReadyzPath)(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = otelhttp.NewHandler(handler, "meeting-bot-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != handlers.LivezPath && r.URL.Path != handlers.ReadyzPath
		}),
	)

	addr := cfg.listenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + cfg.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// ErrServerClosed is returned as soon as Shutdown is called, so the
		// wait group is released by gracefulShutdown instead.
	}()

	return httpServer
}

// gracefulShutdown stops taking requests, lets in-flight tasks finish, then drains NATS
func gracefulShutdown(
	cfg *config,
	httpServer *http.Server,
	consumer *messaging.TaskConsumer,
	natsConn *nats.Conn,
	repos *repositories,
	otelShutdown func(context.Context) error,
	gracefulCloseWG *sync.WaitGroup,
	cancel context.CancelFunc,
) {
	slog.Debug("beginning graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Tuning.ShutdownTimeout)
	defer shutdownCancel()

	go func() {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		gracefulCloseWG.Done()
	}()

	consumer.Stop(shutdownCtx)

	// Cancel the background context.
	cancel()

	if !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connection")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
			os.Exit(1)
		}
	}

	slog.Debug("waiting for graceful shutdown steps to complete")
	gracefulCloseWG.Wait()

	if err := repos.transcriptDB.Close(); err != nil {
		slog.With(logging.ErrKey, err).Error("error closing transcript database")
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
	}
	slog.Debug("graceful shutdown steps completed")
}
