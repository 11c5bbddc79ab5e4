// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

// Routes served by the API
const (
	RecallWebhookPath        = middleware.WebhookPathPrefix + "recall"
	MeetingBaasWebhookPath   = middleware.WebhookPathPrefix + "meeting-baas"
	MeetingEventsWebhookPath = middleware.WebhookPathPrefix + "meeting-events"
	LiveBotPath              = "/bots/live"
	RecordingPath            = "/recordings/{bucket}/{name}"
	LivezPath                = "/livez"
	ReadyzPath               = "/readyz"
)

const defaultRecordingContentType = "video/mp4"

// WebhookProcessor authenticates and queues provider webhooks
type WebhookProcessor interface {
	Authenticate(req service.WebhookRequest) error
	Process(ctx context.Context, req service.WebhookRequest) error
	ServiceReady() bool
}

// LiveMeetingLauncher sends a bot into a running meeting
type LiveMeetingLauncher interface {
	LaunchLiveMeeting(ctx context.Context, request service.LaunchLiveMeetingRequest) (*models.Bot, error)
	ServiceReady() bool
}

// RecordingReader opens stored recordings
type RecordingReader interface {
	OpenRecording(ctx context.Context, name string) (io.ReadCloser, *models.StoredRecording, error)
}

// ReadinessCheck reports whether a backing store can serve requests
type ReadinessCheck func(ctx context.Context) error

// LiveMeetingResponse is the body returned by the live launch endpoint
type LiveMeetingResponse struct {
	Success bool   `json:"success"`
	BotID   string `json:"bot_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPHandlers serves the inbound HTTP surface of the service
type HTTPHandlers struct {
	webhooks   WebhookProcessor
	live       LiveMeetingLauncher
	recordings RecordingReader
	checks     []ReadinessCheck
}

// NewHTTPHandlers creates the HTTP handlers
func NewHTTPHandlers(
	webhooks WebhookProcessor,
	live LiveMeetingLauncher,
	recordings RecordingReader,
	checks ...ReadinessCheck,
) *HTTPHandlers {
	return &HTTPHandlers{
		webhooks:   webhooks,
		live:       live,
		recordings: recordings,
		checks:     checks,
	}
}

// Router mounts every route on a new gorilla router
func (h *HTTPHandlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(LivezPath, h.Livez).Methods(http.MethodGet)
	r.HandleFunc(ReadyzPath, h.Readyz).Methods(http.MethodGet)

	r.HandleFunc(RecallWebhookPath, h.Webhook(models.WebhookSourceRecall)).Methods(http.MethodPost)
	r.HandleFunc(MeetingBaasWebhookPath, h.Webhook(models.WebhookSourceMeetingBaas)).Methods(http.MethodPost)
	r.HandleFunc(MeetingEventsWebhookPath, h.Webhook(models.WebhookSourceMeetingEvents)).Methods(http.MethodPost)

	r.HandleFunc(LiveBotPath, h.LaunchLiveMeeting).Methods(http.MethodPost)
	r.HandleFunc(RecordingPath, h.GetRecording).Methods(http.MethodGet, http.MethodHead)

	return r
}

// Webhook acknowledges a provider delivery. Everything but a bad signature is answered
// with 200 so providers do not retry deliveries that will never be processed.
func (h *HTTPHandlers) Webhook(source models.WebhookSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.AppendCtx(r.Context(), slog.String("source", string(source)))

		body, ok := middleware.RawBody(ctx)
		if !ok {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, middleware.MaxWebhookBodyBytes))
			if err != nil {
				slog.WarnContext(ctx, "failed to read webhook body", logging.ErrKey, err)
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		req := service.WebhookRequest{
			Source:    source,
			Body:      body,
			Signature: r.Header.Get(constants.WebhookSignatureHeader),
			Timestamp: r.Header.Get(constants.WebhookTimestampHeader),
			Full:      r.URL.Query().Get("full") == "true",
			RequestID: middleware.RequestIDFromContext(ctx),
		}

		if err := h.webhooks.Authenticate(req); err != nil {
			slog.WarnContext(ctx, "rejecting webhook with invalid signature", logging.ErrKey, err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if err := h.webhooks.Process(ctx, req); err != nil {
			slog.DebugContext(ctx, "webhook acknowledged without queueing", logging.ErrKey, err)
		}
		w.WriteHeader(http.StatusOK)
	}
}

// LaunchLiveMeeting handles POST /bots/live
func (h *HTTPHandlers) LaunchLiveMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request service.LaunchLiveMeetingRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, middleware.MaxWebhookBodyBytes)).Decode(&request); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, LiveMeetingResponse{Error: "invalid request body"})
		return
	}

	bot, err := h.live.LaunchLiveMeeting(ctx, request)
	if err != nil {
		respondJSON(ctx, w, statusFromError(err), LiveMeetingResponse{Error: errorMessage(err)})
		return
	}
	respondJSON(ctx, w, http.StatusOK, LiveMeetingResponse{Success: true, BotID: bot.ID})
}

// GetRecording streams a stored recording. The path mirrors the public URL of stored objects.
func (h *HTTPHandlers) GetRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	name := vars["name"]
	if vars["bucket"] != constants.RecordingsBucket {
		http.NotFound(w, r)
		return
	}

	body, info, err := h.recordings.OpenRecording(ctx, name)
	if err != nil {
		status := statusFromError(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "failed to open recording", "name", name, logging.ErrKey, err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			slog.DebugContext(ctx, "failed to close recording", logging.ErrKey, closeErr)
		}
	}()

	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultRecordingContentType
	}
	w.Header().Set("Content-Type", contentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatUint(info.Size, 10))
	}
	if !info.ModifiedAt.IsZero() {
		w.Header().Set("Last-Modified", info.ModifiedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, body); err != nil {
		slog.WarnContext(ctx, "recording stream interrupted", "name", name, logging.ErrKey, err)
	}
}

// Livez checks if the service is alive.
func (h *HTTPHandlers) Livez(w http.ResponseWriter, _ *http.Request) {
	// Always OK while the process runs; unrecoverable failures terminate the process instead.
	writeText(w, http.StatusOK, "OK\n")
}

// Readyz checks if the service is able to take inbound requests.
func (h *HTTPHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.webhooks.ServiceReady() || !h.live.ServiceReady() {
		writeText(w, http.StatusServiceUnavailable, "service unavailable\n")
		return
	}
	for _, check := range h.checks {
		if err := check(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "readiness check failed", logging.ErrKey, err)
			writeText(w, http.StatusServiceUnavailable, "service unavailable\n")
			return
		}
	}
	writeText(w, http.StatusOK, "OK\n")
}

// statusFromError maps a domain error onto its HTTP status code
func statusFromError(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the caller-facing message of err without its wrapped cause
func errorMessage(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", logging.ErrKey, err)
	}
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}
