// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
)

// NatsRecordingStorage keeps source recordings in a NATS Object Store bucket
type NatsRecordingStorage struct {
	objectStore   INatsObjectStore
	bucket        string
	publicBaseURL string
}

// NewNatsRecordingStorage creates recording storage over an object store bucket.
// Objects are published under publicBaseURL/bucket/name.
func NewNatsRecordingStorage(objectStore INatsObjectStore, bucket, publicBaseURL string) *NatsRecordingStorage {
	return &NatsRecordingStorage{
		objectStore:   objectStore,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
	}
}

// IsReady reports whether the bucket is bound
func (s *NatsRecordingStorage) IsReady(ctx context.Context) error {
	if s.objectStore == nil {
		return domain.NewUnavailableError("recording storage is not available")
	}
	return nil
}

// PublicURL returns the deterministic URL of an object
func (s *NatsRecordingStorage) PublicURL(name string) string {
	return constants.PublicObjectURL(s.publicBaseURL, s.bucket, name)
}

func (s *NatsRecordingStorage) startSpan(ctx context.Context, operation, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "nats.object."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "nats"),
			attribute.String("db.operation", operation),
			attribute.String("db.nats.bucket", s.bucket),
			attribute.String("db.nats.object", name),
		),
	)
}

// PutRecording stores content under name, replacing any previous object
func (s *NatsRecordingStorage) PutRecording(ctx context.Context, name string, content io.Reader, metadata map[string]string) (*models.StoredRecording, error) {
	ctx, span := s.startSpan(ctx, "put", name)
	defer span.End()

	if err := s.IsReady(ctx); err != nil {
		return nil, failSpan(span, err, "")
	}

	headers := nats.Header{}
	headers.Set("Content-Type", constants.RecordingContentType)

	info, err := s.objectStore.Put(ctx, jetstream.ObjectMeta{
		Name:     name,
		Headers:  headers,
		Metadata: metadata,
	}, content)
	if err != nil {
		slog.ErrorContext(ctx, "error storing recording in object store",
			logging.ErrKey, err, "object", name)
		return nil, failSpan(span, domain.NewUnavailableError(fmt.Sprintf("failed to store recording %s", name), err), "")
	}

	span.SetAttributes(attribute.Int64("db.nats.object_size", int64(info.Size)))
	span.SetStatus(codes.Ok, "")
	return toStoredRecording(info), nil
}

// OpenRecording streams a stored object; the caller closes the reader
func (s *NatsRecordingStorage) OpenRecording(ctx context.Context, name string) (io.ReadCloser, *models.StoredRecording, error) {
	ctx, span := s.startSpan(ctx, "get", name)
	defer span.End()

	if err := s.IsReady(ctx); err != nil {
		return nil, nil, failSpan(span, err, "")
	}

	result, err := s.objectStore.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, nil, failSpan(span, domain.NewNotFoundError(fmt.Sprintf("recording %s not found", name), err), "not found")
		}
		return nil, nil, failSpan(span, domain.NewUnavailableError(fmt.Sprintf("failed to read recording %s", name), err), "")
	}

	info, err := result.Info()
	if err != nil {
		_ = result.Close()
		return nil, nil, failSpan(span, domain.NewInternalError(fmt.Sprintf("failed to read recording info %s", name), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return result, toStoredRecording(info), nil
}

func toStoredRecording(info *jetstream.ObjectInfo) *models.StoredRecording {
	contentType := constants.RecordingContentType
	if info.Headers != nil && info.Headers.Get("Content-Type") != "" {
		contentType = info.Headers.Get("Content-Type")
	}
	return &models.StoredRecording{
		Name:        info.Name,
		Size:        info.Size,
		ContentType: contentType,
		Metadata:    info.Metadata,
		ModifiedAt:  info.ModTime,
	}
}
