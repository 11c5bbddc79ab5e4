// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NATS Key-Value store bucket names
const (
	KVStoreNameBots           = "meeting-bots"
	KVStoreNameCalendarEvents = "calendar-events"
	KVStoreNameCalendars      = "calendars"
	KVStoreNameProfiles       = "profiles"
	KVStoreNameUserSettings   = "user-settings"
)

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/infrastructure/store"

// INatsObjectStore is a NATS Object Store interface for file storage
// This interface matches jetstream.ObjectStore and allows for mocking in tests.
type INatsObjectStore interface {
	Put(ctx context.Context, obj jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error)
	Get(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) (jetstream.ObjectResult, error)
	GetInfo(ctx context.Context, name string, opts ...jetstream.GetObjectInfoOpt) (*jetstream.ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// INatsKeyValue is the subset of jetstream.KeyValue the repositories use.
type INatsKeyValue interface {
	ListKeys(context.Context, ...jetstream.WatchOpt) (jetstream.KeyLister, error)
	ListKeysFiltered(context.Context, ...string) (jetstream.KeyLister, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(context.Context, string, []byte) (uint64, error)
	Create(context.Context, string, []byte, ...jetstream.KVCreateOpt) (uint64, error)
	Update(context.Context, string, []byte, uint64) (uint64, error)
	Delete(context.Context, string, ...jetstream.KVDeleteOpt) error
}

// NatsBaseRepository provides common NATS KV operations that can be reused across all repositories
type NatsBaseRepository[T any] struct {
	kvStore    INatsKeyValue
	entityName string // Used in error messages (e.g., "bot", "calendar event")
}

// NewNatsBaseRepository creates a new base repository for NATS KV operations
func NewNatsBaseRepository[T any](kvStore INatsKeyValue, entityName string) *NatsBaseRepository[T] {
	return &NatsBaseRepository[T]{
		kvStore:    kvStore,
		entityName: entityName,
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository[T]) IsReady() bool {
	return r.kvStore != nil
}

func (r *NatsBaseRepository[T]) startSpan(ctx context.Context, operation, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	base := []attribute.KeyValue{
		attribute.String("db.system", "nats"),
		attribute.String("db.operation", operation),
		attribute.String("db.nats.entity", r.entityName),
	}
	if key != "" {
		base = append(base, attribute.String("db.nats.key", key))
	}
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(base, attrs...)...),
	)
}

func (r *NatsBaseRepository[T]) unavailable() error {
	return domain.NewUnavailableError(fmt.Sprintf("%s repository is not available", r.entityName))
}

func failSpan(span trace.Span, err error, status string) error {
	span.RecordError(err)
	if status == "" {
		status = err.Error()
	}
	span.SetStatus(codes.Error, status)
	return err
}

func isWrongRevision(err error) bool {
	return errors.Is(err, jetstream.ErrKeyExists) || strings.Contains(err.Error(), "wrong last sequence")
}

// mapWriteError converts a KV write error into a domain error, logging unexpected failures.
func (r *NatsBaseRepository[T]) mapWriteError(ctx context.Context, span trace.Span, operation, key string, err error) error {
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return failSpan(span, domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err), "not found")
	case isWrongRevision(err):
		return failSpan(span, domain.NewConflictError(fmt.Sprintf("%s already exists or has been modified", r.entityName), err), "conflict")
	}
	slog.ErrorContext(ctx, fmt.Sprintf("error on %s of %s in NATS KV", operation, r.entityName),
		logging.ErrKey, err, "key", key)
	return failSpan(span, domain.NewInternalError(fmt.Sprintf("failed to %s %s in store", operation, r.entityName), err), "")
}

// GetRaw retrieves a raw entry from NATS KV store
func (r *NatsBaseRepository[T]) GetRaw(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	ctx, span := r.startSpan(ctx, "get", key)
	defer span.End()

	if !r.IsReady() {
		return nil, failSpan(span, r.unavailable(), "")
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, failSpan(span, domain.NewNotFoundError(
				fmt.Sprintf("%s with key '%s' not found", r.entityName, key), err), "not found")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		return nil, failSpan(span, domain.NewInternalError(
			fmt.Sprintf("failed to retrieve %s from store", r.entityName), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return entry, nil
}

// Get retrieves and unmarshals an entity from NATS KV store
func (r *NatsBaseRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	entity, _, err := r.GetWithRevision(ctx, key)
	return entity, err
}

// GetWithRevision retrieves an entity with its revision from NATS KV store
func (r *NatsBaseRepository[T]) GetWithRevision(ctx context.Context, key string) (*T, uint64, error) {
	entry, err := r.GetRaw(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	entity, err := r.Unmarshal(ctx, entry.Value())
	if err != nil {
		return nil, 0, domain.NewInternalError(
			fmt.Sprintf("failed to unmarshal %s data", r.entityName), err)
	}

	return entity, entry.Revision(), nil
}

// Unmarshal decodes a stored value into the entity type
func (r *NatsBaseRepository[T]) Unmarshal(ctx context.Context, data []byte) (*T, error) {
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error unmarshaling %s", r.entityName),
			logging.ErrKey, err)
		return nil, err
	}
	return &entity, nil
}

// Marshal encodes an entity to JSON bytes
func (r *NatsBaseRepository[T]) Marshal(ctx context.Context, entity *T) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error marshaling %s", r.entityName),
			logging.ErrKey, err)
		return nil, domain.NewInternalError(fmt.Sprintf("failed to marshal %s", r.entityName), err)
	}
	return data, nil
}

// Exists checks if an entity exists in the store
func (r *NatsBaseRepository[T]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.GetRaw(ctx, key)
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put writes an entity regardless of its current revision
func (r *NatsBaseRepository[T]) Put(ctx context.Context, key string, entity *T) (uint64, error) {
	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, err
	}
	return r.write(ctx, "put", key, func(ctx context.Context) (uint64, error) {
		return r.kvStore.Put(ctx, key, data)
	})
}

// Create writes an entity only if the key does not exist yet; an existing key is a Conflict
func (r *NatsBaseRepository[T]) Create(ctx context.Context, key string, entity *T) (uint64, error) {
	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, err
	}
	return r.write(ctx, "create", key, func(ctx context.Context) (uint64, error) {
		return r.kvStore.Create(ctx, key, data)
	})
}

// Update writes an entity with optimistic concurrency control
func (r *NatsBaseRepository[T]) Update(ctx context.Context, key string, entity *T, revision uint64) (uint64, error) {
	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, err
	}
	return r.write(ctx, "update", key, func(ctx context.Context) (uint64, error) {
		return r.kvStore.Update(ctx, key, data, revision)
	}, attribute.Int64("db.nats.revision", int64(revision)))
}

func (r *NatsBaseRepository[T]) write(ctx context.Context, operation, key string, fn func(context.Context) (uint64, error), attrs ...attribute.KeyValue) (uint64, error) {
	ctx, span := r.startSpan(ctx, operation, key, attrs...)
	defer span.End()

	if !r.IsReady() {
		return 0, failSpan(span, r.unavailable(), "")
	}

	revision, err := fn(ctx)
	if err != nil {
		return 0, r.mapWriteError(ctx, span, operation, key, err)
	}

	span.SetStatus(codes.Ok, "")
	return revision, nil
}

// DeleteWithoutRevision removes a key regardless of its current revision.
// Deleting a missing key is not an error.
func (r *NatsBaseRepository[T]) DeleteWithoutRevision(ctx context.Context, key string) error {
	ctx, span := r.startSpan(ctx, "delete", key)
	defer span.End()

	if !r.IsReady() {
		return failSpan(span, r.unavailable(), "")
	}

	if err := r.kvStore.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return r.mapWriteError(ctx, span, "delete", key, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListKeys lists keys matching the subject filters, or every key when none are given
func (r *NatsBaseRepository[T]) ListKeys(ctx context.Context, filters ...string) ([]string, error) {
	ctx, span := r.startSpan(ctx, "list_keys", "", attribute.StringSlice("db.nats.filters", filters))
	defer span.End()

	if !r.IsReady() {
		return nil, failSpan(span, r.unavailable(), "")
	}

	var (
		lister jetstream.KeyLister
		err    error
	)
	if len(filters) > 0 {
		lister, err = r.kvStore.ListKeysFiltered(ctx, filters...)
	} else {
		lister, err = r.kvStore.ListKeys(ctx)
	}
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			span.SetStatus(codes.Ok, "")
			return nil, nil
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error listing %s keys from NATS KV", r.entityName),
			logging.ErrKey, err)
		return nil, failSpan(span, domain.NewInternalError(
			fmt.Sprintf("failed to list %s keys from store", r.entityName), err), "")
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	span.SetAttributes(attribute.Int("db.nats.keys_count", len(keys)))
	span.SetStatus(codes.Ok, "")
	return keys, nil
}

// PutIndex writes an index entry whose value is the indexed entity id
func (r *NatsBaseRepository[T]) PutIndex(ctx context.Context, indexKey, entityID string) error {
	if !r.IsReady() {
		return r.unavailable()
	}

	if _, err := r.kvStore.Put(ctx, indexKey, []byte(entityID)); err != nil {
		slog.ErrorContext(ctx, "error creating index",
			logging.ErrKey, err, "index_key", indexKey)
		return domain.NewInternalError("failed to create index", err)
	}
	return nil
}

// CreateIndex claims a unique index entry; a claimed key is a Conflict
func (r *NatsBaseRepository[T]) CreateIndex(ctx context.Context, indexKey, entityID string) (uint64, error) {
	return r.write(ctx, "create_index", indexKey, func(ctx context.Context) (uint64, error) {
		return r.kvStore.Create(ctx, indexKey, []byte(entityID))
	})
}

// UpdateIndex moves a unique index entry to another entity with optimistic concurrency control
func (r *NatsBaseRepository[T]) UpdateIndex(ctx context.Context, indexKey, entityID string, revision uint64) (uint64, error) {
	return r.write(ctx, "update_index", indexKey, func(ctx context.Context) (uint64, error) {
		return r.kvStore.Update(ctx, indexKey, []byte(entityID), revision)
	})
}

// GetIndex returns the entity id an index entry points to with the entry revision
func (r *NatsBaseRepository[T]) GetIndex(ctx context.Context, indexKey string) (string, uint64, error) {
	entry, err := r.GetRaw(ctx, indexKey)
	if err != nil {
		return "", 0, err
	}
	return string(entry.Value()), entry.Revision(), nil
}

// DeleteIndex removes an index entry from the store
func (r *NatsBaseRepository[T]) DeleteIndex(ctx context.Context, indexKey string) error {
	if !r.IsReady() {
		return r.unavailable()
	}

	if err := r.kvStore.Delete(ctx, indexKey); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		slog.WarnContext(ctx, "error deleting index",
			logging.ErrKey, err, "index_key", indexKey)
		return domain.NewInternalError("failed to delete index", err)
	}
	return nil
}
