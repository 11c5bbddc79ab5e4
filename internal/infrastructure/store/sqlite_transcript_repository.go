// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// SQLiteTranscriptRepository stores transcript slices and words in sqlite
type SQLiteTranscriptRepository struct {
	db *sql.DB
}

// NewSQLiteTranscriptRepository creates a transcript repository over a migrated database
func NewSQLiteTranscriptRepository(db *sql.DB) *SQLiteTranscriptRepository {
	return &SQLiteTranscriptRepository{db: db}
}

func (r *SQLiteTranscriptRepository) startSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "sqlite."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "sqlite"),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		),
	)
}

// IsReady pings the database
func (r *SQLiteTranscriptRepository) IsReady(ctx context.Context) error {
	if r.db == nil {
		return domain.NewUnavailableError("transcript database is not available")
	}
	if err := r.db.PingContext(ctx); err != nil {
		return domain.NewUnavailableError("transcript database is not reachable", err)
	}
	return nil
}

func mapSQLError(ctx context.Context, span trace.Span, what string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return failSpan(span, domain.NewConflictError(what+" already exists", err), "conflict")
	}
	slog.ErrorContext(ctx, "transcript database error", "operation", what, logging.ErrKey, err)
	return failSpan(span, domain.NewInternalError("failed to write "+what, err), "")
}

// InsertSlices inserts slices in one transaction and returns them with generated ids
func (r *SQLiteTranscriptRepository) InsertSlices(ctx context.Context, slices []models.TranscriptSlice) ([]models.TranscriptSlice, error) {
	ctx, span := r.startSpan(ctx, "insert", "transcript_slices")
	defer span.End()
	span.SetAttributes(attribute.Int("db.sql.rows", len(slices)))

	if len(slices) == 0 {
		span.SetStatus(codes.Ok, "")
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapSQLError(ctx, span, "transcript slices", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transcript_slices (bot_id, speaker_name, "index") VALUES (?, ?, ?)`)
	if err != nil {
		return nil, mapSQLError(ctx, span, "transcript slices", err)
	}
	defer stmt.Close()

	inserted := make([]models.TranscriptSlice, 0, len(slices))
	for _, slice := range slices {
		res, err := stmt.ExecContext(ctx, slice.BotID, slice.SpeakerName, slice.Index)
		if err != nil {
			return nil, mapSQLError(ctx, span, "transcript slices", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, mapSQLError(ctx, span, "transcript slices", err)
		}
		slice.ID = id
		inserted = append(inserted, slice)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapSQLError(ctx, span, "transcript slices", err)
	}

	span.SetStatus(codes.Ok, "")
	return inserted, nil
}

// InsertWords bulk inserts words in one transaction
func (r *SQLiteTranscriptRepository) InsertWords(ctx context.Context, words []models.TranscriptWord) error {
	ctx, span := r.startSpan(ctx, "insert", "transcript_words")
	defer span.End()
	span.SetAttributes(attribute.Int("db.sql.rows", len(words)))

	if len(words) == 0 {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLError(ctx, span, "transcript words", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transcript_words
		(bot_id, transcript_slice_id, start_time, end_time, content, "index")
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return mapSQLError(ctx, span, "transcript words", err)
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, w.BotID, w.TranscriptSliceID, w.StartTime, w.EndTime, w.Content, w.Index); err != nil {
			return mapSQLError(ctx, span, "transcript words", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapSQLError(ctx, span, "transcript words", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListSlices returns the slices of a bot ordered by index
func (r *SQLiteTranscriptRepository) ListSlices(ctx context.Context, botID string) ([]models.TranscriptSlice, error) {
	ctx, span := r.startSpan(ctx, "select", "transcript_slices")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bot_id, speaker_name, "index"
		FROM transcript_slices
		WHERE bot_id = ?
		ORDER BY "index" ASC
	`, botID)
	if err != nil {
		return nil, failSpan(span, domain.NewInternalError("failed to query transcript slices", err), "")
	}
	defer rows.Close()

	var slices []models.TranscriptSlice
	for rows.Next() {
		var s models.TranscriptSlice
		if err := rows.Scan(&s.ID, &s.BotID, &s.SpeakerName, &s.Index); err != nil {
			return nil, failSpan(span, domain.NewInternalError("failed to scan transcript slice", err), "")
		}
		slices = append(slices, s)
	}
	if err := rows.Err(); err != nil {
		return nil, failSpan(span, domain.NewInternalError("failed to read transcript slices", err), "")
	}

	span.SetStatus(codes.Ok, "")
	return slices, nil
}

// ListWords returns the words of a bot ordered by slice then word index
func (r *SQLiteTranscriptRepository) ListWords(ctx context.Context, botID string) ([]models.TranscriptWord, error) {
	ctx, span := r.startSpan(ctx, "select", "transcript_words")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.bot_id, w.transcript_slice_id, w.start_time, w.end_time, w.content, w."index"
		FROM transcript_words w
		JOIN transcript_slices s ON s.id = w.transcript_slice_id
		WHERE w.bot_id = ?
		ORDER BY s."index" ASC, w."index" ASC
	`, botID)
	if err != nil {
		return nil, failSpan(span, domain.NewInternalError("failed to query transcript words", err), "")
	}
	defer rows.Close()

	var words []models.TranscriptWord
	for rows.Next() {
		var w models.TranscriptWord
		if err := rows.Scan(&w.ID, &w.BotID, &w.TranscriptSliceID, &w.StartTime, &w.EndTime, &w.Content, &w.Index); err != nil {
			return nil, failSpan(span, domain.NewInternalError("failed to scan transcript word", err), "")
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, failSpan(span, domain.NewInternalError(fmt.Sprintf("failed to read transcript words for %s", botID), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return words, nil
}
