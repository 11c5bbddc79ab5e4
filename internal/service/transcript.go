// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
)

// BuildTranscriptSlices turns each speaker turn into a slice ordered by its position
func BuildTranscriptSlices(botID string, segments []models.TranscriptSegment) []models.TranscriptSlice {
	slices := make([]models.TranscriptSlice, 0, len(segments))
	for i, segment := range segments {
		slices = append(slices, models.TranscriptSlice{
			BotID:       botID,
			SpeakerName: segment.Speaker,
			Index:       i,
		})
	}
	return slices
}

// BuildTranscriptWords links every word to the stored slice at the same position as its segment.
// Segments without a stored slice are skipped.
func BuildTranscriptWords(botID string, segments []models.TranscriptSegment, stored []models.TranscriptSlice) []models.TranscriptWord {
	words := make([]models.TranscriptWord, 0, models.WordCount(segments))
	for i, segment := range segments {
		if i >= len(stored) {
			break
		}
		for j, word := range segment.Words {
			words = append(words, models.TranscriptWord{
				BotID:             botID,
				TranscriptSliceID: stored[i].ID,
				StartTime:         word.StartTimestamp,
				EndTime:           word.EndTimestamp,
				Content:           word.Text,
				Index:             j,
			})
		}
	}
	return words
}

// TranscriptResult counts the rows a transcript produced
type TranscriptResult struct {
	Slices int
	Words  int
}

// storeTranscript inserts the slices first to learn their ids, then the words.
// Failures are reported and never returned.
func (s *IngestionService) storeTranscript(
	ctx context.Context,
	bot *models.Bot,
	label string,
	segments []models.TranscriptSegment,
) TranscriptResult {
	slog.InfoContext(ctx, "processing transcript",
		"transcript_length", len(segments),
		"total_words", models.WordCount(segments),
	)
	s.notifier.Send(ctx, domain.SeverityInfo,
		withLabel(label, fmt.Sprintf("Processing transcript with %d segments", len(segments))))

	if len(segments) == 0 {
		slog.WarnContext(ctx, "no transcript slices to insert")
		s.notifier.Send(ctx, domain.SeverityWarn,
			withLabel(label, "No transcript slices were inserted for meeting "+bot.ID))
		return TranscriptResult{}
	}

	stored, err := s.transcriptRepository.InsertSlices(ctx, BuildTranscriptSlices(bot.ID, segments))
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeConflict) {
			slog.InfoContext(ctx, "transcript already stored for bot, skipping", logging.ErrKey, err)
			return TranscriptResult{}
		}
		slog.ErrorContext(ctx, "failed to insert transcript slices", logging.ErrKey, err)
		s.notifier.Send(ctx, domain.SeverityError,
			withLabel(label, fmt.Sprintf("Failed to insert transcript slices: %v", err)))
		return TranscriptResult{}
	}
	if len(stored) == 0 {
		slog.WarnContext(ctx, "no transcript slices were inserted")
		s.notifier.Send(ctx, domain.SeverityWarn,
			withLabel(label, "No transcript slices were inserted for meeting "+bot.ID))
		return TranscriptResult{}
	}

	words := BuildTranscriptWords(bot.ID, segments, stored)
	if len(words) > 0 {
		if err := s.transcriptRepository.InsertWords(ctx, words); err != nil {
			slog.ErrorContext(ctx, "failed to insert transcript words", "words_count", len(words), logging.ErrKey, err)
			s.notifier.Send(ctx, domain.SeverityError,
				withLabel(label, fmt.Sprintf("Failed to insert transcript words: %v", err)))
			return TranscriptResult{Slices: len(stored)}
		}
	}

	slog.InfoContext(ctx, "stored transcript", "slices_count", len(stored), "words_count", len(words))
	s.notifier.Send(ctx, domain.SeveritySuccess, withLabel(label,
		fmt.Sprintf("Successfully processed transcript with %d slices and %d words", len(stored), len(words))))
	return TranscriptResult{Slices: len(stored), Words: len(words)}
}
