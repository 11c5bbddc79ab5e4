// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// TranscriptSegment is one speaker turn as delivered by a provider, in the common word shape.
type TranscriptSegment struct {
	Speaker string                  `json:"speaker"`
	Words   []TranscriptSegmentWord `json:"words"`
}

// TranscriptSegmentWord is one timed token within a segment. Timestamps are seconds from the recording start.
type TranscriptSegmentWord struct {
	Text           string  `json:"text"`
	StartTimestamp float64 `json:"start_timestamp"`
	EndTimestamp   float64 `json:"end_timestamp"`
}

// WordCount returns the total number of words across segments.
func WordCount(segments []TranscriptSegment) int {
	total := 0
	for _, s := range segments {
		total += len(s.Words)
	}
	return total
}

// TranscriptSlice is one continuous speaker turn, ordered by Index within a bot.
type TranscriptSlice struct {
	ID          int64  `json:"id"`
	BotID       string `json:"bot_id"`
	SpeakerName string `json:"speaker_name"`
	Index       int    `json:"index"`
}

// TranscriptWord is a timed token within a slice, ordered by Index within the slice.
type TranscriptWord struct {
	ID                int64   `json:"id"`
	BotID             string  `json:"bot_id"`
	TranscriptSliceID int64   `json:"transcript_slice_id"`
	StartTime         float64 `json:"start_time"`
	EndTime           float64 `json:"end_time"`
	Content           string  `json:"content"`
	Index             int     `json:"index"`
}
