// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// JetStream stream and subjects used for background bot tasks
const (
	// TaskStreamName is the JetStream stream holding bot tasks
	TaskStreamName = "MEETING_BOT_TASKS"

	// TaskSubjectPrefix prefixes every bot task subject
	TaskSubjectPrefix = "lfx.meeting-bot.tasks"

	// TaskSubjectsWildcard matches every bot task subject
	TaskSubjectsWildcard = TaskSubjectPrefix + ".>"

	// BotEventSubject carries normalized bot lifecycle events (status change, complete, failed)
	BotEventSubject = TaskSubjectPrefix + ".bot_event"

	// CalendarSyncSubject carries calendar sync requests
	CalendarSyncSubject = TaskSubjectPrefix + ".calendar_sync"

	// UploadVideoSubject carries recording upload jobs
	UploadVideoSubject = TaskSubjectPrefix + ".upload_video"

	// TaskConsumerName is the durable consumer shared by every worker replica
	TaskConsumerName = "meeting-bot-task-worker"
)
