package powertimer

import (
	"context"
	"time"
)

// SessionRecord is the history entry written when a timer completes. Sessions
// are append-only.
type SessionRecord struct {
	TimerID          TimerID `json:"timer_id"`
	TimerName        string  `json:"timer_name"`
	Category         string  `json:"category"`
	DurationSeconds  int     `json:"duration_seconds"`
	CompletedSeconds int     `json:"completed_seconds"`

	//
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	SessionDate time.Time  `json:"session_date"`
}

type ExistingSessionRecord struct {
	ExistingRecord[SessionID]
	SessionRecord
}

// NewSessionRecord snapshots t as it was before being marked completed at now.
func NewSessionRecord(t ExistingTimerRecord, now time.Time) SessionRecord {
	startedAt := now
	if t.StartedAt != nil {
		startedAt = *t.StartedAt
	}
	completedAt := now
	return SessionRecord{
		TimerID:          t.ID,
		TimerName:        t.Name,
		Category:         t.Category,
		DurationSeconds:  t.DurationSeconds,
		CompletedSeconds: t.DurationSeconds - t.RemainingSeconds,
		StartedAt:        startedAt,
		CompletedAt:      &completedAt,
		SessionDate:      now,
	}
}

type SessionRepo interface {
	InsertSession(context.Context, SessionRecord) (ExistingSessionRecord, error)
	// GetSessions returns at most limit sessions, newest first.
	GetSessions(ctx context.Context, limit int) ([]ExistingSessionRecord, error)
}
