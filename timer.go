package powertimer

import (
	"context"
	"time"
)

type TimerStatus string

const (
	TimerStopped   TimerStatus = "stopped"
	TimerRunning   TimerStatus = "running"
	TimerPaused    TimerStatus = "paused"
	TimerCompleted TimerStatus = "completed"
)

func (s TimerStatus) Valid() bool {
	switch s {
	case TimerStopped, TimerRunning, TimerPaused, TimerCompleted:
		return true
	default:
		return false
	}
}

const DefaultCategory = "general"

type (
	TimerID    string
	TemplateID string
	SessionID  string
)

type TimerRecord struct {
	Name             string      `json:"name"`
	DurationSeconds  int         `json:"duration_seconds"`
	RemainingSeconds int         `json:"remaining_seconds"`
	Status           TimerStatus `json:"status"`
	Category         string      `json:"category"`
	TemplateID       *TemplateID `json:"template_id"`

	//
	StartedAt   *time.Time `json:"started_at"`
	PausedAt    *time.Time `json:"paused_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ExistingTimerRecord struct {
	ExistingRecord[TimerID]
	TimerRecord
}

// TimerUpdate is a client-requested change to a timer. Empty fields are left
// untouched.
type TimerUpdate struct {
	Name             Optional[string]      `json:"name"`
	RemainingSeconds Optional[int]         `json:"remaining_seconds"`
	Status           Optional[TimerStatus] `json:"status"`
}

func (u TimerUpdate) Validate() error {
	if !u.RemainingSeconds.IsEmpty() && u.RemainingSeconds.Get() < 0 {
		return &ValidationError{Field: "remaining_seconds", Reason: "must not be negative"}
	}
	if !u.Status.IsEmpty() && !u.Status.Get().Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of stopped, running, paused, completed"}
	}
	return nil
}

// TimerPatch is the set of columns a repo writes for a partial update.
type TimerPatch struct {
	Name             Optional[string]
	RemainingSeconds Optional[int]
	Status           Optional[TimerStatus]
	StartedAt        Optional[*time.Time]
	PausedAt         Optional[*time.Time]
	CompletedAt      Optional[*time.Time]
}

func (p TimerPatch) IsEmpty() bool {
	return p.Name.IsEmpty() &&
		p.RemainingSeconds.IsEmpty() &&
		p.Status.IsEmpty() &&
		p.StartedAt.IsEmpty() &&
		p.PausedAt.IsEmpty() &&
		p.CompletedAt.IsEmpty()
}

type TimerRepo interface {
	InsertTimer(context.Context, TimerRecord) (ExistingTimerRecord, error)
	GetTimer(ctx context.Context, id TimerID) (ExistingTimerRecord, error)
	GetTimersNotInStatus(ctx context.Context, statuses ...TimerStatus) ([]ExistingTimerRecord, error)
	PatchTimer(ctx context.Context, id TimerID, p TimerPatch) (ExistingTimerRecord, error)
	DeleteTimer(ctx context.Context, id TimerID) (ExistingTimerRecord, error)
}
