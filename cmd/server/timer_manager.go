package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/powertimer"
)

type createTimerRequest struct {
	Name            *string                `json:"name"`
	DurationSeconds *int                   `json:"duration_seconds"`
	Category        string                 `json:"category"`
	TemplateID      *powertimer.TemplateID `json:"template_id"`
}

func (r createTimerRequest) validate() error {
	if r.Name == nil {
		return &powertimer.ValidationError{Field: "name", Reason: "required"}
	}
	if r.DurationSeconds == nil {
		return &powertimer.ValidationError{Field: "duration_seconds", Reason: "required"}
	}
	if *r.DurationSeconds < 0 {
		return &powertimer.ValidationError{Field: "duration_seconds", Reason: "must not be negative"}
	}
	return nil
}

type TimerManager interface {
	CreateTimer(context.Context, createTimerRequest) (powertimer.ExistingTimerRecord, error)
	GetTimer(context.Context, powertimer.TimerID) (powertimer.ExistingTimerRecord, error)
	ListTimers(context.Context) ([]powertimer.ExistingTimerRecord, error)
	UpdateTimer(context.Context, powertimer.TimerID, powertimer.TimerUpdate) (powertimer.ExistingTimerRecord, error)
	DeleteTimer(context.Context, powertimer.TimerID) error
}

type timerManager struct {
	timers   powertimer.TimerRepo
	sessions powertimer.SessionRepo
	tx       transactor.Transactor
	l        *log.Logger
	now      func() time.Time
}

func NewTimerManager(timers powertimer.TimerRepo, sessions powertimer.SessionRepo, tx transactor.Transactor, logger *log.Logger) TimerManager {
	return &timerManager{
		timers:   timers,
		sessions: sessions,
		tx:       tx,
		l:        logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *timerManager) CreateTimer(ctx context.Context, req createTimerRequest) (powertimer.ExistingTimerRecord, error) {
	if err := req.validate(); err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	category := req.Category
	if category == "" {
		category = powertimer.DefaultCategory
	}
	timer, err := m.timers.InsertTimer(ctx, powertimer.TimerRecord{
		Name:             *req.Name,
		DurationSeconds:  *req.DurationSeconds,
		RemainingSeconds: *req.DurationSeconds,
		Status:           powertimer.TimerStopped,
		Category:         category,
		TemplateID:       req.TemplateID,
	})
	if err != nil {
		return powertimer.ExistingTimerRecord{}, fmt.Errorf("failed to insert timer: %w", err)
	}

	m.l.Debug("created timer", "id", timer.ID, "name", timer.Name, "duration", timer.DurationSeconds)
	return timer, nil
}

func (m *timerManager) GetTimer(ctx context.Context, id powertimer.TimerID) (powertimer.ExistingTimerRecord, error) {
	return m.timers.GetTimer(ctx, id)
}

// ListTimers returns every timer that is not completed.
func (m *timerManager) ListTimers(ctx context.Context) ([]powertimer.ExistingTimerRecord, error) {
	return m.timers.GetTimersNotInStatus(ctx, powertimer.TimerCompleted)
}

// UpdateTimer applies a client update. Moving to completed also records a
// session built from the timer as it was before this update; both writes share
// one transaction.
func (m *timerManager) UpdateTimer(ctx context.Context, id powertimer.TimerID, u powertimer.TimerUpdate) (powertimer.ExistingTimerRecord, error) {
	if err := u.Validate(); err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	var updated powertimer.ExistingTimerRecord
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := m.timers.GetTimer(ctx, id)
		if err != nil {
			return err
		}

		now := m.now()
		patch := powertimer.TimerPatch{
			Name:             u.Name,
			RemainingSeconds: u.RemainingSeconds,
			Status:           u.Status,
		}
		if !u.Status.IsEmpty() {
			switch u.Status.Get() {
			case powertimer.TimerRunning:
				patch.StartedAt = powertimer.Some(&now)
				patch.PausedAt = powertimer.Some[*time.Time](nil)
			case powertimer.TimerPaused:
				patch.PausedAt = powertimer.Some(&now)
			case powertimer.TimerCompleted:
				patch.CompletedAt = powertimer.Some(&now)
				if existing.Status == powertimer.TimerCompleted {
					m.l.Warn("timer completed again, recording another session", "id", id)
				}
				session, err := m.sessions.InsertSession(ctx, powertimer.NewSessionRecord(existing, now))
				if err != nil {
					return fmt.Errorf("failed to insert session: %w", err)
				}
				m.l.Debug("recorded session", "id", session.ID, "timerID", id, "completedSeconds", session.CompletedSeconds)
			}
		}

		updated, err = m.timers.PatchTimer(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("failed to update timer: %w", err)
		}
		return nil
	})
	if err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	return updated, nil
}

func (m *timerManager) DeleteTimer(ctx context.Context, id powertimer.TimerID) error {
	deleted, err := m.timers.DeleteTimer(ctx, id)
	if err != nil {
		return err
	}
	m.l.Debug("deleted timer", "id", deleted.ID)
	return nil
}
