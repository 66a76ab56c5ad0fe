package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/powertimer"
)

const (
	SelectAllTimers = "SELECT id, name, duration_seconds, remaining_seconds, status, category, template_id, started_at, paused_at, completed_at, created_at, updated_at FROM timers"
)

type timerEntity struct {
	ID               string
	Name             string
	DurationSeconds  int
	RemainingSeconds int
	Status           string
	Category         string
	TemplateID       sql.NullString
	StartedAt        sql.NullInt64
	PausedAt         sql.NullInt64
	CompletedAt      sql.NullInt64
	CreatedAt        int64
	UpdatedAt        int64
}

type timerRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewTimerRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *timerRepo {
	return &timerRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *timerRepo) InsertTimer(ctx context.Context, timer powertimer.TimerRecord) (powertimer.ExistingTimerRecord, error) {
	db := r.dbGetter(ctx)
	e := mapToTimerEntity(powertimer.ExistingTimerRecord{
		TimerRecord:    timer,
		ExistingRecord: powertimer.NewExistingRecord[powertimer.TimerID](uuid.NewString()),
	})

	args := []any{
		e.ID,
		e.Name,
		e.DurationSeconds,
		e.RemainingSeconds,
		e.Status,
		e.Category,
		e.TemplateID,
		e.StartedAt,
		e.PausedAt,
		e.CompletedAt,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO timers (id, name, duration_seconds, remaining_seconds, status, category, template_id, started_at, paused_at, completed_at, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating timer", "query", query, "args", args)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	return mapToExistingTimerRecord(e), nil
}

func (r *timerRepo) GetTimer(ctx context.Context, id powertimer.TimerID) (powertimer.ExistingTimerRecord, error) {
	if id == "" {
		return powertimer.ExistingTimerRecord{}, fmt.Errorf("provide id")
	}

	db := r.dbGetter(ctx)
	row := db.QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id=?", SelectAllTimers), id,
	)

	return extractTimer(row)
}

func (r *timerRepo) GetTimersNotInStatus(ctx context.Context, statuses ...powertimer.TimerStatus) ([]powertimer.ExistingTimerRecord, error) {
	db := r.dbGetter(ctx)
	query := SelectAllTimers
	var args []any
	if len(statuses) > 0 {
		query = fmt.Sprintf("%s WHERE status NOT IN %s", SelectAllTimers, generateParameters(len(statuses)))
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += " ORDER BY created_at, rowid"
	r.l.Debug("getting timers not in status", "query", query, "statuses", statuses)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	timers := []powertimer.ExistingTimerRecord{}
	for rows.Next() {
		timer, err := extractTimer(rows)
		if err != nil {
			return nil, err
		}
		timers = append(timers, timer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return timers, nil
}

// PatchTimer writes only the fields present in p and returns the stored record.
func (r *timerRepo) PatchTimer(ctx context.Context, id powertimer.TimerID, p powertimer.TimerPatch) (powertimer.ExistingTimerRecord, error) {
	existing, err := r.GetTimer(ctx, id)
	if err != nil {
		return existing, err
	}
	if p.IsEmpty() {
		return existing, nil
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	if !p.Name.IsEmpty() {
		set("name", p.Name.Get())
	}
	if !p.RemainingSeconds.IsEmpty() {
		set("remaining_seconds", p.RemainingSeconds.Get())
	}
	if !p.Status.IsEmpty() {
		set("status", string(p.Status.Get()))
	}
	if !p.StartedAt.IsEmpty() {
		set("started_at", toNullMillis(p.StartedAt.Get()))
	}
	if !p.PausedAt.IsEmpty() {
		set("paused_at", toNullMillis(p.PausedAt.Get()))
	}
	if !p.CompletedAt.IsEmpty() {
		set("completed_at", toNullMillis(p.CompletedAt.Get()))
	}
	set("updated_at", toMillis(time.Now()))
	args = append(args, id)

	query := "UPDATE timers SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	r.l.Debug("patching timer", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	return r.GetTimer(ctx, id)
}

func (r *timerRepo) DeleteTimer(ctx context.Context, id powertimer.TimerID) (powertimer.ExistingTimerRecord, error) {
	existing, err := r.GetTimer(ctx, id)
	if err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	db := r.dbGetter(ctx)
	query := "DELETE FROM timers WHERE id = ?"
	r.l.Debug("deleting timer", "query", query, "id", id)
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}
	// lost a race with another delete
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return powertimer.ExistingTimerRecord{}, powertimer.ErrNotFound
	}

	return existing, nil
}

func extractTimer(s scannable) (powertimer.ExistingTimerRecord, error) {
	var e timerEntity
	if err := s.Scan(&e.ID, &e.Name, &e.DurationSeconds, &e.RemainingSeconds, &e.Status, &e.Category, &e.TemplateID, &e.StartedAt, &e.PausedAt, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return powertimer.ExistingTimerRecord{}, powertimer.ErrNotFound
		}
		return powertimer.ExistingTimerRecord{}, err
	}

	return mapToExistingTimerRecord(e), nil
}

func mapToTimerEntity(timer powertimer.ExistingTimerRecord) timerEntity {
	var templateID sql.NullString
	if timer.TemplateID != nil {
		templateID = sql.NullString{String: string(*timer.TemplateID), Valid: true}
	}
	return timerEntity{
		ID:               string(timer.ID),
		Name:             timer.Name,
		DurationSeconds:  timer.DurationSeconds,
		RemainingSeconds: timer.RemainingSeconds,
		Status:           string(timer.Status),
		Category:         timer.Category,
		TemplateID:       templateID,
		StartedAt:        toNullMillis(timer.StartedAt),
		PausedAt:         toNullMillis(timer.PausedAt),
		CompletedAt:      toNullMillis(timer.CompletedAt),
		CreatedAt:        toMillis(timer.CreatedAt),
		UpdatedAt:        toMillis(timer.UpdatedAt),
	}
}

func mapToExistingTimerRecord(e timerEntity) powertimer.ExistingTimerRecord {
	var templateID *powertimer.TemplateID
	if e.TemplateID.Valid {
		id := powertimer.TemplateID(e.TemplateID.String)
		templateID = &id
	}
	return powertimer.ExistingTimerRecord{
		ExistingRecord: powertimer.ExistingRecord[powertimer.TimerID]{
			ID:        powertimer.TimerID(e.ID),
			CreatedAt: fromMillis(e.CreatedAt),
			UpdatedAt: fromMillis(e.UpdatedAt),
		},
		TimerRecord: powertimer.TimerRecord{
			Name:             e.Name,
			DurationSeconds:  e.DurationSeconds,
			RemainingSeconds: e.RemainingSeconds,
			Status:           powertimer.TimerStatus(e.Status),
			Category:         e.Category,
			TemplateID:       templateID,
			StartedAt:        fromNullMillis(e.StartedAt),
			PausedAt:         fromNullMillis(e.PausedAt),
			CompletedAt:      fromNullMillis(e.CompletedAt),
		},
	}
}
