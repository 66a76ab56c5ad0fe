package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/powertimer"
)

const (
	SelectAllSessions = "SELECT id, timer_id, timer_name, category, duration_seconds, completed_seconds, started_at, completed_at, session_date, created_at, updated_at FROM timer_sessions"
)

type sessionEntity struct {
	ID               string
	TimerID          string
	TimerName        string
	Category         string
	DurationSeconds  int
	CompletedSeconds int
	StartedAt        int64
	CompletedAt      sql.NullInt64
	SessionDate      int64
	CreatedAt        int64
	UpdatedAt        int64
}

type sessionRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewSessionRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *sessionRepo {
	return &sessionRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *sessionRepo) InsertSession(ctx context.Context, session powertimer.SessionRecord) (powertimer.ExistingSessionRecord, error) {
	if session.TimerID == "" {
		return powertimer.ExistingSessionRecord{}, fmt.Errorf("provide required field 'TimerID'")
	}

	db := r.dbGetter(ctx)
	existingRecord := powertimer.ExistingSessionRecord{
		SessionRecord:  session,
		ExistingRecord: powertimer.NewExistingRecord[powertimer.SessionID](uuid.NewString()),
	}
	if existingRecord.SessionDate.IsZero() {
		existingRecord.SessionDate = existingRecord.CreatedAt
	}
	e := mapToSessionEntity(existingRecord)

	args := []any{
		e.ID,
		e.TimerID,
		e.TimerName,
		e.Category,
		e.DurationSeconds,
		e.CompletedSeconds,
		e.StartedAt,
		e.CompletedAt,
		e.SessionDate,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO timer_sessions (id, timer_id, timer_name, category, duration_seconds, completed_seconds, started_at, completed_at, session_date, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating session", "query", query, "args", args)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return powertimer.ExistingSessionRecord{}, err
	}

	return mapToExistingSessionRecord(e), nil
}

func (r *sessionRepo) GetSessions(ctx context.Context, limit int) ([]powertimer.ExistingSessionRecord, error) {
	if limit <= 0 {
		return []powertimer.ExistingSessionRecord{}, nil
	}

	db := r.dbGetter(ctx)
	query := SelectAllSessions + " ORDER BY session_date DESC, rowid DESC LIMIT ?"
	r.l.Debug("getting sessions", "query", query, "limit", limit)
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	sessions := []powertimer.ExistingSessionRecord{}
	for rows.Next() {
		session, err := extractSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func extractSession(s scannable) (powertimer.ExistingSessionRecord, error) {
	var e sessionEntity
	if err := s.Scan(&e.ID, &e.TimerID, &e.TimerName, &e.Category, &e.DurationSeconds, &e.CompletedSeconds, &e.StartedAt, &e.CompletedAt, &e.SessionDate, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return powertimer.ExistingSessionRecord{}, powertimer.ErrNotFound
		}
		return powertimer.ExistingSessionRecord{}, err
	}

	return mapToExistingSessionRecord(e), nil
}

func mapToSessionEntity(session powertimer.ExistingSessionRecord) sessionEntity {
	return sessionEntity{
		ID:               string(session.ID),
		TimerID:          string(session.TimerID),
		TimerName:        session.TimerName,
		Category:         session.Category,
		DurationSeconds:  session.DurationSeconds,
		CompletedSeconds: session.CompletedSeconds,
		StartedAt:        toMillis(session.StartedAt),
		CompletedAt:      toNullMillis(session.CompletedAt),
		SessionDate:      toMillis(session.SessionDate),
		CreatedAt:        toMillis(session.CreatedAt),
		UpdatedAt:        toMillis(session.UpdatedAt),
	}
}

func mapToExistingSessionRecord(e sessionEntity) powertimer.ExistingSessionRecord {
	return powertimer.ExistingSessionRecord{
		ExistingRecord: powertimer.ExistingRecord[powertimer.SessionID]{
			ID:        powertimer.SessionID(e.ID),
			CreatedAt: fromMillis(e.CreatedAt),
			UpdatedAt: fromMillis(e.UpdatedAt),
		},
		SessionRecord: powertimer.SessionRecord{
			TimerID:          powertimer.TimerID(e.TimerID),
			TimerName:        e.TimerName,
			Category:         e.Category,
			DurationSeconds:  e.DurationSeconds,
			CompletedSeconds: e.CompletedSeconds,
			StartedAt:        fromMillis(e.StartedAt),
			CompletedAt:      fromNullMillis(e.CompletedAt),
			SessionDate:      fromMillis(e.SessionDate),
		},
	}
}
