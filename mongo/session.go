package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/benjamonnguyen/powertimer"
)

type sessionDocument struct {
	ID               string     `bson:"_id"`
	TimerID          string     `bson:"timer_id"`
	TimerName        string     `bson:"timer_name"`
	Category         string     `bson:"category"`
	DurationSeconds  int        `bson:"duration_seconds"`
	CompletedSeconds int        `bson:"completed_seconds"`
	StartedAt        time.Time  `bson:"started_at"`
	CompletedAt      *time.Time `bson:"completed_at"`
	SessionDate      time.Time  `bson:"session_date"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

type sessionRepo struct {
	coll *mongo.Collection
	l    *log.Logger
}

func (r *sessionRepo) InsertSession(ctx context.Context, session powertimer.SessionRecord) (powertimer.ExistingSessionRecord, error) {
	if session.TimerID == "" {
		return powertimer.ExistingSessionRecord{}, fmt.Errorf("provide required field 'TimerID'")
	}

	existing := powertimer.ExistingSessionRecord{
		SessionRecord:  session,
		ExistingRecord: powertimer.NewExistingRecord[powertimer.SessionID](uuid.NewString()),
	}
	if existing.SessionDate.IsZero() {
		existing.SessionDate = existing.CreatedAt
	}
	doc := mapToSessionDocument(existing)
	r.l.Debug("creating session", "id", doc.ID, "timerID", doc.TimerID)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return powertimer.ExistingSessionRecord{}, err
	}
	return mapToExistingSessionRecord(doc), nil
}

func (r *sessionRepo) GetSessions(ctx context.Context, limit int) ([]powertimer.ExistingSessionRecord, error) {
	if limit <= 0 {
		return []powertimer.ExistingSessionRecord{}, nil
	}

	r.l.Debug("getting sessions", "limit", limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "session_date", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []sessionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	sessions := make([]powertimer.ExistingSessionRecord, 0, len(docs))
	for _, doc := range docs {
		sessions = append(sessions, mapToExistingSessionRecord(doc))
	}
	return sessions, nil
}

func mapToSessionDocument(session powertimer.ExistingSessionRecord) sessionDocument {
	return sessionDocument{
		ID:               string(session.ID),
		TimerID:          string(session.TimerID),
		TimerName:        session.TimerName,
		Category:         session.Category,
		DurationSeconds:  session.DurationSeconds,
		CompletedSeconds: session.CompletedSeconds,
		StartedAt:        utc(session.StartedAt),
		CompletedAt:      utcPtr(session.CompletedAt),
		SessionDate:      utc(session.SessionDate),
		CreatedAt:        utc(session.CreatedAt),
		UpdatedAt:        utc(session.UpdatedAt),
	}
}

func mapToExistingSessionRecord(doc sessionDocument) powertimer.ExistingSessionRecord {
	return powertimer.ExistingSessionRecord{
		ExistingRecord: powertimer.ExistingRecord[powertimer.SessionID]{
			ID:        powertimer.SessionID(doc.ID),
			CreatedAt: utc(doc.CreatedAt),
			UpdatedAt: utc(doc.UpdatedAt),
		},
		SessionRecord: powertimer.SessionRecord{
			TimerID:          powertimer.TimerID(doc.TimerID),
			TimerName:        doc.TimerName,
			Category:         doc.Category,
			DurationSeconds:  doc.DurationSeconds,
			CompletedSeconds: doc.CompletedSeconds,
			StartedAt:        utc(doc.StartedAt),
			CompletedAt:      utcPtr(doc.CompletedAt),
			SessionDate:      utc(doc.SessionDate),
		},
	}
}
