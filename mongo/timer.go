package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/benjamonnguyen/powertimer"
)

type timerDocument struct {
	ID               string     `bson:"_id"`
	Name             string     `bson:"name"`
	DurationSeconds  int        `bson:"duration_seconds"`
	RemainingSeconds int        `bson:"remaining_seconds"`
	Status           string     `bson:"status"`
	Category         string     `bson:"category"`
	TemplateID       *string    `bson:"template_id"`
	StartedAt        *time.Time `bson:"started_at"`
	PausedAt         *time.Time `bson:"paused_at"`
	CompletedAt      *time.Time `bson:"completed_at"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

type timerRepo struct {
	coll *mongo.Collection
	l    *log.Logger
}

func (r *timerRepo) InsertTimer(ctx context.Context, timer powertimer.TimerRecord) (powertimer.ExistingTimerRecord, error) {
	doc := mapToTimerDocument(powertimer.ExistingTimerRecord{
		TimerRecord:    timer,
		ExistingRecord: powertimer.NewExistingRecord[powertimer.TimerID](uuid.NewString()),
	})
	r.l.Debug("creating timer", "id", doc.ID)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}
	return mapToExistingTimerRecord(doc), nil
}

func (r *timerRepo) GetTimer(ctx context.Context, id powertimer.TimerID) (powertimer.ExistingTimerRecord, error) {
	var doc timerDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return powertimer.ExistingTimerRecord{}, powertimer.ErrNotFound
		}
		return powertimer.ExistingTimerRecord{}, err
	}
	return mapToExistingTimerRecord(doc), nil
}

func (r *timerRepo) GetTimersNotInStatus(ctx context.Context, statuses ...powertimer.TimerStatus) ([]powertimer.ExistingTimerRecord, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		nin := make(bson.A, 0, len(statuses))
		for _, s := range statuses {
			nin = append(nin, string(s))
		}
		filter["status"] = bson.M{"$nin": nin}
	}
	r.l.Debug("getting timers not in status", "statuses", statuses)

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []timerDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	timers := make([]powertimer.ExistingTimerRecord, 0, len(docs))
	for _, doc := range docs {
		timers = append(timers, mapToExistingTimerRecord(doc))
	}
	return timers, nil
}

// PatchTimer applies the present fields with a single $set and re-reads the
// document.
func (r *timerRepo) PatchTimer(ctx context.Context, id powertimer.TimerID, p powertimer.TimerPatch) (powertimer.ExistingTimerRecord, error) {
	if p.IsEmpty() {
		return r.GetTimer(ctx, id)
	}

	set := bson.M{"updated_at": utc(time.Now())}
	if !p.Name.IsEmpty() {
		set["name"] = p.Name.Get()
	}
	if !p.RemainingSeconds.IsEmpty() {
		set["remaining_seconds"] = p.RemainingSeconds.Get()
	}
	if !p.Status.IsEmpty() {
		set["status"] = string(p.Status.Get())
	}
	if !p.StartedAt.IsEmpty() {
		set["started_at"] = utcPtr(p.StartedAt.Get())
	}
	if !p.PausedAt.IsEmpty() {
		set["paused_at"] = utcPtr(p.PausedAt.Get())
	}
	if !p.CompletedAt.IsEmpty() {
		set["completed_at"] = utcPtr(p.CompletedAt.Get())
	}

	r.l.Debug("patching timer", "id", id, "set", set)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": string(id)}, bson.M{"$set": set})
	if err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}
	if res.MatchedCount == 0 {
		return powertimer.ExistingTimerRecord{}, powertimer.ErrNotFound
	}

	return r.GetTimer(ctx, id)
}

func (r *timerRepo) DeleteTimer(ctx context.Context, id powertimer.TimerID) (powertimer.ExistingTimerRecord, error) {
	var doc timerDocument
	r.l.Debug("deleting timer", "id", id)
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return powertimer.ExistingTimerRecord{}, powertimer.ErrNotFound
		}
		return powertimer.ExistingTimerRecord{}, err
	}
	return mapToExistingTimerRecord(doc), nil
}

func mapToTimerDocument(timer powertimer.ExistingTimerRecord) timerDocument {
	var templateID *string
	if timer.TemplateID != nil {
		id := string(*timer.TemplateID)
		templateID = &id
	}
	return timerDocument{
		ID:               string(timer.ID),
		Name:             timer.Name,
		DurationSeconds:  timer.DurationSeconds,
		RemainingSeconds: timer.RemainingSeconds,
		Status:           string(timer.Status),
		Category:         timer.Category,
		TemplateID:       templateID,
		StartedAt:        utcPtr(timer.StartedAt),
		PausedAt:         utcPtr(timer.PausedAt),
		CompletedAt:      utcPtr(timer.CompletedAt),
		CreatedAt:        utc(timer.CreatedAt),
		UpdatedAt:        utc(timer.UpdatedAt),
	}
}

func mapToExistingTimerRecord(doc timerDocument) powertimer.ExistingTimerRecord {
	var templateID *powertimer.TemplateID
	if doc.TemplateID != nil {
		id := powertimer.TemplateID(*doc.TemplateID)
		templateID = &id
	}
	return powertimer.ExistingTimerRecord{
		ExistingRecord: powertimer.ExistingRecord[powertimer.TimerID]{
			ID:        powertimer.TimerID(doc.ID),
			CreatedAt: utc(doc.CreatedAt),
			UpdatedAt: utc(doc.UpdatedAt),
		},
		TimerRecord: powertimer.TimerRecord{
			Name:             doc.Name,
			DurationSeconds:  doc.DurationSeconds,
			RemainingSeconds: doc.RemainingSeconds,
			Status:           powertimer.TimerStatus(doc.Status),
			Category:         doc.Category,
			TemplateID:       templateID,
			StartedAt:        utcPtr(doc.StartedAt),
			PausedAt:         utcPtr(doc.PausedAt),
			CompletedAt:      utcPtr(doc.CompletedAt),
		},
	}
}
