// Package mongo implements repo interfaces on a MongoDB document store.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	timersCollection    = "timers"
	templatesCollection = "timer_templates"
	sessionsCollection  = "timer_sessions"
)

// Store owns the client connection. Repos borrow its database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	l      *log.Logger
}

func Open(ctx context.Context, uri, dbName string, logger *log.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(dbName),
		l:      logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		timersCollection:    {Keys: bson.D{{Key: "status", Value: 1}}},
		templatesCollection: {Keys: bson.D{{Key: "name", Value: 1}}},
		sessionsCollection:  {Keys: bson.D{{Key: "session_date", Value: -1}}},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s index: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) TimerRepo() *timerRepo {
	return &timerRepo{coll: s.db.Collection(timersCollection), l: s.l}
}

func (s *Store) TemplateRepo() *templateRepo {
	return &templateRepo{coll: s.db.Collection(templatesCollection), l: s.l}
}

func (s *Store) SessionRepo() *sessionRepo {
	return &sessionRepo{coll: s.db.Collection(sessionsCollection), l: s.l}
}

// Transactor runs the callback directly: multi-document transactions need a
// replica set, so writes inside it are applied one by one.
func (s *Store) Transactor() transactor.Transactor {
	return sequentialTransactor{}
}

type sequentialTransactor struct{}

func (sequentialTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := utc(*t)
	return &u
}
