package main

import (
	"context"
	"fmt"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/powertimer"
	"github.com/benjamonnguyen/powertimer/mongo"
	"github.com/benjamonnguyen/powertimer/sqlite"
)

type repos struct {
	timers    powertimer.TimerRepo
	templates powertimer.TemplateRepo
	sessions  powertimer.SessionRepo
	tx        transactor.Transactor
	close     func(context.Context) error
}

// openRepos picks the backing store from the database URL: a mongodb:// URL
// selects the document store, anything else is a SQLite path.
func openRepos(ctx context.Context, cfg powertimer.Config, logger *log.Logger) (repos, error) {
	if cfg.IsMongo() {
		logger.Info("opening document store", "db", cfg.DatabaseName)
		store, err := mongo.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger)
		if err != nil {
			return repos{}, fmt.Errorf("failed to open document store: %w", err)
		}
		return repos{
			timers:    store.TimerRepo(),
			templates: store.TemplateRepo(),
			sessions:  store.SessionRepo(),
			tx:        store.Transactor(),
			close:     store.Close,
		}, nil
	}

	logger.Info("opening db", "url", cfg.DatabaseURL)
	db, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		return repos{}, err
	}
	tx, dbGetter := txStdLib.NewTransactor(
		db,
		txStdLib.NestedTransactionsSavepoints,
	)
	return repos{
		timers:    sqlite.NewTimerRepo(dbGetter, logger),
		templates: sqlite.NewTemplateRepo(dbGetter, logger),
		sessions:  sqlite.NewSessionRepo(dbGetter, logger),
		tx:        tx,
		close: func(context.Context) error {
			return db.Close()
		},
	}, nil
}
