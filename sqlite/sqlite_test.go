package sqlite

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/powertimer"
)

type testRepos struct {
	tx        transactor.Transactor
	timers    *timerRepo
	templates *templateRepo
	sessions  *sessionRepo
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tx, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
	l := log.New(io.Discard)
	return testRepos{
		tx:        tx,
		timers:    NewTimerRepo(dbGetter, l),
		templates: NewTemplateRepo(dbGetter, l),
		sessions:  NewSessionRepo(dbGetter, l),
	}
}

func TestOpen_Memory(t *testing.T) {
	t.Parallel()

	db, err := Open(memoryURL)
	require.NoError(t, err)
	defer db.Close() //nolint

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM timers").Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")
	db, err := Open(path)
	require.NoError(t, err)
	_, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
	inserted, err := NewTimerRepo(dbGetter, log.New(io.Discard)).InsertTimer(context.Background(), powertimer.TimerRecord{
		Name:     "persisted",
		Status:   powertimer.TimerStopped,
		Category: powertimer.DefaultCategory,
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close() //nolint
	_, dbGetter = txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
	got, err := NewTimerRepo(dbGetter, log.New(io.Discard)).GetTimer(context.Background(), inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Name)
}

func TestGenerateParameters(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "()", generateParameters(0))
	assert.Equal(t, "(?)", generateParameters(1))
	assert.Equal(t, "(?, ?, ?)", generateParameters(3))
}

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{memoryURL, memoryURL},
		{"pt.db", "pt.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"},
		{"pt.db?_pragma=busy_timeout(100)", "pt.db?_pragma=busy_timeout(100)&_pragma=journal_mode(WAL)&_txlock=immediate"},
		{"pt.db?_txlock=exclusive&_pragma=busy_timeout(1)&_pragma=journal_mode(DELETE)", "pt.db?_txlock=exclusive&_pragma=busy_timeout(1)&_pragma=journal_mode(DELETE)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildDSN(tt.url), tt.url)
	}
}

func TestWithinTransaction_ConcurrentReadThenWrite(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	const n = 20
	ids := make([]powertimer.TimerID, n)
	for i := range ids {
		timer, err := repos.timers.InsertTimer(ctx, powertimer.TimerRecord{
			Name:             "concurrent",
			DurationSeconds:  60,
			RemainingSeconds: 60,
			Status:           powertimer.TimerRunning,
			Category:         powertimer.DefaultCategory,
		})
		require.NoError(t, err)
		ids[i] = timer.ID
	}

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repos.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				timer, err := repos.timers.GetTimer(ctx, id)
				if err != nil {
					return err
				}
				if _, err := repos.sessions.InsertSession(ctx, powertimer.NewSessionRecord(timer, time.Now())); err != nil {
					return err
				}
				_, err = repos.timers.PatchTimer(ctx, id, powertimer.TimerPatch{
					Status: powertimer.Some(powertimer.TimerCompleted),
				})
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	sessions, err := repos.sessions.GetSessions(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, sessions, n)
}

func TestTimerRepo_InsertAndGet(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	templateID := powertimer.TemplateID("tpl-1")
	inserted, err := repos.timers.InsertTimer(ctx, powertimer.TimerRecord{
		Name:             "Focus",
		DurationSeconds:  1500,
		RemainingSeconds: 1500,
		Status:           powertimer.TimerStopped,
		Category:         "productivity",
		TemplateID:       &templateID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.False(t, inserted.CreatedAt.IsZero())

	got, err := repos.timers.GetTimer(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted, got)
	require.NotNil(t, got.TemplateID)
	assert.Equal(t, templateID, *got.TemplateID)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.PausedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestTimerRepo_GetMissing(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)

	_, err := repos.timers.GetTimer(context.Background(), "missing")
	assert.ErrorIs(t, err, powertimer.ErrNotFound)

	_, err = repos.timers.GetTimer(context.Background(), "")
	assert.Error(t, err)
}

func TestTimerRepo_PatchTimer(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	started := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	paused := started.Add(10 * time.Minute)
	inserted, err := repos.timers.InsertTimer(ctx, powertimer.TimerRecord{
		Name:             "Focus",
		DurationSeconds:  1500,
		RemainingSeconds: 1500,
		Status:           powertimer.TimerPaused,
		Category:         "productivity",
		StartedAt:        &started,
		PausedAt:         &paused,
	})
	require.NoError(t, err)

	resumed := paused.Add(time.Minute)
	patched, err := repos.timers.PatchTimer(ctx, inserted.ID, powertimer.TimerPatch{
		Status:           powertimer.Some(powertimer.TimerRunning),
		RemainingSeconds: powertimer.Some(900),
		StartedAt:        powertimer.Some(&resumed),
		PausedAt:         powertimer.Some[*time.Time](nil),
	})
	require.NoError(t, err)

	assert.Equal(t, powertimer.TimerRunning, patched.Status)
	assert.Equal(t, 900, patched.RemainingSeconds)
	require.NotNil(t, patched.StartedAt)
	assert.Equal(t, resumed, *patched.StartedAt)
	assert.Nil(t, patched.PausedAt)
	// untouched
	assert.Equal(t, "Focus", patched.Name)
	assert.Equal(t, 1500, patched.DurationSeconds)
	assert.Nil(t, patched.CompletedAt)
}

func TestTimerRepo_PatchTimerEmpty(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	inserted, err := repos.timers.InsertTimer(ctx, powertimer.TimerRecord{Name: "Idle", Status: powertimer.TimerStopped})
	require.NoError(t, err)

	got, err := repos.timers.PatchTimer(ctx, inserted.ID, powertimer.TimerPatch{})
	require.NoError(t, err)
	assert.Equal(t, inserted, got)

	_, err = repos.timers.PatchTimer(ctx, "missing", powertimer.TimerPatch{Name: powertimer.Some("x")})
	assert.ErrorIs(t, err, powertimer.ErrNotFound)
}

func TestTimerRepo_GetTimersNotInStatus(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, s := range []powertimer.TimerStatus{powertimer.TimerStopped, powertimer.TimerCompleted, powertimer.TimerRunning, powertimer.TimerPaused} {
		_, err := repos.timers.InsertTimer(ctx, powertimer.TimerRecord{Name: string(s), Status: s})
		require.NoError(t, err)
	}

	active, err := repos.timers.GetTimersNotInStatus(ctx, powertimer.TimerCompleted)
	require.NoError(t, err)
	require.Len(t, active, 3)
	for _, timer := range active {
		assert.NotEqual(t, powertimer.TimerCompleted, timer.Status)
	}
	assert.Equal(t, "stopped", active[0].Name)

	all, err := repos.timers.GetTimersNotInStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTimerRepo_DeleteTimer(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	inserted, err := repos.timers.InsertTimer(ctx, powertimer.TimerRecord{Name: "gone", Status: powertimer.TimerStopped})
	require.NoError(t, err)

	deleted, err := repos.timers.DeleteTimer(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, deleted.ID)

	_, err = repos.timers.GetTimer(ctx, inserted.ID)
	assert.ErrorIs(t, err, powertimer.ErrNotFound)

	_, err = repos.timers.DeleteTimer(ctx, inserted.ID)
	assert.ErrorIs(t, err, powertimer.ErrNotFound)
}

func TestTemplateRepo(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, tpl := range powertimer.DefaultTemplates {
		_, err := repos.templates.InsertTemplate(ctx, tpl)
		require.NoError(t, err)
	}

	all, err := repos.templates.GetAllTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(powertimer.DefaultTemplates))
	for i, tpl := range all {
		assert.Equal(t, powertimer.DefaultTemplates[i], tpl.TemplateRecord)
	}

	byName, err := repos.templates.GetTemplateByName(ctx, "Deep Work")
	require.NoError(t, err)
	assert.Equal(t, 90, byName.DurationMinutes)

	byID, err := repos.templates.GetTemplate(ctx, byName.ID)
	require.NoError(t, err)
	assert.Equal(t, byName, byID)

	_, err = repos.templates.GetTemplateByName(ctx, "Nap")
	assert.ErrorIs(t, err, powertimer.ErrNotFound)
	_, err = repos.templates.GetTemplate(ctx, "missing")
	assert.ErrorIs(t, err, powertimer.ErrNotFound)
}

func TestTemplateRepo_Empty(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)

	all, err := repos.templates.GetAllTemplates(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestSessionRepo(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	day := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		completed := day.Add(time.Duration(i) * time.Hour)
		_, err := repos.sessions.InsertSession(ctx, powertimer.SessionRecord{
			TimerID:          "timer-1",
			TimerName:        "Focus",
			Category:         "productivity",
			DurationSeconds:  1500,
			CompletedSeconds: 100 * (i + 1),
			StartedAt:        completed.Add(-25 * time.Minute),
			CompletedAt:      &completed,
			SessionDate:      completed,
		})
		require.NoError(t, err)
	}

	sessions, err := repos.sessions.GetSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, 300, sessions[0].CompletedSeconds)
	assert.Equal(t, 100, sessions[2].CompletedSeconds)

	limited, err := repos.sessions.GetSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := repos.sessions.GetSessions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionRepo_DefaultsSessionDate(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)

	inserted, err := repos.sessions.InsertSession(context.Background(), powertimer.SessionRecord{
		TimerID:   "timer-1",
		StartedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, inserted.CreatedAt, inserted.SessionDate)

	_, err = repos.sessions.InsertSession(context.Background(), powertimer.SessionRecord{})
	assert.Error(t, err)
}

func TestWithinTransaction_RollsBackSessionInsert(t *testing.T) {
	t.Parallel()
	repos := newTestRepos(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := repos.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repos.sessions.InsertSession(ctx, powertimer.SessionRecord{TimerID: "timer-1", StartedAt: time.Now()}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	sessions, err := repos.sessions.GetSessions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
