package mongo

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/powertimer"
)

const testURLEnv = "POWERTIMER_TEST_MONGO_URL"

// openTestStore connects to the server named by POWERTIMER_TEST_MONGO_URL and
// uses a throwaway database.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv(testURLEnv)
	if uri == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, uri, "powertimer_test_"+uuid.NewString()[:8], log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestUTC(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 1, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))
	out := utc(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123000000, out.Nanosecond())
	assert.True(t, in.Truncate(time.Millisecond).Equal(out))

	assert.Nil(t, utcPtr(nil))
}

func TestSequentialTransactor(t *testing.T) {
	t.Parallel()

	called := false
	err := sequentialTransactor{}.WithinTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestTimerRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.TimerRepo()
	ctx := context.Background()

	inserted, err := repo.InsertTimer(ctx, powertimer.TimerRecord{
		Name:             "Focus",
		DurationSeconds:  1500,
		RemainingSeconds: 1500,
		Status:           powertimer.TimerStopped,
		Category:         "productivity",
	})
	require.NoError(t, err)

	got, err := repo.GetTimer(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted, got)

	now := time.Now()
	patched, err := repo.PatchTimer(ctx, inserted.ID, powertimer.TimerPatch{
		Status:    powertimer.Some(powertimer.TimerRunning),
		StartedAt: powertimer.Some(&now),
		PausedAt:  powertimer.Some[*time.Time](nil),
	})
	require.NoError(t, err)
	assert.Equal(t, powertimer.TimerRunning, patched.Status)
	require.NotNil(t, patched.StartedAt)
	assert.Nil(t, patched.PausedAt)
	assert.Equal(t, 1500, patched.RemainingSeconds)

	_, err = repo.PatchTimer(ctx, "missing", powertimer.TimerPatch{Name: powertimer.Some("x")})
	assert.ErrorIs(t, err, powertimer.ErrNotFound)

	_, err = repo.InsertTimer(ctx, powertimer.TimerRecord{Name: "done", Status: powertimer.TimerCompleted})
	require.NoError(t, err)
	active, err := repo.GetTimersNotInStatus(ctx, powertimer.TimerCompleted)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, inserted.ID, active[0].ID)

	_, err = repo.DeleteTimer(ctx, inserted.ID)
	require.NoError(t, err)
	_, err = repo.DeleteTimer(ctx, inserted.ID)
	assert.ErrorIs(t, err, powertimer.ErrNotFound)
}

func TestTemplateAndSessionRepos(t *testing.T) {
	s := openTestStore(t)
	templates := s.TemplateRepo()
	sessions := s.SessionRepo()
	ctx := context.Background()

	for _, tpl := range powertimer.DefaultTemplates {
		_, err := templates.InsertTemplate(ctx, tpl)
		require.NoError(t, err)
	}
	all, err := templates.GetAllTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(powertimer.DefaultTemplates))

	byName, err := templates.GetTemplateByName(ctx, "Quick Task")
	require.NoError(t, err)
	assert.Equal(t, "tasks", byName.Category)

	_, err = templates.GetTemplate(ctx, "missing")
	assert.ErrorIs(t, err, powertimer.ErrNotFound)

	_, err = sessions.InsertSession(ctx, powertimer.SessionRecord{
		TimerID:          "timer-1",
		Category:         "productivity",
		CompletedSeconds: 1500,
		StartedAt:        time.Now(),
	})
	require.NoError(t, err)
	got, err := sessions.GetSessions(ctx, powertimer.StatsSessionLimit)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1500, got[0].CompletedSeconds)
	assert.False(t, got[0].SessionDate.IsZero())
}
