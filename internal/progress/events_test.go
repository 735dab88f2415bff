package progress_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/storage"
)

type failingLogger struct{ err error }

func (f failingLogger) LogEvent(progress.Event) error { return f.err }

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	l := progress.NewMemoryEventLogger()
	assert.Error(t, l.LogEvent(progress.Event{}))
	assert.Empty(t, l.Events())
}

func TestMultiEventLogger_CallsEveryLogger(t *testing.T) {
	a := progress.NewMemoryEventLogger()
	b := progress.NewMemoryEventLogger()
	boom := errors.New("boom")
	multi := progress.MultiEventLogger{a, failingLogger{boom}, b}

	err := multi.LogEvent(progress.Event{Type: progress.EventLessonCompleted})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestPostgresEventLogger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("lms"),
		postgres.WithUsername("lms"),
		postgres.WithPassword("lms"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	opened, err := storage.Open(ctx, storage.Options{Driver: storage.DriverPostgres, DatabaseURL: dsn, MaxConns: 2, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(opened.Close)

	logger := progress.NewPostgresEventLogger(opened.DB.Pool)
	require.NoError(t, logger.LogEvent(progress.Event{
		Type:         progress.EventQuizScored,
		RoadmapID:    "devops",
		PhaseSlug:    "basics",
		TopicSlug:    "linux",
		SubtopicSlug: "shell",
		Data:         map[string]any{"score": 80},
		CreatedAt:    time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}))
	// Import events carry no roadmap.
	require.NoError(t, logger.LogEvent(progress.Event{Type: progress.EventProgressImported}))
	assert.Error(t, logger.LogEvent(progress.Event{}))

	var count int
	require.NoError(t, opened.DB.Pool.QueryRow(ctx, `SELECT count(*) FROM progress_events WHERE roadmap_id IS NULL`).Scan(&count))
	assert.Equal(t, 1, count)

	var score int
	require.NoError(t, opened.DB.Pool.QueryRow(ctx,
		`SELECT (data->>'score')::int FROM progress_events WHERE event_type = $1`, progress.EventQuizScored).Scan(&score))
	assert.Equal(t, 80, score)
}
