package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event types emitted by the store. Idempotent repeats emit nothing.
const (
	EventLessonCompleted  = "lesson_completed"
	EventQuizScored       = "quiz_scored"
	EventScheduleSet      = "schedule_set"
	EventScheduleCleared  = "schedule_cleared"
	EventProgressReset    = "progress_reset"
	EventProgressImported = "progress_imported"
)

const eventTimeout = 5 * time.Second

// Event records one effective change to the progress ledger.
type Event struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	RoadmapID    string         `json:"roadmapId,omitempty"`
	PhaseSlug    string         `json:"phase,omitempty"`
	TopicSlug    string         `json:"topic,omitempty"`
	SubtopicSlug string         `json:"subtopic,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(Event) error {
	return nil
}

// MultiEventLogger fans an event out to several loggers. Every logger is
// called; the first error is returned.
type MultiEventLogger []EventLogger

func (m MultiEventLogger) LogEvent(event Event) error {
	var first error
	for _, l := range m {
		if err := l.LogEvent(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresEventLogger inserts events into the progress_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO progress_events (id, event_type, roadmap_id, phase_slug, topic_slug, subtopic_slug, data, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
		id,
		event.Type,
		nullIfEmpty(event.RoadmapID),
		nullIfEmpty(event.PhaseSlug),
		nullIfEmpty(event.TopicSlug),
		nullIfEmpty(event.SubtopicSlug),
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"roadmap_id", event.RoadmapID,
		"event_id", id,
	)
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
