// Package progress is the completion ledger for every roadmap: the store
// that owns and persists it, and the read-side queries derived from it.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/platform/clock"
	"github.com/p-n-ai/pai-lms/internal/storage"
)

const (
	defaultStorageKey      = "roadmap-progress"
	defaultLegacyRoadmapID = "devops"
)

// Config holds dependencies for the progress store.
type Config struct {
	Catalog         *catalog.Catalog
	Backend         storage.Backend // default storage.Nop
	Key             string          // storage key (default "roadmap-progress")
	Clock           clock.Clock     // default clock.System
	Events          EventLogger     // default NopEventLogger
	LegacyRoadmapID string          // roadmap version-1 documents migrate into (default "devops")
}

// Store is the single source of truth for completion state. Every mutation
// updates memory first and then writes the whole document through to the
// backend; a failed write is logged and never fails the mutation.
type Store struct {
	catalog   *catalog.Catalog
	backend   storage.Backend
	key       string
	clock     clock.Clock
	events    EventLogger
	legacyID  string
	doc       *MultiRoadmapProgress
	persistEr error
	mu        sync.RWMutex
}

// Open creates a store and hydrates it from the backend. A missing or
// unreadable document starts a fresh ledger.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	s := &Store{
		catalog:  cfg.Catalog,
		backend:  cfg.Backend,
		key:      cfg.Key,
		clock:    cfg.Clock,
		events:   cfg.Events,
		legacyID: cfg.LegacyRoadmapID,
		doc:      newDocument(),
	}
	if s.backend == nil {
		s.backend = storage.Nop{}
	}
	if s.key == "" {
		s.key = defaultStorageKey
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.events == nil {
		s.events = NopEventLogger{}
	}
	if s.legacyID == "" {
		s.legacyID = defaultLegacyRoadmapID
	}

	s.hydrate(ctx)
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) {
	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Info("no stored progress, starting fresh", "key", s.key)
		return
	}
	if err != nil {
		slog.Warn("failed to load progress, starting fresh", "key", s.key, "error", err)
		return
	}

	doc, err := decodeDocument(data, s.legacyID)
	if err != nil {
		// Keep the unreadable document aside before the next write replaces it.
		backupKey := s.key + "-corrupt"
		if saveErr := s.backend.Save(ctx, backupKey, data); saveErr != nil {
			slog.Warn("failed to back up unreadable progress", "key", backupKey, "error", saveErr)
		}
		slog.Warn("stored progress is unreadable, starting fresh", "key", s.key, "backup_key", backupKey, "error", err)
		return
	}

	s.doc = doc
	slog.Info("progress loaded", "key", s.key, "roadmaps", len(doc.Roadmaps))
}

// Catalog returns the catalog the store validates against.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// Clock returns the store's time source.
func (s *Store) Clock() clock.Clock {
	return s.clock
}

// Ping checks the storage backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// PersistError returns the error of the most recent write, or nil if it
// succeeded.
func (s *Store) PersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistEr
}

// MarkComplete records a lesson as complete. It is idempotent: a repeat
// call changes nothing and reports false.
func (s *Store) MarkComplete(ctx context.Context, ref LessonRef, estimatedMinutes int) (bool, error) {
	if err := s.validateLesson(ref); err != nil {
		return false, err
	}
	if estimatedMinutes < 0 {
		return false, fmt.Errorf("%w: estimated minutes must not be negative, got %d", ErrInvalid, estimatedMinutes)
	}

	s.mu.Lock()
	now := s.now()
	rp := s.touch(ref.RoadmapID, now)
	sp := rp.ensureEntry(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug)
	if sp.Completed {
		s.mu.Unlock()
		return false, nil
	}

	sp.Completed = true
	sp.CompletedAt = &now
	rp.TotalTimeSpent += estimatedMinutes
	rp.LastAccessed = &Position{
		PhaseSlug:    ref.PhaseSlug,
		TopicSlug:    ref.TopicSlug,
		SubtopicSlug: ref.SubtopicSlug,
		At:           now,
	}
	s.persist(ctx)
	s.mu.Unlock()

	s.emit(lessonEvent(EventLessonCompleted, ref, now, map[string]any{
		"estimated_minutes": estimatedMinutes,
	}))
	return true, nil
}

// RecordQuizScore keeps the best score seen for a lesson. It reports
// whether score replaced the stored best. It never marks the lesson
// complete.
func (s *Store) RecordQuizScore(ctx context.Context, ref LessonRef, score int) (bool, error) {
	if err := s.validateLesson(ref); err != nil {
		return false, err
	}
	if score < 0 || score > 100 {
		return false, fmt.Errorf("%w: quiz score must be between 0 and 100, got %d", ErrInvalid, score)
	}

	s.mu.Lock()
	if prev := s.doc.Roadmaps[ref.RoadmapID].entry(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug); prev != nil && prev.QuizScore != nil && *prev.QuizScore >= score {
		s.mu.Unlock()
		return false, nil
	}

	now := s.now()
	rp := s.touch(ref.RoadmapID, now)
	sp := rp.ensureEntry(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug)
	sp.QuizScore = &score
	sp.QuizCompletedAt = &now
	s.persist(ctx)
	s.mu.Unlock()

	s.emit(lessonEvent(EventQuizScored, ref, now, map[string]any{
		"score": score,
	}))
	return true, nil
}

// IsComplete answers completion at whichever level is addressed: a lesson
// when all three slugs are given, a topic with phase and topic, a phase
// with phase alone. At least the phase is required.
func (s *Store) IsComplete(roadmapID, phaseSlug, topicSlug, subtopicSlug string) (bool, error) {
	switch {
	case roadmapID == "":
		return false, fmt.Errorf("%w: roadmap id is required", ErrInvalid)
	case phaseSlug == "":
		return false, fmt.Errorf("%w: at least a phase slug is required", ErrInvalid)
	case topicSlug == "" && subtopicSlug != "":
		return false, fmt.Errorf("%w: a subtopic slug requires a topic slug", ErrInvalid)
	}

	snap := s.Snapshot(roadmapID)
	switch {
	case subtopicSlug != "":
		return snap.SubtopicComplete(phaseSlug, topicSlug, subtopicSlug), nil
	case topicSlug != "":
		return snap.TopicComplete(phaseSlug, topicSlug), nil
	default:
		return snap.PhaseComplete(phaseSlug), nil
	}
}

// ResetProgress wipes one roadmap's ledger, schedule included.
func (s *Store) ResetProgress(ctx context.Context, roadmapID string) error {
	if roadmapID == "" {
		return fmt.Errorf("%w: roadmap id is required", ErrInvalid)
	}

	s.mu.Lock()
	if _, ok := s.doc.Roadmaps[roadmapID]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.doc.Roadmaps, roadmapID)
	s.persist(ctx)
	now := s.now()
	s.mu.Unlock()

	s.emit(Event{Type: EventProgressReset, RoadmapID: roadmapID, CreatedAt: now})
	return nil
}

// SetSchedule replaces the roadmap's study schedule.
func (s *Store) SetSchedule(ctx context.Context, roadmapID string, sched StudySchedule) error {
	if err := s.validateRoadmap(roadmapID); err != nil {
		return err
	}
	if err := sched.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	rp, ok := s.doc.Roadmaps[roadmapID]
	if !ok {
		rp = newRoadmapProgress()
		s.doc.Roadmaps[roadmapID] = rp
	}
	rp.Schedule = &sched
	s.persist(ctx)
	now := s.now()
	s.mu.Unlock()

	s.emit(Event{
		Type:      EventScheduleSet,
		RoadmapID: roadmapID,
		Data: map[string]any{
			"start_date":          sched.StartDate.String(),
			"study_days_per_week": sched.StudyDaysPerWeek,
		},
		CreatedAt: now,
	})
	return nil
}

// ClearSchedule removes the roadmap's study schedule, if any.
func (s *Store) ClearSchedule(ctx context.Context, roadmapID string) error {
	if roadmapID == "" {
		return fmt.Errorf("%w: roadmap id is required", ErrInvalid)
	}

	s.mu.Lock()
	rp, ok := s.doc.Roadmaps[roadmapID]
	if !ok || rp.Schedule == nil {
		s.mu.Unlock()
		return nil
	}
	rp.Schedule = nil
	s.persist(ctx)
	now := s.now()
	s.mu.Unlock()

	s.emit(Event{Type: EventScheduleCleared, RoadmapID: roadmapID, CreatedAt: now})
	return nil
}

// Schedule returns the roadmap's study schedule.
func (s *Store) Schedule(roadmapID string) (StudySchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rp, ok := s.doc.Roadmaps[roadmapID]
	if !ok || rp.Schedule == nil {
		return StudySchedule{}, false
	}
	return *rp.Schedule, true
}

// Export serializes the whole document for backup.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	return data, nil
}

// Import validates data and, only if it is valid, replaces the whole
// document. Older schema versions are migrated.
func (s *Store) Import(ctx context.Context, data []byte) error {
	doc, err := decodeDocument(data, s.legacyID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.persist(ctx)
	now := s.now()
	s.mu.Unlock()

	s.emit(Event{
		Type:      EventProgressImported,
		Data:      map[string]any{"roadmaps": len(doc.Roadmaps)},
		CreatedAt: now,
	})
	return nil
}

// Snapshot returns a consistent copy of one roadmap's catalog entry and
// ledger for read-side queries. Unknown roadmaps yield an empty snapshot.
func (s *Store) Snapshot(roadmapID string) Snapshot {
	rd, _ := s.catalog.Roadmap(roadmapID)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Roadmap: rd, Progress: s.doc.Roadmaps[roadmapID].clone()}
}

// touch returns the roadmap's ledger, creating it and stamping StartedAt
// on first use. Callers hold s.mu.
func (s *Store) touch(roadmapID string, now time.Time) *RoadmapProgress {
	rp, ok := s.doc.Roadmaps[roadmapID]
	if !ok {
		rp = newRoadmapProgress()
		s.doc.Roadmaps[roadmapID] = rp
	}
	if rp.StartedAt == nil {
		started := now
		rp.StartedAt = &started
	}
	return rp
}

// persist writes the whole document through to the backend. Callers hold
// s.mu for the duration of the save, so readers wait on a slow backend;
// writes stay ordered with the in-memory state they serialize.
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.doc)
	if err == nil {
		err = s.backend.Save(ctx, s.key, data)
	}
	s.persistEr = err
	if err != nil {
		slog.Warn("failed to persist progress; in-memory state kept", "key", s.key, "error", err)
	}
}

func (s *Store) emit(event Event) {
	event.ID = uuid.NewString()
	if err := s.events.LogEvent(event); err != nil {
		slog.Warn("failed to log progress event", "type", event.Type, "error", err)
	}
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Store) validateRoadmap(roadmapID string) error {
	if roadmapID == "" {
		return fmt.Errorf("%w: roadmap id is required", ErrInvalid)
	}
	if _, ok := s.catalog.Roadmap(roadmapID); !ok {
		return fmt.Errorf("%w: unknown roadmap %q", ErrInvalid, roadmapID)
	}
	return nil
}

func (s *Store) validateLesson(ref LessonRef) error {
	if err := ref.validate(); err != nil {
		return err
	}
	rd, ok := s.catalog.Roadmap(ref.RoadmapID)
	if !ok {
		return fmt.Errorf("%w: unknown roadmap %q", ErrInvalid, ref.RoadmapID)
	}
	if _, ok := rd.Subtopic(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug); !ok {
		return fmt.Errorf("%w: unknown lesson %s", ErrInvalid, ref)
	}
	return nil
}

func lessonEvent(eventType string, ref LessonRef, at time.Time, data map[string]any) Event {
	return Event{
		Type:         eventType,
		RoadmapID:    ref.RoadmapID,
		PhaseSlug:    ref.PhaseSlug,
		TopicSlug:    ref.TopicSlug,
		SubtopicSlug: ref.SubtopicSlug,
		Data:         data,
		CreatedAt:    at,
	}
}
