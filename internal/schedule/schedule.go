// Package schedule projects completion dates from a weekly study cadence.
// Projections are recomputed from the remaining incomplete topics on every
// call, so finishing topics out of order pulls every later date earlier.
package schedule

import (
	"cloud.google.com/go/civil"

	"github.com/p-n-ai/pai-lms/internal/platform/clock"
	"github.com/p-n-ai/pai-lms/internal/progress"
)

// CalendarDaysForPosition returns how many calendar days after the start
// the position-th unit of study falls, when studying studyDaysPerWeek
// contiguous days each week. Position 1 is the start date itself.
func CalendarDaysForPosition(position, studyDaysPerWeek int) int {
	if position < 1 || studyDaysPerWeek < 1 {
		return 0
	}
	if studyDaysPerWeek > 7 {
		studyDaysPerWeek = 7
	}
	studied := position - 1
	return studied/studyDaysPerWeek*7 + studied%studyDaysPerWeek
}

// Source is the part of the progress store the scheduler reads. The
// schedule is taken from the snapshot's ledger.
type Source interface {
	Snapshot(roadmapID string) progress.Snapshot
}

// Scheduler answers "when will I finish" for roadmaps, phases and topics.
type Scheduler struct {
	source Source
	clock  clock.Clock
}

// New creates a scheduler. A nil clock uses the system clock.
func New(source Source, c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.System{}
	}
	return &Scheduler{source: source, clock: c}
}

// ProjectedRoadmapCompletion is the date the last incomplete topic of the
// roadmap would be finished. It reports false without a schedule or when
// nothing is left.
func (s *Scheduler) ProjectedRoadmapCompletion(roadmapID string) (civil.Date, bool) {
	sched, snap, ok := s.load(roadmapID)
	if !ok {
		return civil.Date{}, false
	}
	remaining := len(snap.IncompleteTopics())
	if remaining == 0 {
		return civil.Date{}, false
	}
	return s.project(sched, remaining), true
}

// ProjectedPhaseCompletion counts incomplete topics up to and including
// the phase. It reports false when the phase is unknown or complete.
func (s *Scheduler) ProjectedPhaseCompletion(roadmapID, phaseSlug string) (civil.Date, bool) {
	sched, snap, ok := s.load(roadmapID)
	if !ok {
		return civil.Date{}, false
	}
	if _, found := snap.Roadmap.Phase(phaseSlug); !found || snap.PhaseComplete(phaseSlug) {
		return civil.Date{}, false
	}

	// Incomplete topics come in catalog order; count through the end of
	// the target phase.
	units := 0
	seen := false
	for _, t := range snap.IncompleteTopics() {
		if t.PhaseSlug == phaseSlug {
			seen = true
		} else if seen {
			break
		}
		units++
	}
	return s.project(sched, units), true
}

// ProjectedTopicCompletion places the topic among the incomplete topics,
// in catalog order. It reports false when the topic is unknown or complete.
func (s *Scheduler) ProjectedTopicCompletion(roadmapID, phaseSlug, topicSlug string) (civil.Date, bool) {
	sched, snap, ok := s.load(roadmapID)
	if !ok {
		return civil.Date{}, false
	}
	target := progress.TopicRef{PhaseSlug: phaseSlug, TopicSlug: topicSlug}
	for i, t := range snap.IncompleteTopics() {
		if t == target {
			return s.project(sched, i+1), true
		}
	}
	return civil.Date{}, false
}

func (s *Scheduler) load(roadmapID string) (progress.StudySchedule, progress.Snapshot, bool) {
	snap := s.source.Snapshot(roadmapID)
	if snap.Roadmap == nil || snap.Progress == nil || snap.Progress.Schedule == nil {
		return progress.StudySchedule{}, progress.Snapshot{}, false
	}
	return *snap.Progress.Schedule, snap, true
}

// project returns the date of the position-th unit counted from the
// effective start: the schedule's start date, or today if that has passed.
func (s *Scheduler) project(sched progress.StudySchedule, position int) civil.Date {
	base := sched.StartDate
	if today := clock.Today(s.clock); today.After(base) {
		base = today
	}
	return base.AddDays(CalendarDaysForPosition(position, sched.StudyDaysPerWeek))
}
