package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// SchemaVersion is the version written into every persisted document.
const SchemaVersion = 2

// MultiRoadmapProgress is the root persisted document.
type MultiRoadmapProgress struct {
	Version  int                         `json:"version"`
	Roadmaps map[string]*RoadmapProgress `json:"roadmaps"`
	// GlobalSettings is carried through untouched.
	GlobalSettings json.RawMessage `json:"globalSettings,omitempty"`
}

// RoadmapProgress is the ledger of one roadmap.
type RoadmapProgress struct {
	// StartedAt is stamped on the first lesson or quiz touch. A roadmap
	// that only has a schedule has not been started.
	StartedAt      *time.Time             `json:"startedAt"`
	LastAccessed   *Position              `json:"lastAccessed"`
	TotalTimeSpent int                    `json:"totalTimeSpent"` // minutes
	Schedule       *StudySchedule         `json:"schedule"`
	Phases         map[string]PhaseLedger `json:"phases"`
}

// PhaseLedger maps topic slug to its lessons.
type PhaseLedger map[string]TopicLedger

// TopicLedger maps subtopic slug to its record.
type TopicLedger map[string]*SubtopicProgress

// SubtopicProgress exists only for lessons that have been touched.
type SubtopicProgress struct {
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completedAt"`
	QuizScore       *int       `json:"quizScore"`
	QuizCompletedAt *time.Time `json:"quizCompletedAt"`
}

// Position addresses the last lesson touched, for "continue where you left off".
type Position struct {
	PhaseSlug    string    `json:"phase"`
	TopicSlug    string    `json:"topic"`
	SubtopicSlug string    `json:"subtopic"`
	At           time.Time `json:"at"`
}

// StudySchedule is a weekly study cadence starting on a calendar date.
type StudySchedule struct {
	StartDate        civil.Date `json:"startDate"`
	StudyDaysPerWeek int        `json:"studyDaysPerWeek"`
}

// Validate checks the cadence and date.
func (s StudySchedule) Validate() error {
	if !s.StartDate.IsValid() {
		return fmt.Errorf("%w: startDate %q is not a valid calendar date", ErrInvalid, s.StartDate)
	}
	if s.StudyDaysPerWeek < 1 || s.StudyDaysPerWeek > 7 {
		return fmt.Errorf("%w: studyDaysPerWeek must be between 1 and 7, got %d", ErrInvalid, s.StudyDaysPerWeek)
	}
	return nil
}

// LessonRef addresses one subtopic.
type LessonRef struct {
	RoadmapID    string
	PhaseSlug    string
	TopicSlug    string
	SubtopicSlug string
}

func (r LessonRef) String() string {
	return r.RoadmapID + "/" + r.PhaseSlug + "/" + r.TopicSlug + "/" + r.SubtopicSlug
}

func (r LessonRef) validate() error {
	switch {
	case r.RoadmapID == "":
		return fmt.Errorf("%w: roadmap id is required", ErrInvalid)
	case r.PhaseSlug == "":
		return fmt.Errorf("%w: phase slug is required", ErrInvalid)
	case r.TopicSlug == "":
		return fmt.Errorf("%w: topic slug is required", ErrInvalid)
	case r.SubtopicSlug == "":
		return fmt.Errorf("%w: subtopic slug is required", ErrInvalid)
	}
	return nil
}

func newDocument() *MultiRoadmapProgress {
	return &MultiRoadmapProgress{
		Version:  SchemaVersion,
		Roadmaps: make(map[string]*RoadmapProgress),
	}
}

func newRoadmapProgress() *RoadmapProgress {
	return &RoadmapProgress{Phases: make(map[string]PhaseLedger)}
}

// entry returns the record for a lesson, or nil.
func (rp *RoadmapProgress) entry(phase, topic, subtopic string) *SubtopicProgress {
	if rp == nil {
		return nil
	}
	return rp.Phases[phase][topic][subtopic]
}

// ensureEntry returns the record for a lesson, creating the path to it.
func (rp *RoadmapProgress) ensureEntry(phase, topic, subtopic string) *SubtopicProgress {
	pl, ok := rp.Phases[phase]
	if !ok {
		pl = make(PhaseLedger)
		rp.Phases[phase] = pl
	}
	tl, ok := pl[topic]
	if !ok {
		tl = make(TopicLedger)
		pl[topic] = tl
	}
	sp, ok := tl[subtopic]
	if !ok {
		sp = &SubtopicProgress{}
		tl[subtopic] = sp
	}
	return sp
}

// clone returns a deep copy.
func (rp *RoadmapProgress) clone() *RoadmapProgress {
	if rp == nil {
		return nil
	}
	out := &RoadmapProgress{
		StartedAt:      copyTime(rp.StartedAt),
		TotalTimeSpent: rp.TotalTimeSpent,
		Phases:         make(map[string]PhaseLedger, len(rp.Phases)),
	}
	if rp.LastAccessed != nil {
		pos := *rp.LastAccessed
		out.LastAccessed = &pos
	}
	if rp.Schedule != nil {
		sched := *rp.Schedule
		out.Schedule = &sched
	}
	for ps, pl := range rp.Phases {
		cpl := make(PhaseLedger, len(pl))
		for ts, tl := range pl {
			ctl := make(TopicLedger, len(tl))
			for ss, sp := range tl {
				c := SubtopicProgress{
					Completed:       sp.Completed,
					CompletedAt:     copyTime(sp.CompletedAt),
					QuizCompletedAt: copyTime(sp.QuizCompletedAt),
				}
				if sp.QuizScore != nil {
					score := *sp.QuizScore
					c.QuizScore = &score
				}
				ctl[ss] = &c
			}
			cpl[ts] = ctl
		}
		out.Phases[ps] = cpl
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
