package progress

import (
	"math"

	"github.com/p-n-ai/pai-lms/internal/catalog"
)

// Snapshot pairs a roadmap's catalog entry with a copy of its ledger.
// Counts are driven by the catalog: ledger entries for lessons the catalog
// no longer lists are ignored, so percentages never exceed 100.
type Snapshot struct {
	Roadmap  *catalog.Roadmap
	Progress *RoadmapProgress
}

// SubtopicComplete reports whether one lesson is complete.
func (s Snapshot) SubtopicComplete(phaseSlug, topicSlug, subtopicSlug string) bool {
	sp := s.Progress.entry(phaseSlug, topicSlug, subtopicSlug)
	return sp != nil && sp.Completed
}

// CompletedCountForTopic counts completed lessons of one topic.
func (s Snapshot) CompletedCountForTopic(phaseSlug, topicSlug string) int {
	if s.Roadmap == nil {
		return 0
	}
	t, ok := s.Roadmap.Topic(phaseSlug, topicSlug)
	if !ok {
		return 0
	}
	return s.completedInTopic(phaseSlug, t)
}

// TopicComplete reports whether every lesson of a topic is complete. A
// topic with no lessons is complete; an unknown topic is not.
func (s Snapshot) TopicComplete(phaseSlug, topicSlug string) bool {
	if s.Roadmap == nil {
		return false
	}
	t, ok := s.Roadmap.Topic(phaseSlug, topicSlug)
	if !ok {
		return false
	}
	return s.completedInTopic(phaseSlug, t) == len(t.Subtopics)
}

// PhaseComplete reports whether every topic of a phase is complete.
func (s Snapshot) PhaseComplete(phaseSlug string) bool {
	if s.Roadmap == nil {
		return false
	}
	p, ok := s.Roadmap.Phase(phaseSlug)
	if !ok {
		return false
	}
	for i := range p.Topics {
		if s.completedInTopic(p.Slug, &p.Topics[i]) != len(p.Topics[i].Subtopics) {
			return false
		}
	}
	return true
}

// CompletedCount counts completed lessons across the roadmap.
func (s Snapshot) CompletedCount() int {
	if s.Roadmap == nil {
		return 0
	}
	n := 0
	for i := range s.Roadmap.Phases {
		n += s.completedInPhase(&s.Roadmap.Phases[i])
	}
	return n
}

// TotalLessonCount is the number of lessons the roadmap defines.
func (s Snapshot) TotalLessonCount() int {
	if s.Roadmap == nil {
		return 0
	}
	return s.Roadmap.TotalLessons()
}

// CompletionPercentage is the rounded share of completed lessons.
func (s Snapshot) CompletionPercentage() int {
	return percent(s.CompletedCount(), s.TotalLessonCount())
}

// PhaseCompletionPercentage is the rounded share of completed lessons in a phase.
func (s Snapshot) PhaseCompletionPercentage(phaseSlug string) int {
	if s.Roadmap == nil {
		return 0
	}
	p, ok := s.Roadmap.Phase(phaseSlug)
	if !ok {
		return 0
	}
	return percent(s.completedInPhase(p), p.TotalLessons())
}

// TopicCompletionPercentage is the rounded share of completed lessons in a topic.
func (s Snapshot) TopicCompletionPercentage(phaseSlug, topicSlug string) int {
	if s.Roadmap == nil {
		return 0
	}
	t, ok := s.Roadmap.Topic(phaseSlug, topicSlug)
	if !ok {
		return 0
	}
	return percent(s.completedInTopic(phaseSlug, t), len(t.Subtopics))
}

// ResumeLearning returns the last lesson completed, if any.
func (s Snapshot) ResumeLearning() (Position, bool) {
	if s.Progress == nil || s.Progress.LastAccessed == nil {
		return Position{}, false
	}
	return *s.Progress.LastAccessed, true
}

// CanGenerateCertificate reports whether the rounded completion reaches
// 100. A roadmap without lessons never qualifies.
func (s Snapshot) CanGenerateCertificate() bool {
	return s.CompletionPercentage() == 100
}

// TotalTimeSpentMinutes sums the estimated minutes of completed lessons.
func (s Snapshot) TotalTimeSpentMinutes() int {
	if s.Progress == nil {
		return 0
	}
	return s.Progress.TotalTimeSpent
}

// TotalTimeSpentHours is TotalTimeSpentMinutes rounded to one decimal.
func (s Snapshot) TotalTimeSpentHours() float64 {
	return math.Round(float64(s.TotalTimeSpentMinutes())/6) / 10
}

// Started reports whether any lesson or quiz has been touched.
func (s Snapshot) Started() bool {
	return s.Progress != nil && s.Progress.StartedAt != nil
}

// QuizScore returns the best quiz score recorded for a lesson.
func (s Snapshot) QuizScore(phaseSlug, topicSlug, subtopicSlug string) (int, bool) {
	sp := s.Progress.entry(phaseSlug, topicSlug, subtopicSlug)
	if sp == nil || sp.QuizScore == nil {
		return 0, false
	}
	return *sp.QuizScore, true
}

// IncompleteTopics lists the topics, in catalog order, that still have
// lessons left.
func (s Snapshot) IncompleteTopics() []TopicRef {
	if s.Roadmap == nil {
		return nil
	}
	var out []TopicRef
	for i := range s.Roadmap.Phases {
		p := &s.Roadmap.Phases[i]
		for j := range p.Topics {
			if s.completedInTopic(p.Slug, &p.Topics[j]) != len(p.Topics[j].Subtopics) {
				out = append(out, TopicRef{PhaseSlug: p.Slug, TopicSlug: p.Topics[j].Slug})
			}
		}
	}
	return out
}

// TopicRef addresses one topic of a roadmap.
type TopicRef struct {
	PhaseSlug string
	TopicSlug string
}

func (s Snapshot) completedInPhase(p *catalog.Phase) int {
	n := 0
	for i := range p.Topics {
		n += s.completedInTopic(p.Slug, &p.Topics[i])
	}
	return n
}

func (s Snapshot) completedInTopic(phaseSlug string, t *catalog.Topic) int {
	n := 0
	for _, st := range t.Subtopics {
		if s.SubtopicComplete(phaseSlug, t.Slug, st.Slug) {
			n++
		}
	}
	return n
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
