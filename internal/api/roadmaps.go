package api

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/progress"
)

type roadmapListItem struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
	Percentage       int    `json:"percentage"`
}

type roadmapSummary struct {
	ID                     string                  `json:"id"`
	Title                  string                  `json:"title"`
	TotalLessons           int                     `json:"totalLessons"`
	CompletedLessons       int                     `json:"completedLessons"`
	Percentage             int                     `json:"percentage"`
	TimeSpentMinutes       int                     `json:"timeSpentMinutes"`
	TimeSpentHours         float64                 `json:"timeSpentHours"`
	StartedAt              *time.Time              `json:"startedAt"`
	Resume                 *progress.Position      `json:"resume"`
	CanGenerateCertificate bool                    `json:"canGenerateCertificate"`
	Schedule               *progress.StudySchedule `json:"schedule"`
	ProjectedCompletion    *civil.Date             `json:"projectedCompletion"`
	Phases                 []phaseSummary          `json:"phases"`
}

type phaseSummary struct {
	Slug                string         `json:"slug"`
	Title               string         `json:"title"`
	Complete            bool           `json:"complete"`
	TotalLessons        int            `json:"totalLessons"`
	Percentage          int            `json:"percentage"`
	ProjectedCompletion *civil.Date    `json:"projectedCompletion"`
	Topics              []topicSummary `json:"topics"`
}

type topicSummary struct {
	Slug                string          `json:"slug"`
	Name                string          `json:"name"`
	Priority            string          `json:"priority"`
	Complete            bool            `json:"complete"`
	CompletedLessons    int             `json:"completedLessons"`
	TotalLessons        int             `json:"totalLessons"`
	Percentage          int             `json:"percentage"`
	ProjectedCompletion *civil.Date     `json:"projectedCompletion"`
	Lessons             []lessonSummary `json:"lessons"`
}

type lessonSummary struct {
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Complete         bool   `json:"complete"`
	QuizScore        *int   `json:"quizScore"`
	HasQuiz          bool   `json:"hasQuiz"`
}

func (s *Server) handleListRoadmaps(w http.ResponseWriter, r *http.Request) {
	roadmaps := s.catalog.Roadmaps()
	items := make([]roadmapListItem, 0, len(roadmaps))
	for _, rd := range roadmaps {
		snap := s.store.Snapshot(rd.ID)
		items = append(items, roadmapListItem{
			ID:               rd.ID,
			Slug:             rd.Slug,
			Title:            rd.Title,
			TotalLessons:     snap.TotalLessonCount(),
			CompletedLessons: snap.CompletedCount(),
			Percentage:       snap.CompletionPercentage(),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetRoadmap(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	snap := s.store.Snapshot(rd.ID)

	out := roadmapSummary{
		ID:                     rd.ID,
		Title:                  rd.Title,
		TotalLessons:           snap.TotalLessonCount(),
		CompletedLessons:       snap.CompletedCount(),
		Percentage:             snap.CompletionPercentage(),
		TimeSpentMinutes:       snap.TotalTimeSpentMinutes(),
		TimeSpentHours:         snap.TotalTimeSpentHours(),
		CanGenerateCertificate: snap.CanGenerateCertificate(),
		ProjectedCompletion:    optionalDate(s.scheduler.ProjectedRoadmapCompletion(rd.ID)),
		Phases:                 make([]phaseSummary, 0, len(rd.Phases)),
	}
	if snap.Progress != nil {
		out.StartedAt = snap.Progress.StartedAt
		out.Schedule = snap.Progress.Schedule
	}
	if pos, ok := snap.ResumeLearning(); ok {
		out.Resume = &pos
	}
	for i := range rd.Phases {
		out.Phases = append(out.Phases, s.phaseSummary(snap, &rd.Phases[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPhase(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	p, ok := rd.Phase(r.PathValue("phase"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown phase "+r.PathValue("phase"))
		return
	}
	writeJSON(w, http.StatusOK, s.phaseSummary(s.store.Snapshot(rd.ID), p))
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	phaseSlug := r.PathValue("phase")
	t, ok := rd.Topic(phaseSlug, r.PathValue("topic"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown topic "+phaseSlug+"/"+r.PathValue("topic"))
		return
	}
	writeJSON(w, http.StatusOK, s.topicSummary(s.store.Snapshot(rd.ID), phaseSlug, t))
}

func (s *Server) phaseSummary(snap progress.Snapshot, p *catalog.Phase) phaseSummary {
	id := snap.Roadmap.ID
	out := phaseSummary{
		Slug:                p.Slug,
		Title:               p.Title,
		Complete:            snap.PhaseComplete(p.Slug),
		TotalLessons:        p.TotalLessons(),
		Percentage:          snap.PhaseCompletionPercentage(p.Slug),
		ProjectedCompletion: optionalDate(s.scheduler.ProjectedPhaseCompletion(id, p.Slug)),
		Topics:              make([]topicSummary, 0, len(p.Topics)),
	}
	for i := range p.Topics {
		out.Topics = append(out.Topics, s.topicSummary(snap, p.Slug, &p.Topics[i]))
	}
	return out
}

func (s *Server) topicSummary(snap progress.Snapshot, phaseSlug string, t *catalog.Topic) topicSummary {
	id := snap.Roadmap.ID
	out := topicSummary{
		Slug:                t.Slug,
		Name:                t.Name,
		Priority:            string(t.Priority),
		Complete:            snap.TopicComplete(phaseSlug, t.Slug),
		CompletedLessons:    snap.CompletedCountForTopic(phaseSlug, t.Slug),
		TotalLessons:        len(t.Subtopics),
		Percentage:          snap.TopicCompletionPercentage(phaseSlug, t.Slug),
		ProjectedCompletion: optionalDate(s.scheduler.ProjectedTopicCompletion(id, phaseSlug, t.Slug)),
		Lessons:             make([]lessonSummary, 0, len(t.Subtopics)),
	}
	for _, st := range t.Subtopics {
		lesson := lessonSummary{
			Slug:             st.Slug,
			Title:            st.Title,
			EstimatedMinutes: st.EstimatedMinutes,
			Complete:         snap.SubtopicComplete(phaseSlug, t.Slug, st.Slug),
		}
		if score, ok := snap.QuizScore(phaseSlug, t.Slug, st.Slug); ok {
			lesson.QuizScore = &score
		}
		if s.quizzes != nil {
			_, lesson.HasQuiz = s.quizzes.Get(id, phaseSlug, t.Slug, st.Slug)
		}
		out.Lessons = append(out.Lessons, lesson)
	}
	return out
}

type scheduleRequest struct {
	StartDate        civil.Date `json:"startDate"`
	StudyDaysPerWeek int        `json:"studyDaysPerWeek"`
}

func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	var req scheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sched := progress.StudySchedule{StartDate: req.StartDate, StudyDaysPerWeek: req.StudyDaysPerWeek}
	if err := s.store.SetSchedule(r.Context(), rd.ID, sched); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedule":            sched,
		"projectedCompletion": optionalDate(s.scheduler.ProjectedRoadmapCompletion(rd.ID)),
	})
}

func (s *Server) handleClearSchedule(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	if err := s.store.ClearSchedule(r.Context(), rd.ID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	if err := s.store.ResetProgress(r.Context(), rd.ID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func optionalDate(d civil.Date, ok bool) *civil.Date {
	if !ok {
		return nil
	}
	return &d
}
