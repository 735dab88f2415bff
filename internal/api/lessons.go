package api

import (
	"errors"
	"net/http"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/quiz"
)

// lesson resolves the lesson path values, writing a 404 if unknown.
func (s *Server) lesson(w http.ResponseWriter, r *http.Request) (progress.LessonRef, *catalog.Subtopic, bool) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return progress.LessonRef{}, nil, false
	}
	ref := progress.LessonRef{
		RoadmapID:    rd.ID,
		PhaseSlug:    r.PathValue("phase"),
		TopicSlug:    r.PathValue("topic"),
		SubtopicSlug: r.PathValue("subtopic"),
	}
	st, ok := rd.Subtopic(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown lesson "+ref.String())
		return ref, nil, false
	}
	return ref, st, true
}

type completeRequest struct {
	EstimatedMinutes *int `json:"estimatedMinutes"`
}

type completeResponse struct {
	Changed    bool `json:"changed"`
	Percentage int  `json:"percentage"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	ref, st, ok := s.lesson(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	minutes := st.EstimatedMinutes
	if req.EstimatedMinutes != nil {
		minutes = *req.EstimatedMinutes
	}

	changed, err := s.store.MarkComplete(r.Context(), ref, minutes)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		Changed:    changed,
		Percentage: s.store.Snapshot(ref.RoadmapID).CompletionPercentage(),
	})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	ref, _, ok := s.lesson(w, r)
	if !ok {
		return
	}
	q, ok := s.findQuiz(ref)
	if !ok {
		writeError(w, http.StatusNotFound, "no quiz for lesson "+ref.String())
		return
	}
	// Answer keys and explanations are not serialized.
	writeJSON(w, http.StatusOK, q)
}

// quizRequest carries either a precomputed score or the answers to grade.
// A null answer leaves that question unanswered.
type quizRequest struct {
	Score   *int           `json:"score"`
	Answers []*quiz.Answer `json:"answers"`
}

type quizResponse struct {
	Score     int          `json:"score"`
	Passed    bool         `json:"passed"`
	NewBest   bool         `json:"newBest"`
	Completed bool         `json:"completed"`
	Result    *quiz.Result `json:"result,omitempty"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	ref, st, ok := s.lesson(w, r)
	if !ok {
		return
	}
	var req quizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, hasQuiz := s.findQuiz(ref)
	var resp quizResponse
	switch {
	case req.Answers != nil:
		if !hasQuiz {
			writeError(w, http.StatusNotFound, "no quiz for lesson "+ref.String())
			return
		}
		result, err := grade(q, req.Answers)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Score, resp.Passed, resp.Result = result.Score, result.Passed, &result
	case req.Score != nil:
		passing := quiz.DefaultPassingScore
		if hasQuiz {
			passing = q.PassingScore
		}
		resp.Score, resp.Passed = *req.Score, *req.Score >= passing
	default:
		writeError(w, http.StatusBadRequest, "either score or answers is required")
		return
	}

	newBest, err := s.store.RecordQuizScore(r.Context(), ref, resp.Score)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp.NewBest = newBest

	if resp.Passed && s.completeOnPass {
		if _, err := s.store.MarkComplete(r.Context(), ref, st.EstimatedMinutes); err != nil {
			writeErr(w, err)
			return
		}
		resp.Completed = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) findQuiz(ref progress.LessonRef) (*quiz.Quiz, bool) {
	if s.quizzes == nil {
		return nil, false
	}
	return s.quizzes.Get(ref.RoadmapID, ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug)
}

// grade runs the answers through a fresh attempt.
func grade(q *quiz.Quiz, answers []*quiz.Answer) (quiz.Result, error) {
	attempt, err := quiz.NewAttempt(q)
	if err != nil {
		return quiz.Result{}, err
	}
	if len(answers) > attempt.Total() {
		return quiz.Result{}, errors.New("more answers than questions")
	}
	for i, a := range answers {
		if a == nil {
			continue
		}
		if err := attempt.Submit(i, *a); err != nil {
			return quiz.Result{}, err
		}
	}
	for attempt.Index() < attempt.Total()-1 {
		if err := attempt.Next(); err != nil {
			return quiz.Result{}, err
		}
	}
	return attempt.Finish()
}
