// Package quiz holds lesson quizzes: their content format, the bank that
// indexes them by lesson, and the state machine that scores one attempt.
package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// DefaultPassingScore applies when a quiz does not set one.
const DefaultPassingScore = 70

// QuestionType selects how an answer is compared with the key.
type QuestionType string

const (
	Single    QuestionType = "single"
	Multiple  QuestionType = "multiple"
	TrueFalse QuestionType = "true-false"
)

// Quiz is an ordered list of questions with a pass mark.
type Quiz struct {
	PassingScore int        `json:"passingScore"`
	Questions    []Question `json:"questions"`
}

// Question is one quiz item. Answer is the key.
type Question struct {
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"question"`
	Options     []string     `json:"options,omitempty"`
	Answer      Answer       `json:"-"`
	Explanation string       `json:"-"`
}

// Answer is a submission or an answer key. Kind names the question type
// the answer fits; only the matching field is meaningful. The zero Answer
// fits no question.
type Answer struct {
	Kind    QuestionType
	Choice  string   // single
	Choices []string // multiple
	Value   bool     // true-false
}

// ChoiceAnswer answers a single-choice question.
func ChoiceAnswer(choice string) Answer { return Answer{Kind: Single, Choice: choice} }

// ChoicesAnswer answers a multiple-choice question.
func ChoicesAnswer(choices ...string) Answer { return Answer{Kind: Multiple, Choices: choices} }

// BoolAnswer answers a true-false question.
func BoolAnswer(v bool) Answer { return Answer{Kind: TrueFalse, Value: v} }

// UnmarshalJSON accepts a string, a list of strings or a boolean.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case string:
		*a = ChoiceAnswer(v)
	case bool:
		*a = BoolAnswer(v)
	case []any:
		choices := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("answer list must contain strings, got %T", item)
			}
			choices = append(choices, s)
		}
		*a = ChoicesAnswer(choices...)
	default:
		return fmt.Errorf("answer must be a string, a list or a boolean, got %T", v)
	}
	return nil
}

// Correct reports whether a matches the question's key. An answer of the
// wrong kind is incorrect. Multiple-choice answers must contain exactly the
// keyed options, in any order.
func (q Question) Correct(a Answer) bool {
	if a.Kind != q.Type {
		return false
	}
	switch q.Type {
	case Single:
		return a.Choice == q.Answer.Choice
	case TrueFalse:
		return a.Value == q.Answer.Value
	case Multiple:
		return sameSet(a.Choices, q.Answer.Choices)
	default:
		return false
	}
}

func sameSet(a, b []string) bool {
	x := slices.Compact(slices.Sorted(slices.Values(a)))
	y := slices.Compact(slices.Sorted(slices.Values(b)))
	return slices.Equal(x, y)
}

// QuestionResult is the outcome of one question.
type QuestionResult struct {
	Index       int    `json:"index"`
	Answered    bool   `json:"answered"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// Result is the outcome of a finished attempt.
type Result struct {
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Score     int              `json:"score"`
	Passed    bool             `json:"passed"`
	Questions []QuestionResult `json:"questions"`
}

// Score grades answers, keyed by question index, against the quiz.
// Unanswered questions are incorrect.
func (q *Quiz) Score(answers map[int]Answer) Result {
	res := Result{
		Total:     len(q.Questions),
		Questions: make([]QuestionResult, len(q.Questions)),
	}
	for i, question := range q.Questions {
		a, answered := answers[i]
		correct := answered && question.Correct(a)
		if correct {
			res.Correct++
		}
		res.Questions[i] = QuestionResult{
			Index:       i,
			Answered:    answered,
			Correct:     correct,
			Explanation: question.Explanation,
		}
	}
	if res.Total > 0 {
		res.Score = int(math.Round(100 * float64(res.Correct) / float64(res.Total)))
	}
	res.Passed = res.Score >= q.PassingScore
	return res
}
