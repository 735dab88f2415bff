package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrAttemptComplete is returned for any change to a finished attempt.
	ErrAttemptComplete = errors.New("quiz attempt is complete")
	// ErrNotLastQuestion is returned by Finish away from the last question.
	ErrNotLastQuestion = errors.New("quiz can only be finished from the last question")
	// ErrQuestionIndex is returned for an index outside the quiz.
	ErrQuestionIndex = errors.New("question index out of range")
)

// Attempt is one run through a quiz. It moves through the questions with
// Next and Previous until Finish scores it; after that only Reset is
// allowed. An Attempt is not safe for concurrent use.
type Attempt struct {
	quiz     *Quiz
	index    int
	answers  map[int]Answer
	complete bool
	result   Result
}

// NewAttempt starts an attempt at the first question.
func NewAttempt(q *Quiz) (*Attempt, error) {
	if q == nil || len(q.Questions) == 0 {
		return nil, fmt.Errorf("quiz has no questions")
	}
	return &Attempt{quiz: q, answers: make(map[int]Answer)}, nil
}

// Index is the current question.
func (a *Attempt) Index() int { return a.index }

// Total is the number of questions.
func (a *Attempt) Total() int { return len(a.quiz.Questions) }

// Question returns the current question.
func (a *Attempt) Question() Question { return a.quiz.Questions[a.index] }

// Complete reports whether the attempt has been finished.
func (a *Attempt) Complete() bool { return a.complete }

// Answer returns the answer recorded for question i.
func (a *Attempt) Answer(i int) (Answer, bool) {
	ans, ok := a.answers[i]
	return ans, ok
}

// Submit records the answer for question index, replacing any earlier one.
func (a *Attempt) Submit(index int, ans Answer) error {
	if a.complete {
		return ErrAttemptComplete
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return fmt.Errorf("%w: %d of %d", ErrQuestionIndex, index, len(a.quiz.Questions))
	}
	a.answers[index] = ans
	return nil
}

// Next moves to the following question. It stays put on the last one.
func (a *Attempt) Next() error {
	if a.complete {
		return ErrAttemptComplete
	}
	if a.index < len(a.quiz.Questions)-1 {
		a.index++
	}
	return nil
}

// Previous moves to the preceding question. It stays put on the first one.
func (a *Attempt) Previous() error {
	if a.complete {
		return ErrAttemptComplete
	}
	if a.index > 0 {
		a.index--
	}
	return nil
}

// Finish scores every question and completes the attempt.
func (a *Attempt) Finish() (Result, error) {
	if a.complete {
		return Result{}, ErrAttemptComplete
	}
	if a.index != len(a.quiz.Questions)-1 {
		return Result{}, ErrNotLastQuestion
	}
	a.result = a.quiz.Score(a.answers)
	a.complete = true
	return a.result, nil
}

// Result returns the score of a finished attempt.
func (a *Attempt) Result() (Result, bool) {
	return a.result, a.complete
}

// Reset discards all answers and starts over at the first question.
func (a *Attempt) Reset() {
	a.index = 0
	a.answers = make(map[int]Answer)
	a.complete = false
	a.result = Result{}
}
