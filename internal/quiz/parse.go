package quiz

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrNoQuiz is returned by ParseFrontmatter for documents without a quiz.
var ErrNoQuiz = errors.New("document has no quiz")

type rawQuiz struct {
	PassingScore *int          `yaml:"passingScore"`
	Questions    []rawQuestion `yaml:"questions"`
}

type rawQuestion struct {
	Type        QuestionType `yaml:"type"`
	Question    string       `yaml:"question"`
	Options     []string     `yaml:"options"`
	Answer      yaml.Node    `yaml:"answer"`
	Explanation string       `yaml:"explanation"`
}

// Parse reads a YAML document whose top-level "quiz" key holds the quiz.
func Parse(data []byte) (*Quiz, error) {
	var doc struct {
		Quiz *rawQuiz `yaml:"quiz"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse quiz: %w", err)
	}
	if doc.Quiz == nil {
		return nil, ErrNoQuiz
	}
	return doc.Quiz.build()
}

// ParseFrontmatter reads the quiz from a Markdown document's YAML
// frontmatter, delimited by "---" lines at the top of the file.
func ParseFrontmatter(markdown []byte) (*Quiz, error) {
	front, ok := frontmatter(markdown)
	if !ok {
		return nil, ErrNoQuiz
	}
	return Parse(front)
}

func frontmatter(doc []byte) ([]byte, bool) {
	doc = bytes.TrimPrefix(doc, []byte("\ufeff"))
	doc = bytes.ReplaceAll(doc, []byte("\r\n"), []byte("\n"))
	rest, ok := bytes.CutPrefix(doc, []byte("---\n"))
	if !ok {
		return nil, false
	}
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		return nil, true
	}
	if end := bytes.Index(rest, []byte("\n---\n")); end >= 0 {
		return rest[:end+1], true
	}
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-3], true
	}
	return nil, false
}

func (r *rawQuiz) build() (*Quiz, error) {
	q := &Quiz{PassingScore: DefaultPassingScore}
	if r.PassingScore != nil {
		q.PassingScore = *r.PassingScore
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return nil, fmt.Errorf("passingScore must be between 0 and 100, got %d", q.PassingScore)
	}
	if len(r.Questions) == 0 {
		return nil, fmt.Errorf("quiz has no questions")
	}

	for i, rq := range r.Questions {
		question, err := rq.build()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		q.Questions = append(q.Questions, question)
	}
	return q, nil
}

func (r rawQuestion) build() (Question, error) {
	q := Question{
		Type:        r.Type,
		Prompt:      r.Question,
		Options:     r.Options,
		Explanation: r.Explanation,
	}
	if q.Prompt == "" {
		return q, fmt.Errorf("question text is required")
	}
	if r.Answer.Kind == 0 {
		return q, fmt.Errorf("answer is required")
	}

	switch r.Type {
	case Single:
		if r.Answer.Kind != yaml.ScalarNode {
			return q, fmt.Errorf("line %d: single-choice answer must be one option", r.Answer.Line)
		}
		q.Answer = ChoiceAnswer(r.Answer.Value)
		if err := requireOptions(q.Options, q.Answer.Choice); err != nil {
			return q, err
		}
	case Multiple:
		var choices []string
		if err := r.Answer.Decode(&choices); err != nil {
			return q, fmt.Errorf("line %d: multiple-choice answer must be a list of options", r.Answer.Line)
		}
		q.Answer = ChoicesAnswer(choices...)
		if len(q.Answer.Choices) == 0 {
			return q, fmt.Errorf("multiple-choice answer must name at least one option")
		}
		if err := requireOptions(q.Options, q.Answer.Choices...); err != nil {
			return q, err
		}
	case TrueFalse:
		var v bool
		if err := r.Answer.Decode(&v); err != nil {
			return q, fmt.Errorf("line %d: true-false answer must be a boolean", r.Answer.Line)
		}
		q.Answer = BoolAnswer(v)
	default:
		return q, fmt.Errorf("unknown question type %q", r.Type)
	}
	return q, nil
}

func requireOptions(options []string, answers ...string) error {
	if len(options) == 0 {
		return fmt.Errorf("choice question needs options")
	}
	for _, a := range answers {
		if !slices.Contains(options, a) {
			return fmt.Errorf("answer %q is not one of the options", a)
		}
	}
	return nil
}
