package quiz_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/p-n-ai/pai-lms/internal/quiz"
)

const lessonMarkdown = `---
title: DNS
quiz:
  questions:
    - type: single
      question: Which record maps a name to an IPv4 address?
      options: [A, AAAA, MX]
      answer: A
      explanation: AAAA is for IPv6.
    - type: multiple
      question: Which records can hold a hostname?
      options: [A, CNAME, MX, TXT]
      answer: [CNAME, MX]
    - type: true-false
      question: TTL is measured in seconds.
      answer: true
---

# DNS
`

func TestParseFrontmatter(t *testing.T) {
	q, err := quiz.ParseFrontmatter([]byte(lessonMarkdown))
	if err != nil {
		t.Fatalf("ParseFrontmatter() error = %v", err)
	}
	if q.PassingScore != quiz.DefaultPassingScore {
		t.Errorf("PassingScore = %d, want default %d", q.PassingScore, quiz.DefaultPassingScore)
	}
	if len(q.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(q.Questions))
	}
	if got := q.Questions[0]; got.Type != quiz.Single || got.Answer.Choice != "A" || got.Explanation != "AAAA is for IPv6." {
		t.Errorf("question 1 = %+v", got)
	}
	if got := q.Questions[1].Answer.Choices; len(got) != 2 || got[0] != "CNAME" {
		t.Errorf("question 2 answer = %v", got)
	}
	if !q.Questions[2].Answer.Value {
		t.Error("question 3 answer should be true")
	}
}

func TestParseFrontmatter_CRLF(t *testing.T) {
	doc := strings.ReplaceAll(lessonMarkdown, "\n", "\r\n")
	if _, err := quiz.ParseFrontmatter([]byte(doc)); err != nil {
		t.Fatalf("ParseFrontmatter() error = %v", err)
	}
}

func TestParseFrontmatter_NoQuiz(t *testing.T) {
	docs := []string{
		"# Just a lesson\n",
		"---\ntitle: Lesson\n---\nbody\n",
		"---\n---\nbody\n",
	}
	for _, doc := range docs {
		if _, err := quiz.ParseFrontmatter([]byte(doc)); !errors.Is(err, quiz.ErrNoQuiz) {
			t.Errorf("ParseFrontmatter(%q) error = %v, want ErrNoQuiz", doc, err)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no questions", "quiz:\n  questions: []\n"},
		{"bad passing score", "quiz:\n  passingScore: 120\n  questions:\n    - {type: true-false, question: q, answer: true}\n"},
		{"unknown type", "quiz:\n  questions:\n    - {type: essay, question: q, answer: x}\n"},
		{"missing answer", "quiz:\n  questions:\n    - {type: true-false, question: q}\n"},
		{"single with list", "quiz:\n  questions:\n    - {type: single, question: q, options: [a, b], answer: [a]}\n"},
		{"single not an option", "quiz:\n  questions:\n    - {type: single, question: q, options: [a, b], answer: c}\n"},
		{"multiple with scalar", "quiz:\n  questions:\n    - {type: multiple, question: q, options: [a, b], answer: a}\n"},
		{"true-false with text", "quiz:\n  questions:\n    - {type: true-false, question: q, answer: maybe}\n"},
		{"missing prompt", "quiz:\n  questions:\n    - {type: true-false, answer: true}\n"},
		{"malformed yaml", "quiz: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := quiz.Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestParse_ExplicitZeroPassingScore(t *testing.T) {
	q, err := quiz.Parse([]byte("quiz:\n  passingScore: 0\n  questions:\n    - {type: true-false, question: q, answer: true}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if q.PassingScore != 0 {
		t.Errorf("PassingScore = %d, want 0", q.PassingScore)
	}
}

func TestDefaultBank(t *testing.T) {
	b, err := quiz.DefaultBank()
	if err != nil {
		t.Fatalf("DefaultBank() error = %v", err)
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
	q, ok := b.Get("devops", "foundations", "linux-shell", "permissions-and-users")
	if !ok {
		t.Fatal("bundled markdown quiz not found")
	}
	if len(q.Questions) != 3 {
		t.Errorf("questions = %d, want 3", len(q.Questions))
	}
	if _, ok := b.Get("devops", "foundations", "git", "commits-and-branches"); !ok {
		t.Error("bundled YAML quiz not found")
	}
}

func TestLoadBank_SkipsInvalidAndShallowFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"web/basics/html/tags.md":        {Data: []byte(lessonMarkdown)},
		"web/basics/html/forms.md":       {Data: []byte("# no quiz\n")},
		"web/basics/html/broken.yaml":    {Data: []byte("quiz:\n  questions: []\n")},
		"web/README.md":                  {Data: []byte(lessonMarkdown)},
		"web/basics/html/notes/extra.md": {Data: []byte(lessonMarkdown)},
		"web/basics/html/image.png":      {Data: []byte{0x89}},
	}
	b, err := quiz.LoadBank(fsys)
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	if _, ok := b.Get("web", "basics", "html", "tags"); !ok {
		t.Error("tags quiz not loaded")
	}
}

func TestLoadBank_DuplicateLesson(t *testing.T) {
	fsys := fstest.MapFS{
		"web/basics/html/tags.md":   {Data: []byte(lessonMarkdown)},
		"web/basics/html/tags.yaml": {Data: []byte("quiz:\n  questions:\n    - {type: true-false, question: q, answer: true}\n")},
	}
	if _, err := quiz.LoadBank(fsys); err == nil {
		t.Error("LoadBank() should reject two quizzes for one lesson")
	}
}
