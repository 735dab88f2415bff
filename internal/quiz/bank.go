package quiz

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
)

//go:embed content
var defaultContent embed.FS

// Bank indexes quizzes by lesson. Files live at
// <roadmap>/<phase>/<topic>/<subtopic>.md (quiz in the frontmatter) or
// <subtopic>.yaml.
type Bank struct {
	quizzes map[string]*Quiz
	mu      sync.RWMutex
}

// DefaultBank loads the quizzes bundled with the binary.
func DefaultBank() (*Bank, error) {
	sub, err := fs.Sub(defaultContent, "content")
	if err != nil {
		return nil, err
	}
	return LoadBank(sub)
}

// LoadBankDir loads quizzes from a directory on disk.
func LoadBankDir(dir string) (*Bank, error) {
	return LoadBank(os.DirFS(dir))
}

// LoadBank walks fsys and loads every quiz it finds. Files that fail to
// parse are skipped with a warning.
func LoadBank(fsys fs.FS) (*Bank, error) {
	b := &Bank{quizzes: make(map[string]*Quiz)}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch path.Ext(p) {
		case ".md", ".yaml", ".yml":
			return b.loadFile(fsys, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading quizzes: %w", err)
	}

	slog.Info("quiz bank loaded", "quizzes", len(b.quizzes))
	return b, nil
}

func (b *Bank) loadFile(fsys fs.FS, p string) error {
	parts := strings.Split(strings.TrimSuffix(p, path.Ext(p)), "/")
	if len(parts) != 4 {
		return nil // Not at lesson depth
	}

	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var q *Quiz
	if path.Ext(p) == ".md" {
		q, err = ParseFrontmatter(data)
	} else {
		q, err = Parse(data)
	}
	if errors.Is(err, ErrNoQuiz) {
		return nil
	}
	if err != nil {
		slog.Warn("skipping invalid quiz", "path", p, "error", err)
		return nil
	}

	key := strings.Join(parts, "/")
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.quizzes[key]; dup {
		return fmt.Errorf("%s: duplicate quiz for lesson %s", p, key)
	}
	b.quizzes[key] = q
	return nil
}

// Get returns the quiz for a lesson.
func (b *Bank) Get(roadmapID, phaseSlug, topicSlug, subtopicSlug string) (*Quiz, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quizzes[roadmapID+"/"+phaseSlug+"/"+topicSlug+"/"+subtopicSlug]
	return q, ok
}

// Len is the number of quizzes loaded.
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quizzes)
}
