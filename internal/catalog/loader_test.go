package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/p-n-ai/pai-lms/internal/catalog"
)

func TestDefault_LoadsEmbeddedRoadmaps(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	ids := c.IDs()
	if len(ids) != 2 || ids[0] != "devops" || ids[1] != "fullstack" {
		t.Fatalf("IDs() = %v, want [devops fullstack]", ids)
	}

	devops, _ := c.Roadmap("devops")
	if got := devops.TotalLessons(); got != 23 {
		t.Errorf("devops TotalLessons() = %d, want 23", got)
	}
	if got := devops.TopicCount(); got != 9 {
		t.Errorf("devops TopicCount() = %d, want 9", got)
	}

	topic, ok := devops.Topic("build-and-ship", "cicd-pipelines")
	if !ok {
		t.Fatal("Topic(build-and-ship, cicd-pipelines) not found; slug should be derived from the name")
	}
	if topic.Priority != catalog.PriorityEssential {
		t.Errorf("Priority = %q, want essential", topic.Priority)
	}

	sub, ok := devops.Subtopic("operate", "incident-response", "postmortems")
	if !ok {
		t.Fatal("bare-string subtopic not loaded")
	}
	if sub.Title != "Postmortems" || sub.EstimatedMinutes != 0 {
		t.Errorf("Subtopic = %+v, want title Postmortems and no minutes", sub)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "tracks")
	os.MkdirAll(nested, 0o755)

	os.WriteFile(filepath.Join(nested, "sre.yaml"), []byte(`
id: sre
title: SRE
phases:
  - title: Reliability
    topics:
      - name: SLOs
        subtopics: [Error Budgets, Burn Rates]
`), 0o644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not yaml"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("owner: platform-team\n"), 0o644)

	c, err := catalog.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	r, ok := c.Roadmap("sre")
	if !ok {
		t.Fatal("Roadmap(sre) not found")
	}
	if len(c.IDs()) != 1 {
		t.Errorf("IDs() = %v, want only sre (files without id are skipped)", c.IDs())
	}
	if r.Phases[0].Slug != "reliability" {
		t.Errorf("phase slug = %q, want reliability", r.Phases[0].Slug)
	}
	topic := r.Phases[0].Topics[0]
	if topic.Priority != catalog.PriorityRecommended {
		t.Errorf("default priority = %q, want recommended", topic.Priority)
	}
	if topic.Subtopics[1].Slug != "burn-rates" {
		t.Errorf("subtopic slug = %q, want burn-rates", topic.Subtopics[1].Slug)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "colliding derived topic slugs",
			yaml: `
id: x
phases:
  - slug: p
    topics:
      - name: "CI/CD"
        subtopics: [a]
      - name: "CICD"
        subtopics: [b]
`,
			wantErr: `duplicate topic slug "cicd"`,
		},
		{
			name: "duplicate phase slug",
			yaml: `
id: x
phases:
  - slug: p
  - slug: p
`,
			wantErr: `duplicate phase slug "p"`,
		},
		{
			name: "explicit phase slug with a slash",
			yaml: `
id: x
phases:
  - slug: a/b
`,
			wantErr: `phase slug "a/b" under x must be lowercase`,
		},
		{
			name: "explicit subtopic slug with a slash",
			yaml: `
id: x
phases:
  - slug: p
    topics:
      - name: t
        subtopics:
          - { slug: "s/t", title: S }
`,
			wantErr: `subtopic slug "s/t" under p/t`,
		},
		{
			name: "uppercase topic slug",
			yaml: `
id: x
phases:
  - slug: p
    topics:
      - slug: Linux
        name: Linux
`,
			wantErr: `topic slug "Linux"`,
		},
		{
			name: "roadmap id with a slash",
			yaml: `
id: dev/ops
`,
			wantErr: `roadmap id "dev/ops"`,
		},
		{
			name: "unknown priority",
			yaml: `
id: x
phases:
  - slug: p
    topics:
      - name: t
        priority: optional
`,
			wantErr: `unknown priority "optional"`,
		},
		{
			name: "empty slug",
			yaml: `
id: x
phases:
  - title: "!!!"
`,
			wantErr: "empty slug",
		},
		{
			name: "negative minutes",
			yaml: `
id: x
phases:
  - slug: p
    topics:
      - name: t
        subtopics:
          - { title: s, minutes: -5 }
`,
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"x.yaml": {Data: []byte(tt.yaml)}}
			_, err := catalog.Load(fsys)
			if err == nil {
				t.Fatal("Load() should return error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DuplicateRoadmapID(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("id: same\n")},
		"b.yaml": {Data: []byte("id: same\n")},
	}
	if _, err := catalog.Load(fsys); err == nil {
		t.Fatal("Load() should reject duplicate roadmap ids")
	}
}

func TestLoad_SkipsInvalidYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yaml": {Data: []byte("id: [unterminated\n")},
		"ok.yml":      {Data: []byte("id: ok\n")},
	}
	c, err := catalog.Load(fsys)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := c.Roadmap("ok"); !ok {
		t.Error("Roadmap(ok) should be loaded alongside a broken file")
	}
}

func TestNew(t *testing.T) {
	c, err := catalog.New(catalog.Roadmap{
		ID: "mini",
		Phases: []catalog.Phase{{
			Title:  "Only Phase",
			Topics: []catalog.Topic{{Name: "Only Topic", Subtopics: []catalog.Subtopic{{Title: "One"}}}},
		}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := c.Roadmap("mini"); !ok {
		t.Fatal("Roadmap(mini) not found")
	}
	r, _ := c.Roadmap("mini")
	if _, ok := r.Subtopic("only-phase", "only-topic", "one"); !ok {
		t.Error("derived slugs not applied by New()")
	}
}
