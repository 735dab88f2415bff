// Package catalog holds the read-only description of every roadmap: its
// phases, topics and lessons, in order.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roadmaps/*.yaml
var embedded embed.FS

// Catalog is an immutable set of roadmaps keyed by ID.
type Catalog struct {
	roadmaps map[string]*Roadmap
	ids      []string
}

// Default loads the catalog compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "roadmaps")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads every roadmap YAML file below dir.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load walks fsys and loads every .yaml/.yml file carrying a roadmap id.
func Load(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{roadmaps: make(map[string]*Roadmap)}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		return c.loadRoadmap(fsys, p)
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	for id := range c.roadmaps {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)

	slog.Info("catalog loaded", "roadmaps", len(c.ids))
	return c, nil
}

// New builds a catalog from in-memory roadmaps, applying the same slug
// derivation and validation as the file loader.
func New(roadmaps ...Roadmap) (*Catalog, error) {
	c := &Catalog{roadmaps: make(map[string]*Roadmap)}
	for i := range roadmaps {
		r := roadmaps[i]
		if err := c.add(&r, "roadmap "+r.ID); err != nil {
			return nil, err
		}
	}
	for id := range c.roadmaps {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Roadmap returns the roadmap with the given ID.
func (c *Catalog) Roadmap(id string) (*Roadmap, bool) {
	r, ok := c.roadmaps[id]
	return r, ok
}

// Roadmaps returns all roadmaps ordered by ID.
func (c *Catalog) Roadmaps() []*Roadmap {
	out := make([]*Roadmap, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.roadmaps[id])
	}
	return out
}

// IDs returns the roadmap IDs in sorted order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

func (c *Catalog) loadRoadmap(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var r Roadmap
	if err := yaml.Unmarshal(data, &r); err != nil {
		slog.Warn("skipping invalid roadmap YAML", "path", p, "error", err)
		return nil
	}
	if r.ID == "" {
		return nil // Not a roadmap file
	}
	return c.add(&r, p)
}

func (c *Catalog) add(r *Roadmap, source string) error {
	if r.ID == "" {
		return fmt.Errorf("%s: roadmap id is required", source)
	}
	if Slugify(r.ID) != r.ID {
		return fmt.Errorf("%s: roadmap id %q must be lowercase letters, digits and single hyphens", source, r.ID)
	}
	if _, dup := c.roadmaps[r.ID]; dup {
		return fmt.Errorf("%s: duplicate roadmap id %q", source, r.ID)
	}
	if r.Slug == "" {
		r.Slug = Slugify(r.ID)
	}
	if err := normalize(r); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	c.roadmaps[r.ID] = r
	return nil
}

// normalize fills derived slugs and default priorities, and rejects
// duplicate slugs within a parent.
func normalize(r *Roadmap) error {
	phases := make(map[string]bool, len(r.Phases))
	for i := range r.Phases {
		p := &r.Phases[i]
		if p.Slug == "" {
			p.Slug = Slugify(p.Title)
		}
		if err := claim(phases, p.Slug, "phase", p.Title, r.ID); err != nil {
			return err
		}

		topics := make(map[string]bool, len(p.Topics))
		for j := range p.Topics {
			t := &p.Topics[j]
			if t.Slug == "" {
				t.Slug = Slugify(t.Name)
			}
			if err := claim(topics, t.Slug, "topic", t.Name, p.Slug); err != nil {
				return err
			}
			if t.Priority == "" {
				t.Priority = PriorityRecommended
			}
			if !t.Priority.Valid() {
				return fmt.Errorf("topic %s/%s: unknown priority %q", p.Slug, t.Slug, t.Priority)
			}

			lessons := make(map[string]bool, len(t.Subtopics))
			for k := range t.Subtopics {
				s := &t.Subtopics[k]
				if s.Slug == "" {
					s.Slug = Slugify(s.Title)
				}
				if err := claim(lessons, s.Slug, "subtopic", s.Title, p.Slug+"/"+t.Slug); err != nil {
					return err
				}
				if s.EstimatedMinutes < 0 {
					return fmt.Errorf("subtopic %s/%s/%s: minutes must not be negative", p.Slug, t.Slug, s.Slug)
				}
			}
		}
	}
	return nil
}

func claim(seen map[string]bool, slug, kind, name, parent string) error {
	if strings.TrimSpace(slug) == "" {
		return fmt.Errorf("%s %q under %s has an empty slug", kind, name, parent)
	}
	// Slugs are path segments in lesson refs, quiz paths and URLs.
	if Slugify(slug) != slug {
		return fmt.Errorf("%s slug %q under %s must be lowercase letters, digits and single hyphens", kind, slug, parent)
	}
	if seen[slug] {
		return fmt.Errorf("duplicate %s slug %q under %s", kind, slug, parent)
	}
	seen[slug] = true
	return nil
}
