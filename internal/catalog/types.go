package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Priority ranks how central a topic is to its roadmap.
type Priority string

const (
	PriorityEssential   Priority = "essential"
	PriorityImportant   Priority = "important"
	PriorityRecommended Priority = "recommended"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityEssential, PriorityImportant, PriorityRecommended:
		return true
	}
	return false
}

// Roadmap is one independent learning track.
type Roadmap struct {
	ID     string  `yaml:"id" json:"id"`
	Slug   string  `yaml:"slug" json:"slug"`
	Title  string  `yaml:"title" json:"title"`
	Phases []Phase `yaml:"phases" json:"phases"`
}

// Phase groups an ordered list of topics.
type Phase struct {
	Slug   string  `yaml:"slug" json:"slug"`
	Title  string  `yaml:"title" json:"title"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Topic is the unit of work the scheduler counts.
type Topic struct {
	Slug      string     `yaml:"slug" json:"slug"`
	Name      string     `yaml:"name" json:"name"`
	Priority  Priority   `yaml:"priority" json:"priority"`
	Subtopics []Subtopic `yaml:"subtopics" json:"subtopics"`
}

// Subtopic is a single completable lesson.
type Subtopic struct {
	Slug             string `yaml:"slug" json:"slug"`
	Title            string `yaml:"title" json:"title"`
	EstimatedMinutes int    `yaml:"minutes" json:"estimatedMinutes,omitempty"`
}

// UnmarshalYAML accepts either a bare lesson name or a mapping.
func (s *Subtopic) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		s.Title = value.Value
		return nil
	case yaml.MappingNode:
		type plain Subtopic
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*s = Subtopic(p)
		return nil
	default:
		return fmt.Errorf("line %d: subtopic must be a string or a mapping", value.Line)
	}
}

// Phase returns the phase with the given slug.
func (r *Roadmap) Phase(slug string) (*Phase, bool) {
	for i := range r.Phases {
		if r.Phases[i].Slug == slug {
			return &r.Phases[i], true
		}
	}
	return nil, false
}

// Topic returns the topic addressed by phase and topic slug.
func (r *Roadmap) Topic(phaseSlug, topicSlug string) (*Topic, bool) {
	p, ok := r.Phase(phaseSlug)
	if !ok {
		return nil, false
	}
	return p.Topic(topicSlug)
}

// Subtopic returns the lesson addressed by its full path.
func (r *Roadmap) Subtopic(phaseSlug, topicSlug, subtopicSlug string) (*Subtopic, bool) {
	t, ok := r.Topic(phaseSlug, topicSlug)
	if !ok {
		return nil, false
	}
	return t.Subtopic(subtopicSlug)
}

// TotalLessons is the number of subtopics across the roadmap.
func (r *Roadmap) TotalLessons() int {
	n := 0
	for i := range r.Phases {
		n += r.Phases[i].TotalLessons()
	}
	return n
}

// TopicCount is the number of topics across the roadmap.
func (r *Roadmap) TopicCount() int {
	n := 0
	for i := range r.Phases {
		n += len(r.Phases[i].Topics)
	}
	return n
}

// Topic returns the topic with the given slug.
func (p *Phase) Topic(slug string) (*Topic, bool) {
	for i := range p.Topics {
		if p.Topics[i].Slug == slug {
			return &p.Topics[i], true
		}
	}
	return nil, false
}

// TotalLessons is the number of subtopics in the phase.
func (p *Phase) TotalLessons() int {
	n := 0
	for i := range p.Topics {
		n += len(p.Topics[i].Subtopics)
	}
	return n
}

// Subtopic returns the lesson with the given slug.
func (t *Topic) Subtopic(slug string) (*Subtopic, bool) {
	for i := range t.Subtopics {
		if t.Subtopics[i].Slug == slug {
			return &t.Subtopics[i], true
		}
	}
	return nil, false
}
