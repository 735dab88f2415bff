package progress

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// legacyDocument is the version-1 layout: a single roadmap at the root.
type legacyDocument struct {
	StartedAt      *time.Time             `json:"startedAt"`
	LastAccessed   *string                `json:"lastAccessed"`
	TotalTimeSpent int                    `json:"totalTimeSpent"`
	Schedule       *StudySchedule         `json:"schedule"`
	Phases         map[string]PhaseLedger `json:"phases"`
}

// decodeDocument validates data against the schema of its declared
// version and returns it migrated to SchemaVersion.
func decodeDocument(data []byte, legacyRoadmapID string) (*MultiRoadmapProgress, error) {
	var head struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: not a progress document: %v", ErrInvalid, err)
	}
	if head.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrInvalid)
	}
	if err := validateSchema(*head.Version, data); err != nil {
		return nil, err
	}

	var doc *MultiRoadmapProgress
	switch *head.Version {
	case 1:
		migrated, err := migrateV1(data, legacyRoadmapID)
		if err != nil {
			return nil, err
		}
		doc = migrated
	case SchemaVersion:
		doc = newDocument()
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownVersion, *head.Version)
	}

	if err := doc.normalize(); err != nil {
		return nil, err
	}
	return doc, nil
}

func migrateV1(data []byte, roadmapID string) (*MultiRoadmapProgress, error) {
	if roadmapID == "" {
		return nil, fmt.Errorf("%w: no roadmap configured for version 1 documents", ErrInvalid)
	}

	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	rp := &RoadmapProgress{
		StartedAt:      legacy.StartedAt,
		TotalTimeSpent: legacy.TotalTimeSpent,
		Schedule:       legacy.Schedule,
		Phases:         legacy.Phases,
	}
	if legacy.LastAccessed != nil {
		parts := strings.Split(*legacy.LastAccessed, "/")
		if len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "" {
			rp.LastAccessed = &Position{PhaseSlug: parts[0], TopicSlug: parts[1], SubtopicSlug: parts[2]}
		}
	}

	doc := newDocument()
	doc.Roadmaps[roadmapID] = rp
	return doc, nil
}

// normalize fills nil maps and re-checks what the schema cannot express.
func (d *MultiRoadmapProgress) normalize() error {
	d.Version = SchemaVersion
	if d.Roadmaps == nil {
		d.Roadmaps = make(map[string]*RoadmapProgress)
	}
	for id, rp := range d.Roadmaps {
		if rp == nil {
			return fmt.Errorf("%w: roadmap %q is null", ErrInvalid, id)
		}
		if rp.Phases == nil {
			rp.Phases = make(map[string]PhaseLedger)
		}
		if rp.Schedule != nil {
			if err := rp.Schedule.Validate(); err != nil {
				return fmt.Errorf("roadmap %q: %w", id, err)
			}
		}
	}
	return nil
}
