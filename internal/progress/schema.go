package progress

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrInvalid marks every validation failure.
	ErrInvalid = errors.New("invalid")
	// ErrUnknownVersion is returned for documents with an unrecognised
	// schema version.
	ErrUnknownVersion = fmt.Errorf("%w: unknown schema version", ErrInvalid)
)

const schemaDefinitions = `
	"timestamp": {"type": ["string", "null"], "format": "date-time"},
	"schedule": {
		"oneOf": [
			{"type": "null"},
			{
				"type": "object",
				"required": ["startDate", "studyDaysPerWeek"],
				"properties": {
					"startDate": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
					"studyDaysPerWeek": {"type": "integer", "minimum": 1, "maximum": 7}
				}
			}
		]
	},
	"subtopic": {
		"type": "object",
		"required": ["completed"],
		"properties": {
			"completed": {"type": "boolean"},
			"completedAt": {"$ref": "#/definitions/timestamp"},
			"quizScore": {"type": ["integer", "null"], "minimum": 0, "maximum": 100},
			"quizCompletedAt": {"$ref": "#/definitions/timestamp"}
		}
	},
	"phases": {
		"type": "object",
		"additionalProperties": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"additionalProperties": {"$ref": "#/definitions/subtopic"}
			}
		}
	}`

// schemaV2 describes MultiRoadmapProgress.
const schemaV2 = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version", "roadmaps"],
	"properties": {
		"version": {"const": 2},
		"roadmaps": {
			"type": "object",
			"additionalProperties": {"$ref": "#/definitions/roadmap"}
		}
	},
	"definitions": {
		"roadmap": {
			"type": "object",
			"required": ["totalTimeSpent", "phases"],
			"properties": {
				"startedAt": {"$ref": "#/definitions/timestamp"},
				"lastAccessed": {
					"oneOf": [
						{"type": "null"},
						{
							"type": "object",
							"required": ["phase", "topic", "subtopic"],
							"properties": {
								"phase": {"type": "string", "minLength": 1},
								"topic": {"type": "string", "minLength": 1},
								"subtopic": {"type": "string", "minLength": 1},
								"at": {"type": "string", "format": "date-time"}
							}
						}
					]
				},
				"totalTimeSpent": {"type": "integer", "minimum": 0},
				"schedule": {"$ref": "#/definitions/schedule"},
				"phases": {"$ref": "#/definitions/phases"}
			}
		},` + schemaDefinitions + `
	}
}`

// schemaV1 describes the single-roadmap document written before multiple
// roadmaps were tracked. lastAccessed was a "phase/topic/subtopic" path.
const schemaV1 = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version", "phases"],
	"properties": {
		"version": {"const": 1},
		"startedAt": {"$ref": "#/definitions/timestamp"},
		"lastAccessed": {"type": ["string", "null"]},
		"totalTimeSpent": {"type": "integer", "minimum": 0},
		"schedule": {"$ref": "#/definitions/schedule"},
		"phases": {"$ref": "#/definitions/phases"}
	},
	"definitions": {` + schemaDefinitions + `
	}
}`

var compiledSchemas = sync.OnceValues(func() (map[int]*gojsonschema.Schema, error) {
	out := make(map[int]*gojsonschema.Schema, 2)
	for version, src := range map[int]string{1: schemaV1, 2: schemaV2} {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("compile schema v%d: %w", version, err)
		}
		out[version] = s
	}
	return out, nil
})

// validateSchema checks data against the JSON schema for version.
func validateSchema(version int, data []byte) error {
	schemas, err := compiledSchemas()
	if err != nil {
		return err
	}
	schema, ok := schemas[version]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownVersion, version)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}
