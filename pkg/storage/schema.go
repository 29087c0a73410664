package storage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const ticketSchemaJSON = `{
  "type": "object",
  "required": ["id", "slug", "git", "status", "type"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "slug": {"type": "string"},
    "status": {"enum": ["new", "spec", "planning", "in-progress", "review", "done", "blocked"]},
    "type": {"enum": ["feat", "fix", "refactor", "docs", "test", "chore"]},
    "fresh": {
      "type": ["object", "null"],
      "required": ["id"],
      "properties": {
        "id": {"type": "string"},
        "url": {"type": "string"},
        "priority": {"type": "integer", "minimum": 1, "maximum": 4},
        "status": {"type": "integer"}
      }
    },
    "gitea": {
      "type": ["object", "null"],
      "required": ["repo", "issueNumber"],
      "properties": {
        "repo": {"type": "string", "minLength": 1},
        "issueNumber": {"type": "integer", "minimum": 1},
        "prNumber": {"type": "integer"}
      }
    },
    "git": {
      "type": "object",
      "required": ["branch"],
      "properties": {
        "worktree": {"type": "string"},
        "branch": {"type": "string", "minLength": 1},
        "commits": {
          "type": ["array", "null"],
          "items": {"type": "string"}
        }
      }
    }
  }
}`

var ticketSchemaLoader = gojsonschema.NewStringLoader(ticketSchemaJSON)

// validateRecord checks a YAML record against the ticket schema before decoding.
func validateRecord(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse ticket yaml: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("ticket record is empty")
	}

	result, err := gojsonschema.Validate(ticketSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("ticket record does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
