package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Match types for mapping rules.
const (
	MatchTitle = "title"
	MatchApp   = "app"
	MatchBoth  = "both"
)

// MappingRule redirects matching activity to a fixed ticket regardless of
// title-embedded keys. Rules are ordered; the first enabled match wins.
type MappingRule struct {
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	JiraKey     string `json:"jira_key"`
	Description string `json:"description,omitempty"`
	MatchType   string `json:"match_type"`
	Enabled     bool   `json:"enabled"`
}

type mappingsFile struct {
	Mappings []MappingRule `json:"mappings"`
}

// LoadMappings reads the ordered mapping rule list. A missing file yields an
// empty list; a malformed pattern or match type is a fatal configuration
// error surfaced here, never per-event.
func LoadMappings(path string) ([]MappingRule, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mappings file %s: %w", path, err)
	}

	var f mappingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing mappings file %s: %w", path, err)
	}

	for i := range f.Mappings {
		r := &f.Mappings[i]
		if r.MatchType == "" {
			r.MatchType = MatchBoth
		}
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("mapping %q: %w", r.Name, err)
		}
	}
	return f.Mappings, nil
}

func (r MappingRule) validate() error {
	if r.Name == "" || r.Pattern == "" || r.JiraKey == "" {
		return fmt.Errorf("name, pattern and jira_key are required")
	}
	switch r.MatchType {
	case MatchTitle, MatchApp, MatchBoth:
	default:
		return fmt.Errorf("match_type must be title, app or both")
	}
	if _, err := regexp.Compile("(?i)" + r.Pattern); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	return nil
}

// mappingsTemplate documents the rule shape on first run.
const mappingsTemplate = `{
  "mappings": [
    {
      "name": "Daily standup",
      "pattern": "standup|daily sync",
      "jira_key": "SE-100",
      "description": "Daily standup meeting",
      "match_type": "title",
      "enabled": false
    }
  ]
}
`

// WriteMappingsTemplate writes the example mappings file. An existing file
// gains any missing top-level keys from the template; the user's rule list is
// never touched.
func WriteMappingsTemplate(path string) error {
	return writeJSONTemplate(path, mappingsTemplate)
}

// writeJSONTemplate creates path from the template, or merges the template's
// missing top-level keys into the existing JSON document.
func writeJSONTemplate(path, template string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(template), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var current map[string]json.RawMessage
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	var defaults map[string]json.RawMessage
	if err := json.Unmarshal([]byte(template), &defaults); err != nil {
		return fmt.Errorf("decoding template for %s: %w", path, err)
	}

	changed := false
	for key, value := range defaults {
		if _, ok := current[key]; !ok {
			current[key] = value
			changed = true
		}
	}
	if !changed {
		return nil
	}

	merged, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(merged, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
