package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"docrank/internal/domain"
)

// personaFields lists the keys tried, in order, when a persona or job is
// given as an object instead of a string.
var personaFields = []string{"role", "description", "name"}

var jobFields = []string{"task", "description"}

// LoadPersona reads the persona and job-to-be-done from a JSON file. Both
// may be plain strings or objects such as {"role": "..."} and
// {"task": "..."}. Any failure wraps domain.ErrConfiguration.
func LoadPersona(path string) (persona, job string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("%w: read persona file: %w", domain.ErrConfiguration, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", "", fmt.Errorf("%w: parse persona file %s: %w", domain.ErrConfiguration, path, err)
	}
	persona, err = field(raw, "persona", personaFields)
	if err != nil {
		return "", "", err
	}
	job, err = field(raw, "job_to_be_done", jobFields)
	if err != nil {
		return "", "", err
	}
	return persona, job, nil
}

func field(raw map[string]json.RawMessage, key string, nested []string) (string, error) {
	msg, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("%w: persona file is missing %q", domain.ErrConfiguration, key)
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(msg, &obj); err != nil {
		return "", fmt.Errorf("%w: %q must be a string or an object", domain.ErrConfiguration, key)
	}
	for _, k := range nested {
		if v, ok := obj[k].(string); ok && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q has none of the fields %s", domain.ErrConfiguration, key, strings.Join(nested, ", "))
}
