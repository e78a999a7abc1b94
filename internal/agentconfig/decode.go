package agentconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DecodeJSON parses a JSON object into a raw map for Validate.
func DecodeJSON(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parsing JSON: document is not an object")
	}
	return raw, nil
}

// DecodeYAML parses a YAML mapping into a raw map for Validate. Values are
// normalized to the types encoding/json would produce.
func DecodeYAML(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	raw, ok := NormalizeYAML(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parsing YAML: document is not a mapping")
	}
	return raw, nil
}

// DecodeFile reads path and decodes it as JSON when the extension is .json,
// and as YAML otherwise.
func DecodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	var raw map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err = DecodeJSON(data)
	} else {
		raw, err = DecodeYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

// NormalizeYAML recursively converts YAML-decoded values to the types
// encoding/json would produce: map keys become strings and integers become
// float64.
func NormalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = NormalizeYAML(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = NormalizeYAML(v)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = NormalizeYAML(v)
		}
		return a
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return val
	}
}
