package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadVars reads a YAML or JSON mapping of template variables. An empty path
// yields an empty table.
func loadVars(path string) (map[string]any, error) {
	vars := map[string]any{}
	if strings.TrimSpace(path) == "" {
		return vars, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read vars file: %w", err)
	}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("cli: parse vars file %s: %w", path, err)
	}
	if vars == nil {
		vars = map[string]any{}
	}
	return vars, nil
}

// applySets overlays key=value assignments onto vars.
func applySets(vars map[string]any, sets []string) error {
	for _, raw := range sets {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("cli: invalid --set %q, want key=value", raw)
		}
		vars[key] = parseScalar(value)
	}
	return nil
}

// parseScalar types booleans and numbers; anything else stays a string.
func parseScalar(raw string) any {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	switch v := value.(type) {
	case bool, int, float64:
		return v
	default:
		return raw
	}
}
