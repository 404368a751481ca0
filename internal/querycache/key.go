package querycache

import (
	"encoding/json"
	"fmt"
)

// Key builds a structural cache key from parts. Every part is round-tripped
// through JSON so maps with the same pairs in any order, and structs with the
// same field values, produce the same key.
func Key(parts ...any) (string, error) {
	normalized := make([]any, len(parts))
	for i, p := range parts {
		raw, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("key part %d: %w", i, err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", fmt.Errorf("key part %d: %w", i, err)
		}
		normalized[i] = v
	}

	out, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
