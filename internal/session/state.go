package session

import (
	"encoding/json"
	"fmt"
)

// StateFrom flattens a typed per-game state record into the opaque map the
// registry stores. The round trip through JSON keeps only JSON-compatible
// values, which is what the wire contract requires.
func StateFrom(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to flatten game state: %w", err)
	}
	return m, nil
}

// StateInto re-types an opaque state map into a per-game state record.
func StateInto(m map[string]any, v any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal state map: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode game state: %w", err)
	}
	return nil
}
