package store

import (
	"encoding/json"
	"fmt"
)

// marshalRestarts converts restart steps to JSON TEXT. A nil list is
// stored as "[]" so reads never see NULL.
func marshalRestarts(steps []int) (string, error) {
	if len(steps) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("marshal restarts: %w", err)
	}
	return string(data), nil
}

// unmarshalRestarts parses JSON TEXT written by marshalRestarts. An empty
// list comes back as nil, matching what the engine reports.
func unmarshalRestarts(data string) ([]int, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var steps []int
	if err := json.Unmarshal([]byte(data), &steps); err != nil {
		return nil, fmt.Errorf("unmarshal restarts: %w", err)
	}
	return steps, nil
}

// boolToInt maps a Go bool onto SQLite's integer booleans.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
