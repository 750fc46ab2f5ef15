package llm

import "encoding/json"

// ParseToolInput decodes a tool-use's accumulated argument JSON into a
// generic mapping. An empty buffer (a no-argument tool call) decodes
// to an empty map rather than an error.
func ParseToolInput(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return map[string]any{}, err
	}
	return input, nil
}
