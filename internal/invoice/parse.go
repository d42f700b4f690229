package invoice

import (
	"bytes"
	"encoding/json"
	"strings"
)

// decodeObject parses raw as a JSON object. When the strict parse fails the
// markdown fences models like to add are stripped and the parse is retried
// once.
func decodeObject(raw string) (map[string]any, error) {
	m, err := decodeStrict(strings.TrimSpace(raw))
	if err == nil {
		return m, nil
	}
	m, err = decodeStrict(stripFences(raw))
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return m, nil
}

func decodeStrict(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errNotObject
	}
	// trailing content after the object is not a valid document
	if dec.More() {
		return nil, errTrailingData
	}
	return m, nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
