// Package script holds the dialogue script: an ordered list of speaker/text
// lines imported from and exported to a strict two-field JSON format.
package script

import (
	"encoding/json"
	"fmt"
)

// Line is one dialogue line. Order within a script is playback order.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ValidationError reports a malformed script or configuration rejected
// before any remote call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// rawLine catches extra or missing keys that the Line struct would
// silently tolerate.
type rawLine map[string]json.RawMessage

// Parse decodes a JSON script into lines. The input must be an array of
// objects with exactly the string fields "speaker" and "text"; anything
// else is rejected with a *ValidationError.
func Parse(data []byte) ([]Line, error) {
	var raw []rawLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	lines := make([]Line, 0, len(raw))
	for i, obj := range raw {
		if len(obj) != 2 {
			return nil, &ValidationError{Reason: fmt.Sprintf("line %d: want exactly the keys \"speaker\" and \"text\", got %d keys", i+1, len(obj))}
		}
		var line Line
		for _, key := range []string{"speaker", "text"} {
			val, ok := obj[key]
			if !ok {
				return nil, &ValidationError{Reason: fmt.Sprintf("line %d: missing %q", i+1, key)}
			}
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return nil, &ValidationError{Reason: fmt.Sprintf("line %d: %q must be a string", i+1, key)}
			}
			if key == "speaker" {
				line.Speaker = s
			} else {
				line.Text = s
			}
		}
		if line.Speaker == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("line %d: empty speaker", i+1)}
		}
		if line.Text == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("line %d: empty text", i+1)}
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Reason: "script has no lines"}
	}
	return lines, nil
}

// Export serializes lines back to the import format. Parse(Export(s))
// yields a script identical to s.
func Export(lines []Line) ([]byte, error) {
	return json.MarshalIndent(lines, "", "  ")
}

// Speakers returns the distinct speaker names in first-appearance order.
func Speakers(lines []Line) []string {
	seen := make(map[string]bool, len(lines))
	var out []string
	for _, l := range lines {
		if !seen[l.Speaker] {
			seen[l.Speaker] = true
			out = append(out, l.Speaker)
		}
	}
	return out
}
