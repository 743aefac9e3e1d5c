// Package llmjson parses structured output produced by generative backends.
//
// Backends are asked for a bare JSON object or array but routinely wrap it in
// Markdown fences or prose, truncate it, or drop keys. Parsing is a two step
// pipeline: Strict accepts a (possibly fenced) document that is exactly the
// requested value, Lenient locates the first balanced value inside arbitrary
// text and, failing that, the span between the first opening and the last
// closing delimiter.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON is returned when the input holds no parseable value of the requested kind.
	ErrNoJSON = errors.New("no json value found")
	// ErrMissingField is returned by Require when a mandatory key is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrLengthMismatch is returned when an array does not have the expected number of elements.
	ErrLengthMismatch = errors.New("array length mismatch")
)

// Stage names the parser step that produced a value.
type Stage string

const (
	StageStrict  Stage = "strict"
	StageLenient Stage = "lenient"
)

// StrictObject parses raw as a single JSON object.
func StrictObject(raw string) (map[string]any, error) {
	var out map[string]any
	if err := strict(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("strict object: %w", ErrNoJSON)
	}
	return out, nil
}

// LenientObject extracts the first JSON object embedded in raw.
func LenientObject(raw string) (map[string]any, error) {
	var out map[string]any
	if err := lenient(raw, '{', '}', &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("lenient object: %w", ErrNoJSON)
	}
	return out, nil
}

// StrictArray parses raw as a single JSON array.
func StrictArray(raw string) ([]any, error) {
	var out []any
	if err := strict(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("strict array: %w", ErrNoJSON)
	}
	return out, nil
}

// LenientArray extracts the first JSON array embedded in raw.
func LenientArray(raw string) ([]any, error) {
	var out []any
	if err := lenient(raw, '[', ']', &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("lenient array: %w", ErrNoJSON)
	}
	return out, nil
}

// ParseObject runs StrictObject and then LenientObject.
func ParseObject(raw string) (map[string]any, Stage, error) {
	if out, err := StrictObject(raw); err == nil {
		return out, StageStrict, nil
	}
	out, err := LenientObject(raw)
	if err != nil {
		return nil, "", err
	}
	return out, StageLenient, nil
}

// ParseArray runs StrictArray and then LenientArray.
func ParseArray(raw string) ([]any, Stage, error) {
	if out, err := StrictArray(raw); err == nil {
		return out, StageStrict, nil
	}
	out, err := LenientArray(raw)
	if err != nil {
		return nil, "", err
	}
	return out, StageLenient, nil
}

// StringArray parses an array of exactly n non-blank strings. Anything else
// is rejected as a whole.
func StringArray(raw string, n int) ([]string, Stage, error) {
	items, stage, err := ParseArray(raw)
	if err != nil {
		return nil, "", err
	}
	if len(items) != n {
		return nil, stage, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(items), n)
	}

	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, stage, fmt.Errorf("%w: element %d is not a non-empty string", ErrMissingField, i)
		}
		out[i] = strings.TrimSpace(s)
	}
	return out, stage, nil
}

// Require checks that every key is present and non-null. A key may list
// alternatives separated by "|", any of which satisfies it.
func Require(data map[string]any, keys ...string) error {
	for _, key := range keys {
		found := false
		for _, alt := range strings.Split(key, "|") {
			if v, ok := data[alt]; ok && v != nil {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}
	return nil
}

func strict(raw string, out any) error {
	cleaned := stripFence(raw)
	if cleaned == "" {
		return fmt.Errorf("strict: %w", ErrNoJSON)
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("strict: %w: %v", ErrNoJSON, err)
	}
	return nil
}

func lenient(raw string, open, close byte, out any) error {
	for offset := 0; offset < len(raw); {
		candidate, end, ok := balanced(raw, offset, open, close)
		if !ok {
			break
		}
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		}
		offset = end
	}

	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start == -1 || end <= start {
		return fmt.Errorf("lenient: %w", ErrNoJSON)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), out); err != nil {
		return fmt.Errorf("lenient: %w: %v", ErrNoJSON, err)
	}
	return nil
}

// balanced returns the first substring of s at or after offset that opens
// with open and closes with the matching close, ignoring delimiters inside
// JSON strings. end is the index just past the candidate's opening byte.
func balanced(s string, offset int, open, close byte) (string, int, bool) {
	rel := strings.IndexByte(s[offset:], open)
	for rel != -1 {
		start := offset + rel
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return s[start : i+1], start + 1, true
				}
			}
		}

		offset = start + 1
		rel = strings.IndexByte(s[offset:], open)
	}
	return "", 0, false
}

func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
