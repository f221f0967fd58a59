// Package jsonextract defensively pulls a single JSON object out of
// free-form agent text and reads typed fields from it by a priority list of
// aliases, the way a rubric self-evaluation criterion reads a "score" or
// "recommendation" key out of whatever shape the LLM actually returned.
package jsonextract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FirstObject scans text for the first balanced `{...}` span and parses it
// as a JSON object. It tolerates surrounding prose (code fences, commentary
// before/after the object) by scanning for brace balance rather than
// requiring the whole string to be valid JSON. Returns ok=false if no
// balanced object is found or it does not parse as a JSON object.
func FirstObject(text string) (map[string]any, bool) {
	start := strings.IndexByte(text, '{')
	for start != -1 {
		if end, ok := matchingBrace(text, start); ok {
			var obj map[string]any
			if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
				return obj, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next == -1 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}

// matchingBrace returns the index of the brace matching the one at open,
// respecting nested braces and JSON string literals (so a `}` inside a
// quoted string doesn't end the scan early).
func matchingBrace(text string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// String reads the first present key from aliases as a string. Numbers and
// booleans are stringified; ok is false if none of the aliases are present.
func String(obj map[string]any, aliases ...string) (string, bool) {
	v, ok := lookup(obj, aliases...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Float64 reads the first present key from aliases as a float64. JSON
// numbers unmarshal as float64 by default, which is what this expects.
func Float64(obj map[string]any, aliases ...string) (float64, bool) {
	v, ok := lookup(obj, aliases...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Any reads the first present key from aliases as its raw decoded JSON
// value (string, float64, bool, map[string]any, []any, or nil), with no
// type coercion. Used when a caller wants to merge a named field straight
// into execution context rather than read it as a specific scalar type.
func Any(obj map[string]any, aliases ...string) (any, bool) {
	return lookup(obj, aliases...)
}

func lookup(obj map[string]any, aliases ...string) (any, bool) {
	for _, a := range aliases {
		if v, ok := obj[a]; ok {
			return v, true
		}
	}
	return nil, false
}
