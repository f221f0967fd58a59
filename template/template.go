// Package template substitutes `{name}` placeholders in prompts and action
// payloads from an execution context map. Unlike the teacher's instruction
// package this engine's templates have no scope prefixes or artifact
// references — spec.md's data model is a flat context map, so the contract
// is correspondingly flat: every `{k}` becomes `C[k]` as a string, or empty
// when k is absent.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolve replaces every `{name}` placeholder in tmpl with the stringified
// value of ctx[name], or the empty string if name is absent from ctx.
// Malformed placeholders (not a valid identifier) are left verbatim.
func Resolve(tmpl string, ctx map[string]any) (string, error) {
	var outerErr error
	result := placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := ctx[name]
		if !ok {
			return ""
		}
		s, err := stringify(v)
		if err != nil {
			outerErr = fmt.Errorf("template: key %q: %w", name, err)
			return match
		}
		return s
	})
	if outerErr != nil {
		return "", outerErr
	}
	return result, nil
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

// Names returns the distinct placeholder names referenced by tmpl, in the
// order they first appear.
func Names(tmpl string) []string {
	matches := placeholder.FindAllStringSubmatch(tmpl, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// HasPlaceholders reports whether tmpl contains at least one `{name}`
// placeholder.
func HasPlaceholders(tmpl string) bool {
	return strings.ContainsRune(tmpl, '{') && placeholder.MatchString(tmpl)
}
