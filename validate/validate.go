// Package validate enforces the output contract agent text must satisfy
// before it is trusted as a node result: a size cap and a fixed set of
// forbidden Unicode control characters that downstream prompt-injection
// hardening depends on being rejected identically everywhere.
package validate

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxBytes is the size cap applied when a caller does not specify
// one.
const DefaultMaxBytes = 64 * 1024

// forbidden reports whether r is one of the runes spec.md §9 names:
// bidi overrides (U+202A-U+202E), bidi isolates (U+2066-U+2069),
// zero-width characters (U+200B-U+200D), and the byte-order mark (U+FEFF).
func forbidden(r rune) bool {
	switch {
	case r >= 0x202A && r <= 0x202E:
		return true
	case r >= 0x2066 && r <= 0x2069:
		return true
	case r >= 0x200B && r <= 0x200D:
		return true
	case r == 0xFEFF:
		return true
	default:
		return false
	}
}

// Text rejects s if it exceeds maxBytes (DefaultMaxBytes when maxBytes <= 0)
// or contains any forbidden rune, returning the first violation found.
func Text(s string, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(s) > maxBytes {
		return fmt.Errorf("validate: output exceeds %d bytes (got %d)", maxBytes, len(s))
	}

	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return fmt.Errorf("validate: invalid UTF-8 at byte %d", i)
			}
			continue
		}
		if forbidden(r) {
			return fmt.Errorf("validate: forbidden control character U+%04X at byte %d", r, i)
		}
	}
	return nil
}
