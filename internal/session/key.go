package session

import (
	"strings"
	"time"
	"unicode"
)

// SanitizeName strips characters outside alphanumerics, space, hyphen, and
// underscore, then trims surrounding whitespace. The result may be empty.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// TimestampKey derives a storage key from a capture time.
func TimestampKey(t time.Time) string {
	return "session_" + t.Format("20060102_150405")
}

// KeyFor derives the storage key for a session: the sanitized name when one
// was given (and survives sanitization), otherwise a timestamp-based key.
func KeyFor(name string, savedAt time.Time) string {
	if name != "" {
		if safe := SanitizeName(name); safe != "" {
			return safe
		}
	}
	return TimestampKey(savedAt)
}

// DeriveName builds the default session name for unnamed captures.
func DeriveName(savedAt time.Time) string {
	return "Session " + savedAt.Format("Jan 02, 2006 at 03:04:05 PM")
}
