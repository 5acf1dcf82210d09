package auth

import (
	"strings"
	"unicode"
)

// SanitizeName trims a display name and strips control characters.
func SanitizeName(name string) string {
	return strings.TrimSpace(removeControlChars(name))
}

// removeControlChars removes all control characters, including newlines.
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
