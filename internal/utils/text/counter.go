// Package text provides utilities for text processing.
// All lengths are measured in Unicode characters (runes), never bytes, so
// Japanese titles and emoji are counted the way a reader sees them.
package text

import "strings"

// EllipsisMarker is appended to text shortened by Truncate.
const EllipsisMarker = "..."

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")      // 5
//	CountRunes("こんにちは")   // 5
//	CountRunes("Hello👋")    // 6
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate shortens s to at most max runes. When s is longer, the result is
// the first max-len(EllipsisMarker) runes followed by EllipsisMarker, so its
// length is exactly max. The boolean reports whether truncation happened.
//
// A max smaller than the marker yields the first max runes with no marker.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 {
		return "", s != ""
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}

	markerLen := CountRunes(EllipsisMarker)
	if max <= markerLen {
		return string(runes[:max]), true
	}

	return string(runes[:max-markerLen]) + EllipsisMarker, true
}

// CollapseSpace trims s and replaces every run of whitespace (including
// newlines from nested markup) with a single space. Characters XML cannot
// carry are dropped first.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(StripInvalidXML(s)), " ")
}

// StripInvalidXML removes every rune outside the XML 1.0 Char production:
// C0 controls other than tab, newline and carriage return, surrogates,
// U+FFFE and U+FFFF. Invalid UTF-8 bytes become U+FFFD.
func StripInvalidXML(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
