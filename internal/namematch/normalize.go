package namematch

import (
	"strings"
	"unicode"
)

// generational suffixes stripped during normalization; matching is
// case-insensitive and runs after punctuation removal.
var nameSuffixes = map[string]struct{}{
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
	"v":   {},
}

// Normalize canonicalizes a player name: lower-case, punctuation
// stripped, whitespace collapsed, generational suffixes removed.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteByte(' ')
		}
	}

	parts := strings.Fields(b.String())
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if _, ok := nameSuffixes[part]; ok {
			continue
		}
		out = append(out, part)
	}

	return strings.Join(out, " ")
}

// FirstName returns the leading token of a normalized name.
func FirstName(normalized string) string {
	if idx := strings.IndexByte(normalized, ' '); idx >= 0 {
		return normalized[:idx]
	}
	return normalized
}

// LastName returns the trailing token of a normalized name.
func LastName(normalized string) string {
	if idx := strings.LastIndexByte(normalized, ' '); idx >= 0 {
		return normalized[idx+1:]
	}
	return normalized
}
