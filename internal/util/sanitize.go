package util

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]`)

// SanitizeString trims whitespace and removes control characters from s.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeFilename reduces a caller-supplied name to its base name and
// replaces characters that are unsafe in a flat output directory. An
// empty or fully-stripped name becomes "file".
func SanitizeFilename(name string) string {
	name = filepath.Base(SanitizeString(name))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}
