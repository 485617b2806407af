// Package util holds small shared helpers.
package util

import (
	"fmt"
	"strings"
)

// ParseSize parses a human-readable size string (e.g. "10MB", "512KB", "2GB")
// into bytes. Returns defaultBytes if the string cannot be parsed.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	}

	var val int64
	if _, err := fmt.Sscanf(s, "%d", &val); err == nil {
		return val * multiplier
	}
	return defaultBytes
}

// FormatSize renders a byte count as a human-readable string, e.g.
// 16777216 -> "16 MB". Fractional values keep one decimal.
func FormatSize(bytes int64) string {
	const (
		kb = int64(1024)
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return trimZero(fmt.Sprintf("%.1f", float64(bytes)/float64(gb))) + " GB"
	case bytes >= mb:
		return trimZero(fmt.Sprintf("%.1f", float64(bytes)/float64(mb))) + " MB"
	case bytes >= kb:
		return trimZero(fmt.Sprintf("%.1f", float64(bytes)/float64(kb))) + " KB"
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
