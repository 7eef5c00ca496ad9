package util

import "strings"

// KeySegment makes s safe to use as one segment of a slash-delimited storage key.
// Path separators are replaced so the segment can never split into more levels.
func KeySegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
