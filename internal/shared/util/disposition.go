package util

import (
	"mime"
	"strings"
)

// AttachmentDisposition builds an attachment Content-Disposition header for fileName.
// Non-ASCII names are emitted with RFC 2231 encoding; control characters are dropped.
func AttachmentDisposition(fileName string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, fileName)
	if strings.TrimSpace(clean) == "" {
		return "attachment"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": clean}); v != "" {
		return v
	}
	return "attachment"
}
