package files

import (
	"path/filepath"
	"strings"

	"file-management-api/internal/shared/util"
)

const (
	fallbackFileName = "unnamed"
	mimePDF          = "application/pdf"
)

// normalizeUserID is applied on every path that stores or looks up a user id.
func normalizeUserID(userID string) string {
	return strings.TrimSpace(userID)
}

// resolveFileName substitutes the fallback for a missing client file name.
func resolveFileName(name string) string {
	if strings.TrimSpace(name) == "" {
		return fallbackFileName
	}
	return name
}

// storageKey builds "{userID}/{token}_{fileName}". Separators inside either
// segment are replaced so the key keeps exactly two levels.
func storageKey(userID, token, fileName string) string {
	return util.KeySegment(userID) + "/" + token + "_" + util.KeySegment(fileName)
}

// isPDF classifies a payload from its declared content type or its file extension.
// Media type parameters are ignored; both checks are case-insensitive.
func isPDF(contentType, fileName string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	if strings.EqualFold(strings.TrimSpace(mediaType), mimePDF) {
		return true
	}
	return strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) == ".pdf"
}
