package files

import "time"

// FileResponse is the JSON shape of a FileMetadata record.
type FileResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	FileName      string    `json:"fileName"`
	FileType      string    `json:"fileType,omitempty"`
	FileSize      int64     `json:"fileSize"`
	StorageKey    string    `json:"storageKey"`
	UploadedAt    time.Time `json:"uploadedAt"`
	ExtractedText *string   `json:"extractedText,omitempty"`
}

func toResponse(meta FileMetadata) FileResponse {
	return FileResponse{
		ID:            meta.ID,
		UserID:        meta.UserID,
		FileName:      meta.FileName,
		FileType:      meta.FileType,
		FileSize:      meta.FileSize,
		StorageKey:    meta.StorageKey,
		UploadedAt:    meta.UploadedAt,
		ExtractedText: meta.ExtractedText,
	}
}

func toResponses(records []FileMetadata) []FileResponse {
	out := make([]FileResponse, 0, len(records))
	for _, meta := range records {
		out = append(out, toResponse(meta))
	}
	return out
}
