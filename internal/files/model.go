package files

import "time"

// FileMetadata describes one uploaded file. Records are created once and never mutated.
type FileMetadata struct {
	ID            string
	UserID        string
	FileName      string
	FileType      string
	FileSize      int64
	StorageKey    string
	UploadedAt    time.Time
	ExtractedText *string
}

// HasExtractedText reports whether text was extracted at upload time.
func (m FileMetadata) HasExtractedText() bool {
	return m.ExtractedText != nil
}

// Download pairs a record with its blob bytes.
type Download struct {
	Metadata FileMetadata
	Data     []byte
}
