package files

import "context"

// MetadataStore defines persistence operations for file metadata.
type MetadataStore interface {
	// Save persists a new record and returns it with its store-assigned ID.
	Save(ctx context.Context, meta FileMetadata) (FileMetadata, error)
	// FindByID returns the record with id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (FileMetadata, error)
	// FindByUser returns every record owned by userID, newest first.
	FindByUser(ctx context.Context, userID string) ([]FileMetadata, error)
	// FindByUserAndName returns the most recently uploaded record for the pair,
	// ties broken by the greater ID, or ErrNotFound.
	FindByUserAndName(ctx context.Context, userID, fileName string) (FileMetadata, error)
}

// newerThan orders records newest first with a deterministic tie-break.
func newerThan(a, b FileMetadata) bool {
	if !a.UploadedAt.Equal(b.UploadedAt) {
		return a.UploadedAt.After(b.UploadedAt)
	}
	return a.ID > b.ID
}
