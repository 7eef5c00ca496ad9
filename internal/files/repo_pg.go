package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const selectColumns = `id, user_id, file_name, file_type, file_size, storage_key, uploaded_at, extracted_text`

// PGStore implements MetadataStore using Postgres.
type PGStore struct {
	DB *sql.DB
}

// Save inserts a new record under a fresh ID.
func (s *PGStore) Save(ctx context.Context, meta FileMetadata) (FileMetadata, error) {
	const query = `
INSERT INTO file_metadata (
    id,
    user_id,
    file_name,
    file_type,
    file_size,
    storage_key,
    uploaded_at,
    extracted_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	meta.ID = uuid.NewString()
	// TIMESTAMPTZ keeps microseconds.
	meta.UploadedAt = meta.UploadedAt.UTC().Truncate(time.Microsecond)

	var fileType sql.NullString
	if meta.FileType != "" {
		fileType = sql.NullString{String: meta.FileType, Valid: true}
	}
	var extracted sql.NullString
	if meta.ExtractedText != nil {
		extracted = sql.NullString{String: *meta.ExtractedText, Valid: true}
	}

	_, err := s.DB.ExecContext(
		ctx,
		query,
		meta.ID,
		meta.UserID,
		meta.FileName,
		fileType,
		meta.FileSize,
		meta.StorageKey,
		meta.UploadedAt,
		extracted,
	)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("insert file_metadata: %w", err)
	}
	return meta, nil
}

// FindByID fetches a record by ID.
func (s *PGStore) FindByID(ctx context.Context, id string) (FileMetadata, error) {
	const query = `
SELECT ` + selectColumns + `
FROM file_metadata
WHERE id = $1
LIMIT 1`
	return scanOne(s.DB.QueryRowContext(ctx, query, id))
}

// FindByUser lists a user's records ordered newest-first.
func (s *PGStore) FindByUser(ctx context.Context, userID string) ([]FileMetadata, error) {
	const query = `
SELECT ` + selectColumns + `
FROM file_metadata
WHERE user_id = $1
ORDER BY uploaded_at DESC, id DESC`

	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FileMetadata{}
	for rows.Next() {
		meta, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByUserAndName returns the newest record for the pair.
func (s *PGStore) FindByUserAndName(ctx context.Context, userID, fileName string) (FileMetadata, error) {
	const query = `
SELECT ` + selectColumns + `
FROM file_metadata
WHERE user_id = $1 AND file_name = $2
ORDER BY uploaded_at DESC, id DESC
LIMIT 1`
	return scanOne(s.DB.QueryRowContext(ctx, query, userID, fileName))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row rowScanner) (FileMetadata, error) {
	meta, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FileMetadata{}, ErrNotFound
		}
		return FileMetadata{}, err
	}
	return meta, nil
}

func scanRecord(row rowScanner) (FileMetadata, error) {
	var meta FileMetadata
	var fileType sql.NullString
	var extracted sql.NullString
	if err := row.Scan(
		&meta.ID,
		&meta.UserID,
		&meta.FileName,
		&fileType,
		&meta.FileSize,
		&meta.StorageKey,
		&meta.UploadedAt,
		&extracted,
	); err != nil {
		return FileMetadata{}, err
	}
	if fileType.Valid {
		meta.FileType = fileType.String
	}
	if extracted.Valid {
		text := extracted.String
		meta.ExtractedText = &text
	}
	meta.UploadedAt = meta.UploadedAt.UTC()
	return meta, nil
}

var _ MetadataStore = (*PGStore)(nil)
