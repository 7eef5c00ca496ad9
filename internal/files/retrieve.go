package files

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"file-management-api/internal/shared/metrics"
	"file-management-api/internal/shared/storage/object"
	"file-management-api/internal/shared/telemetry"
)

// Retriever resolves metadata records and their blobs.
type Retriever struct {
	Blobs object.BlobStore
	Repo  MetadataStore
}

// GetByID returns the record with id and its bytes.
func (r *Retriever) GetByID(ctx context.Context, id string) (Download, error) {
	if strings.TrimSpace(id) == "" {
		return Download{}, ErrNotFound
	}
	meta, err := r.Repo.FindByID(ctx, id)
	if err != nil {
		return Download{}, err
	}
	return r.load(ctx, meta)
}

// GetByUserAndName returns the newest record for the pair and its bytes.
func (r *Retriever) GetByUserAndName(ctx context.Context, userID, fileName string) (Download, error) {
	userID = normalizeUserID(userID)
	if userID == "" || fileName == "" {
		return Download{}, ErrNotFound
	}
	meta, err := r.Repo.FindByUserAndName(ctx, userID, fileName)
	if err != nil {
		return Download{}, err
	}
	return r.load(ctx, meta)
}

// ListByUser returns metadata only; no blobs are fetched.
func (r *Retriever) ListByUser(ctx context.Context, userID string) ([]FileMetadata, error) {
	userID = normalizeUserID(userID)
	if userID == "" {
		return []FileMetadata{}, nil
	}
	out, err := r.Repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []FileMetadata{}
	}
	return out, nil
}

// GetExtractedText returns the record's text, ErrNoContent when it has none,
// or ErrNotFound when no record exists.
func (r *Retriever) GetExtractedText(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrNotFound
	}
	meta, err := r.Repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if meta.ExtractedText == nil {
		return "", ErrNoContent
	}
	return *meta.ExtractedText, nil
}

func (r *Retriever) load(ctx context.Context, meta FileMetadata) (Download, error) {
	data, err := r.Blobs.Get(ctx, meta.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			metrics.IncStoreInconsistency()
			telemetry.Error("files.store_inconsistency", map[string]any{
				"file_id":     meta.ID,
				"user_id":     meta.UserID,
				"storage_key": meta.StorageKey,
			})
			return Download{}, fmt.Errorf("%w: file id=%s key=%s", ErrStoreInconsistency, meta.ID, meta.StorageKey)
		}
		return Download{}, fmt.Errorf("load blob key=%s: %w", meta.StorageKey, err)
	}
	return Download{Metadata: meta, Data: data}, nil
}
