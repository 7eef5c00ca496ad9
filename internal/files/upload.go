package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"file-management-api/internal/queue"
	"file-management-api/internal/shared/metrics"
	"file-management-api/internal/shared/storage/object"
	"file-management-api/internal/shared/telemetry"
)

// TextExtractor turns PDF bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// UploadInput is one incoming file.
type UploadInput struct {
	UserID      string
	FileName    string
	ContentType string
	// Size is the declared payload length, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Uploader stores a payload in the blob store and records its metadata.
type Uploader struct {
	Blobs     object.BlobStore
	Repo      MetadataStore
	Extractor TextExtractor
	// Events receives file.uploaded and blob.orphaned notifications when set.
	Events queue.Client

	// Now and NewToken default to the wall clock and a random UUID.
	Now      func() time.Time
	NewToken func() string
}

// extraction is the outcome of the optional text extraction step.
type extraction struct {
	attempted bool
	text      *string
	err       error
}

// Upload writes the blob, extracts text from PDFs, and persists the record last.
// A failed extraction leaves ExtractedText nil and does not fail the upload.
func (u *Uploader) Upload(ctx context.Context, in UploadInput) (FileMetadata, error) {
	start := time.Now()
	meta, err := u.upload(ctx, in)
	if err != nil {
		metrics.IncUploadFailed()
		return FileMetadata{}, err
	}
	metrics.IncUploads()
	metrics.ObserveUploadDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return meta, nil
}

func (u *Uploader) upload(ctx context.Context, in UploadInput) (FileMetadata, error) {
	userID := normalizeUserID(in.UserID)
	if userID == "" {
		return FileMetadata{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.Body == nil {
		return FileMetadata{}, fmt.Errorf("%w: file body is required", ErrInvalidInput)
	}

	fileName := resolveFileName(in.FileName)
	contentType := strings.TrimSpace(in.ContentType)

	data, err := readPayload(in.Body, in.Size)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("read payload: %w", err)
	}

	key := storageKey(userID, u.token(), fileName)
	blobType := contentType
	if blobType == "" {
		blobType = object.DefaultContentType
	}
	if err := u.Blobs.Put(ctx, key, blobType, bytes.NewReader(data), int64(len(data))); err != nil {
		return FileMetadata{}, fmt.Errorf("%w: store blob key=%s: %w", ErrUpstreamWrite, key, err)
	}

	result := u.extract(ctx, contentType, fileName, data)
	if result.err != nil {
		metrics.IncExtractionFailed()
		telemetry.Warn("files.extract.failed", map[string]any{
			"user_id":     userID,
			"file_name":   fileName,
			"storage_key": key,
			"error":       result.err,
		})
	}

	meta := FileMetadata{
		UserID:        userID,
		FileName:      fileName,
		FileType:      contentType,
		FileSize:      int64(len(data)),
		StorageKey:    key,
		UploadedAt:    u.now().UTC(),
		ExtractedText: result.text,
	}

	saved, err := u.Repo.Save(ctx, meta)
	if err != nil {
		// The blob stays behind without a record; cleanup belongs to an external job.
		metrics.IncOrphanedBlob()
		telemetry.Error("files.upload.orphaned_blob", map[string]any{
			"user_id":     userID,
			"storage_key": key,
			"error":       err,
		})
		orphan := queue.NewMessage(queue.EventBlobOrphaned, u.now())
		orphan.UserID = userID
		orphan.FileName = fileName
		orphan.StorageKey = key
		orphan.Reason = err.Error()
		u.publish(context.WithoutCancel(ctx), orphan)
		return FileMetadata{}, fmt.Errorf("%w: save metadata key=%s: %w", ErrUpstreamWrite, key, err)
	}

	telemetry.Info("files.upload.complete", map[string]any{
		"file_id":        saved.ID,
		"user_id":        userID,
		"storage_key":    key,
		"size_bytes":     saved.FileSize,
		"extract_tried":  result.attempted,
		"extracted_text": saved.HasExtractedText(),
	})

	uploaded := queue.NewMessage(queue.EventFileUploaded, saved.UploadedAt)
	uploaded.FileID = saved.ID
	uploaded.UserID = saved.UserID
	uploaded.FileName = saved.FileName
	uploaded.StorageKey = saved.StorageKey
	u.publish(ctx, uploaded)
	return saved, nil
}

// publish is best effort; a failed send is logged and never fails the upload.
func (u *Uploader) publish(ctx context.Context, msg queue.Message) {
	if u.Events == nil {
		return
	}
	if err := u.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("files.event.publish_failed", map[string]any{
			"type":        msg.Type,
			"storage_key": msg.StorageKey,
			"error":       err,
		})
	}
}

func (u *Uploader) extract(ctx context.Context, contentType, fileName string, data []byte) extraction {
	if !isPDF(contentType, fileName) {
		return extraction{}
	}
	if u.Extractor == nil {
		telemetry.Debug("files.extract.skipped", map[string]any{"file_name": fileName, "reason": "no extractor"})
		return extraction{}
	}

	metrics.IncExtractionAttempted()
	text, err := u.Extractor.Extract(ctx, data)
	if err != nil {
		return extraction{attempted: true, err: err}
	}
	return extraction{attempted: true, text: &text}
}

func (u *Uploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u *Uploader) token() string {
	if u.NewToken != nil {
		return u.NewToken()
	}
	return uuid.NewString()
}

func readPayload(r io.Reader, size int64) ([]byte, error) {
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
