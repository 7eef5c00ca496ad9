package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"file-management-api/internal/shared/storage/object"
)

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store implements BlobStore for MinIO.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(checkCtx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads an object.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) error {
	if strings.TrimSpace(key) == "" {
		return object.ErrInvalidKey
	}
	if contentType == "" {
		contentType = object.DefaultContentType
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return nil
}

// Get downloads an object fully.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapGetErr(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces a missing key before any bytes are read.
	if _, err := obj.Stat(); err != nil {
		return nil, s.wrapGetErr(key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrapGetErr(key, err)
	}
	return data, nil
}

func (s *Store) wrapGetErr(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: bucket=%s key=%s", object.ErrNotFound, s.bucket, key)
	}
	return fmt.Errorf("get object bucket=%s key=%s: %w", s.bucket, key, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

var _ object.BlobStore = (*Store)(nil)
