package files

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of MetadataStore.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]FileMetadata
	byUser map[string][]string // userID -> record ids
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]FileMetadata),
		byUser: make(map[string][]string),
	}
}

// Save stores a new record under a fresh ID.
func (s *MemoryStore) Save(ctx context.Context, meta FileMetadata) (FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return FileMetadata{}, err
	}
	meta.ID = uuid.NewString()
	meta.ExtractedText = cloneText(meta.ExtractedText)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[meta.ID] = meta
	s.byUser[meta.UserID] = append(s.byUser[meta.UserID], meta.ID)
	return copyRecord(meta), nil
}

// FindByID returns a record by ID.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return FileMetadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.byID[id]
	if !ok {
		return FileMetadata{}, ErrNotFound
	}
	return copyRecord(meta), nil
}

// FindByUser returns a user's records, newest first.
func (s *MemoryStore) FindByUser(ctx context.Context, userID string) ([]FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := s.byUser[userID]
	out := make([]FileMetadata, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyRecord(s.byID[id]))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return newerThan(out[i], out[j])
	})
	return out, nil
}

// FindByUserAndName returns the newest record matching the pair.
func (s *MemoryStore) FindByUserAndName(ctx context.Context, userID, fileName string) (FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return FileMetadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  FileMetadata
		found bool
	)
	for _, id := range s.byUser[userID] {
		meta := s.byID[id]
		if meta.FileName != fileName {
			continue
		}
		if !found || newerThan(meta, best) {
			best = meta
			found = true
		}
	}
	if !found {
		return FileMetadata{}, ErrNotFound
	}
	return copyRecord(best), nil
}

func copyRecord(meta FileMetadata) FileMetadata {
	meta.ExtractedText = cloneText(meta.ExtractedText)
	return meta
}

func cloneText(text *string) *string {
	if text == nil {
		return nil
	}
	v := *text
	return &v
}

var _ MetadataStore = (*MemoryStore)(nil)
