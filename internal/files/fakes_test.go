package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"file-management-api/internal/queue"
	"file-management-api/internal/shared/storage/object"
)

type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
	getErr  error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *memoryBlobs) Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (m *memoryBlobs) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
}

func (m *memoryBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingStore struct {
	MetadataStore
	saveErr error
}

func (s failingStore) Save(ctx context.Context, meta FileMetadata) (FileMetadata, error) {
	return FileMetadata{}, s.saveErr
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return q.err
}

func (q *recordingQueue) sent() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.msgs...)
}

var errBoom = errors.New("boom")
