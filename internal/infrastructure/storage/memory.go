package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/poinmhs/backend/internal/application/filestore"
)

var _ filestore.Store = (*MemoryBlobStore)(nil)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBlobStore keeps objects in process memory.
// Use this for development and tests; contents are lost on restart.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailStore, when set, is returned by Store
	FailStore error
	// FailDelete, when set, is returned by Delete
	FailDelete error
}

// NewMemoryBlobStore creates a new MemoryBlobStore
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		objects: make(map[string]memoryObject),
	}
}

// Store saves a copy of data under a generated key
func (s *MemoryBlobStore) Store(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.FailStore != nil {
		return "", s.FailStore
	}

	key := NewObjectKey(folder, contentType)
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()
	return key, nil
}

// Read returns a reader over the stored bytes
func (s *MemoryBlobStore) Read(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	obj, ok := s.objects[fileID]
	s.mu.RUnlock()
	if !ok {
		return nil, "", filestore.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Delete removes an object
func (s *MemoryBlobStore) Delete(ctx context.Context, fileID string) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[fileID]; !ok {
		return filestore.ErrObjectNotFound
	}
	delete(s.objects, fileID)
	return nil
}

// Exists reports whether an object is present
func (s *MemoryBlobStore) Exists(fileID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[fileID]
	return ok
}

// Len returns the number of stored objects
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
