// Package filestore defines the blob store contract used for claim evidence
// and student photos. Records keep only the opaque id returned by Store.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Folders objects are grouped under
const (
	FolderEvidence = "evidence"
	FolderPhotos   = "photos"
)

// ErrObjectNotFound is returned by Read and Delete for unknown ids
var ErrObjectNotFound = errors.New("object not found")

// Store is the external blob store
type Store interface {
	// Store saves data and returns an opaque file id
	Store(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	// Read opens a stored object. The caller closes the reader.
	Read(ctx context.Context, fileID string) (io.ReadCloser, string, error)
	// Delete removes an object; ErrObjectNotFound when it is already gone
	Delete(ctx context.Context, fileID string) error
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes
func (u *Upload) Size() int64 {
	if u == nil {
		return 0
	}
	return int64(len(u.Data))
}

// Policy restricts what uploads are accepted
type Policy struct {
	AllowedTypes []string
	MaxSize      int64
}

// DefaultEvidencePolicy accepts images and PDFs up to 5 MiB
func DefaultEvidencePolicy() Policy {
	return Policy{
		AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "application/pdf"},
		MaxSize:      5 << 20,
	}
}

// DefaultPhotoPolicy accepts images up to 2 MiB
func DefaultPhotoPolicy() Policy {
	return Policy{
		AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg", "image/webp"},
		MaxSize:      2 << 20,
	}
}

// Check validates an upload against the policy
func (p Policy) Check(u *Upload) error {
	if u == nil || len(u.Data) == 0 {
		return errors.New("file is empty")
	}
	if p.MaxSize > 0 && u.Size() > p.MaxSize {
		return fmt.Errorf("file exceeds %d bytes", p.MaxSize)
	}
	if len(p.AllowedTypes) == 0 {
		return nil
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(u.ContentType, ";", 2)[0]))
	for _, allowed := range p.AllowedTypes {
		if ct == allowed {
			return nil
		}
	}
	return fmt.Errorf("file type %q is not supported", u.ContentType)
}
