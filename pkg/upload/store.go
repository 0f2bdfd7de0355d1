package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a staging ID does not exist or was already
// claimed.
var ErrNotFound = errors.New("upload: staged file not found")

// ErrTooLarge is returned when a file exceeds the store's size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrTypeNotAllowed is returned when a content type is outside the
// handler's allow list.
var ErrTypeNotAllowed = errors.New("upload: content type not allowed")

// Meta describes a staged file.
type Meta struct {
	// Filename is the original client-side filename.
	Filename string

	// ContentType is the MIME type announced by the client.
	ContentType string

	// Size is the announced size in bytes. Stores verify it while copying.
	Size int64
}

// Asset is a claimed staged file. The caller owns the Reader and must
// close it; closing releases the underlying storage.
type Asset struct {
	ID   string
	Meta Meta

	// Path is the local filesystem path. Set by DiskStore only.
	Path string

	// URL is a presigned remote URL. Set by S3Store only.
	URL string

	Reader io.ReadCloser
}

// Close closes the asset reader if open.
func (a *Asset) Close() error {
	if a.Reader != nil {
		return a.Reader.Close()
	}
	return nil
}

// Store is a staging backend for widget uploads.
type Store interface {
	// Stage stores the file and returns its staging ID.
	Stage(ctx context.Context, meta Meta, r io.Reader) (string, error)

	// Claim retrieves a staged file and consumes it: a second Claim for
	// the same ID returns ErrNotFound.
	Claim(ctx context.Context, id string) (*Asset, error)

	// Sweep removes staged files older than maxAge. Call it periodically.
	Sweep(ctx context.Context, maxAge time.Duration) error
}

// newStagingID returns a cryptographically random ID.
func newStagingID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
