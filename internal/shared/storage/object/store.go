package object

import (
	"context"
	"io"
)

// StoredFile describes one durably written upload.
type StoredFile struct {
	Key       string
	PublicURL string
	MimeType  string
	SizeBytes int64
}

// ObjectStore defines the contract for saving and retrieving binary objects.
// Store generates a fresh globally unique key per call; calling it twice with
// the same input produces two distinct objects.
type ObjectStore interface {
	Store(ctx context.Context, fileName string, r io.Reader) (StoredFile, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
