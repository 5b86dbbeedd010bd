package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ArchiveStorage defines the interface for the object store that receives
// past weeks' plans. Once a week's Monday has passed, nothing queries its
// key again; archiving gives those plans a durable destination instead of
// leaving them stranded in the hot stores.
type ArchiveStorage interface {
	// PutObject writes an object (the plan export JSON) under the given key.
	PutObject(ctx context.Context, objectKey string, contentType string, body []byte) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for an archived object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an archived object.
	DeleteObject(ctx context.Context, objectKey string) error
}
