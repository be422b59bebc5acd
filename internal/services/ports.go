package services

import (
	"context"
	"io"
	"time"

	"fileflow/internal/storage"

	"github.com/google/uuid"
)

// ObjectStorage is the object-store surface the upload engine needs. All
// calls are blocking network I/O and safely retryable by the caller.
type ObjectStorage interface {
	Bucket() string
	PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (string, map[string]string, error)
	InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []storage.Part) (string, error)
	HeadObject(ctx context.Context, key string) (storage.ObjectInfo, error)
	PutObject(ctx context.Context, key, contentType string, body io.Reader) error
	FileURL(key string) string
}

// SessionTracker maintains the TTL shadow key whose expiry drives the
// reaper. Tracking is best effort; the session row stays authoritative.
type SessionTracker interface {
	Track(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error
	Untrack(ctx context.Context, sessionID uuid.UUID) error
}
