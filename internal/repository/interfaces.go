package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
)

type SessionRepository interface {
	Create(ctx context.Context, s *session.UploadSession) error
	GetByID(ctx context.Context, id uuid.UUID) (session.UploadSession, error)
	GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (session.UploadSession, error)
	Update(ctx context.Context, s session.UploadSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, status session.Status, page, limit int) ([]session.UploadSession, int64, error)

	// UpdateWithOutbox persists the session mutation and the given outbox
	// entries in one transaction (transactional-outbox guarantee).
	UpdateWithOutbox(ctx context.Context, s session.UploadSession, entries ...*outbox.Entry) error

	GetPart(ctx context.Context, sessionID uuid.UUID, partNumber int) (session.CompletedPart, error)
	GetParts(ctx context.Context, sessionID uuid.UUID) ([]session.CompletedPart, error)
	UpdatePart(ctx context.Context, p session.CompletedPart) error

	DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, e *outbox.Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Entry, error)
	GetPending(ctx context.Context, kind outbox.Kind, limit int) ([]outbox.Entry, error)
	GetRetryableFailed(ctx context.Context, kind outbox.Kind, maxRetries int, updatedBefore time.Time, limit int) ([]outbox.Entry, error)
	GetStaleProcessing(ctx context.Context, kind outbox.Kind, updatedBefore time.Time, limit int) ([]outbox.Entry, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	MarkPermanentlyFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

type DownloadRepository interface {
	CreateWithOutbox(ctx context.Context, d *download.ExternalDownload, e *outbox.Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (download.ExternalDownload, error)
	Update(ctx context.Context, d download.ExternalDownload) error

	// UpdateWithOutbox persists a terminal transition together with the
	// webhook entry announcing it.
	UpdateWithOutbox(ctx context.Context, d download.ExternalDownload, entries ...*outbox.Entry) error
}
