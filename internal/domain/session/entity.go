package session

import (
	"time"

	fileflow_errors "fileflow/pkg/errors"

	"github.com/google/uuid"
)

// Kind discriminates the two upload variants sharing one envelope.
type Kind string

const (
	KindSingle    Kind = "SINGLE"
	KindMultipart Kind = "MULTIPART"
)

// Status represents the lifecycle state of an upload session
type Status string

const (
	StatusPreparing Status = "PREPARING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// UploadSession represents upload_sessions. Single and Multipart variants
// share the envelope; variant-specific columns stay zero for the other kind.
type UploadSession struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_tenant_idem,priority:1"`
	IdempotencyKey string    `gorm:"not null;uniqueIndex:idx_sessions_tenant_idem,priority:2"`
	Kind           Kind      `gorm:"type:varchar(16);not null"`
	FileName       string    `gorm:"not null"`
	FileSize       int64     `gorm:"not null"`
	ContentType    string    `gorm:"not null"`
	StorageBucket  string    `gorm:"not null"`
	StorageKey     string    `gorm:"not null"`
	Status         Status    `gorm:"type:varchar(16);not null;default:'PREPARING'"`
	FailureReason  string    `gorm:"type:text"`

	// Single-only
	PresignedURL string `gorm:"type:text"`
	ETag         string

	// Multipart-only
	UploadID   string
	TotalParts int
	PartSize   int64
	MergedETag string
	Parts      []CompletedPart `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	CreatedAt   time.Time `gorm:"not null;default:now()"`
	UpdatedAt   time.Time `gorm:"not null;default:now()"`
	ExpiresAt   time.Time `gorm:"not null"`
	CompletedAt *time.Time
}

func (UploadSession) TableName() string {
	return "upload_sessions"
}

// Activate issues the PREPARING -> ACTIVE edge.
func (s *UploadSession) Activate() error {
	if s.Status != StatusPreparing {
		return fileflow_errors.ErrInvalidTransition
	}
	s.Status = StatusActive
	return nil
}

// Complete transitions the session to COMPLETED and records the verified
// ETag (single) or merged ETag (multipart). Expiry is deliberately not
// checked here: an object that landed in the store just past the logical
// deadline must not be orphaned.
func (s *UploadSession) Complete(etag string, at time.Time) error {
	if s.Status != StatusActive {
		return fileflow_errors.ErrInvalidTransition
	}
	s.Status = StatusCompleted
	s.CompletedAt = &at
	if s.Kind == KindMultipart {
		s.MergedETag = etag
	} else {
		s.ETag = etag
	}
	return nil
}

// Fail transitions PREPARING/ACTIVE to FAILED with a reason.
func (s *UploadSession) Fail(reason string) error {
	if s.Status.IsTerminal() {
		return fileflow_errors.ErrInvalidTransition
	}
	s.Status = StatusFailed
	s.FailureReason = reason
	return nil
}

// Expire transitions PREPARING/ACTIVE to EXPIRED.
func (s *UploadSession) Expire() error {
	if s.Status.IsTerminal() {
		return fileflow_errors.ErrInvalidTransition
	}
	s.Status = StatusExpired
	return nil
}

// IsTerminal reports whether the session has reached a terminal state.
func (s *UploadSession) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// CompletedPart is owned by a multipart session. A shell is created per part
// at init time (URL assigned, etag unset); the etag/size land when the client
// reports the part uploaded.
type CompletedPart struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_parts_session_number,priority:1"`
	PartNumber   int       `gorm:"not null;uniqueIndex:idx_parts_session_number,priority:2"`
	PresignedURL string    `gorm:"type:text;not null"`
	ETag         string
	Size         int64
	UploadedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

func (CompletedPart) TableName() string {
	return "upload_session_parts"
}

// Report records the client-reported etag and size. A duplicate report is a
// no-op, never an overwrite; it returns false when nothing changed.
func (p *CompletedPart) Report(etag string, size int64, at time.Time) bool {
	if p.ETag != "" {
		return false
	}
	p.ETag = etag
	p.Size = size
	p.UploadedAt = &at
	return true
}

// IsUploaded reports whether the client has reported this part.
func (p *CompletedPart) IsUploaded() bool {
	return p.ETag != ""
}
