package download

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of an external download
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ExternalDownload tracks a server-side fetch of a remote URL into the
// object store. Executed asynchronously through the outbox; the worker
// treats an already-terminal row as processed and skips it.
type ExternalDownload struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null"`
	SourceURL    string    `gorm:"type:text;not null"`
	FileName     string    `gorm:"not null"`
	StorageKey   string    `gorm:"not null"`
	WebhookURL   string    `gorm:"type:text"`
	Status       Status    `gorm:"type:varchar(16);not null;default:'PENDING'"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
	UpdatedAt    time.Time `gorm:"not null;default:now()"`
	CompletedAt  *time.Time
}

func (ExternalDownload) TableName() string {
	return "external_downloads"
}

// IsTerminal reports whether the download already finished one way or the other.
func (d *ExternalDownload) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}

// MarkCompleted records success.
func (d *ExternalDownload) MarkCompleted(at time.Time) {
	d.Status = StatusCompleted
	d.CompletedAt = &at
}

// MarkFailed records the terminal error message.
func (d *ExternalDownload) MarkFailed(message string) {
	d.Status = StatusFailed
	d.ErrorMessage = message
}
