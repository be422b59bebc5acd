package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects the worker that consumes an entry.
type Kind string

const (
	KindPipeline         Kind = "PIPELINE"
	KindExternalDownload Kind = "EXTERNAL_DOWNLOAD"
	KindWebhook          Kind = "WEBHOOK"
)

// Status represents the processing state of an outbox entry
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusProcessing        Status = "PROCESSING"
	StatusCompleted         Status = "COMPLETED"
	StatusFailed            Status = "FAILED"
	StatusPermanentlyFailed Status = "PERMANENTLY_FAILED"
)

// Entry stores durable work items awaiting dispatch. All three kinds share
// one table and one lifecycle; an entry is written in the same transaction
// as the domain change that produced it.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind       Kind      `gorm:"type:varchar(32);not null;index:idx_outbox_kind_status,priority:1"`
	PayloadRef string    `gorm:"type:varchar(64);not null"`
	Payload    []byte    `gorm:"type:jsonb"`
	Status     Status    `gorm:"type:varchar(32);not null;default:'PENDING';index:idx_outbox_kind_status,priority:2"`
	RetryCount int       `gorm:"default:0"`
	LastError  string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
	UpdatedAt  time.Time `gorm:"not null;default:now()"`
}

// TableName returns the database table name
func (Entry) TableName() string {
	return "outbox_entries"
}

// New builds a PENDING entry for the given kind and payload reference.
func New(kind Kind, payloadRef string, payload []byte) *Entry {
	return &Entry{
		ID:         uuid.New(),
		Kind:       kind,
		PayloadRef: payloadRef,
		Payload:    payload,
		Status:     StatusPending,
	}
}

// IsTerminal reports whether the entry will never be dispatched again.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusPermanentlyFailed
}
