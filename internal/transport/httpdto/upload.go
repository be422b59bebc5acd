package httpdto

import (
	"time"

	"fileflow/internal/domain/session"
)

// InitSingleUploadRequest is used for POST /uploads/single
type InitSingleUploadRequest struct {
	TenantID       string `json:"tenant_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	FileName       string `json:"file_name" binding:"required"`
	FileSize       int64  `json:"file_size" binding:"required"`
	ContentType    string `json:"content_type" binding:"required"`
}

// InitMultipartUploadRequest is used for POST /uploads/multipart
type InitMultipartUploadRequest struct {
	TenantID    string `json:"tenant_id" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	PartSize    int64  `json:"part_size" binding:"required"`
}

// CompleteSingleRequest is used for POST /uploads/:id/complete
type CompleteSingleRequest struct {
	ETag string `json:"etag" binding:"required"`
}

// ReportPartRequest is used for PUT /uploads/:id/parts/:number
type ReportPartRequest struct {
	ETag string `json:"etag" binding:"required"`
	Size int64  `json:"size"`
}

// FailSessionRequest is used for POST /uploads/:id/fail
type FailSessionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PartDTO represents one part of a multipart session in API responses
type PartDTO struct {
	PartNumber   int    `json:"part_number"`
	PresignedURL string `json:"presigned_url,omitempty"`
	ETag         string `json:"etag,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// SessionDTO represents an upload session in API responses
type SessionDTO struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id"`
	Kind          string            `json:"kind"`
	Status        string            `json:"status"`
	FileName      string            `json:"file_name"`
	FileSize      int64             `json:"file_size"`
	ContentType   string            `json:"content_type"`
	StorageBucket string            `json:"storage_bucket"`
	StorageKey    string            `json:"storage_key"`
	PresignedURL  string            `json:"presigned_url,omitempty"`
	UploadHeaders map[string]string `json:"upload_headers,omitempty"`
	ETag          string            `json:"etag,omitempty"`
	UploadID      string            `json:"upload_id,omitempty"`
	TotalParts    int               `json:"total_parts,omitempty"`
	PartSize      int64             `json:"part_size,omitempty"`
	MergedETag    string            `json:"merged_etag,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Parts         []PartDTO         `json:"parts,omitempty"`
	CreatedAt     string            `json:"created_at"`
	ExpiresAt     string            `json:"expires_at"`
	CompletedAt   string            `json:"completed_at,omitempty"`
}

// ListSessionsResponse is returned when listing a tenant's sessions
type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
	Total    int64        `json:"total"`
}

func NewSessionDTO(s session.UploadSession) SessionDTO {
	dto := SessionDTO{
		ID:            s.ID.String(),
		TenantID:      s.TenantID.String(),
		Kind:          string(s.Kind),
		Status:        string(s.Status),
		FileName:      s.FileName,
		FileSize:      s.FileSize,
		ContentType:   s.ContentType,
		StorageBucket: s.StorageBucket,
		StorageKey:    s.StorageKey,
		PresignedURL:  s.PresignedURL,
		ETag:          s.ETag,
		UploadID:      s.UploadID,
		TotalParts:    s.TotalParts,
		PartSize:      s.PartSize,
		MergedETag:    s.MergedETag,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     s.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if s.CompletedAt != nil {
		dto.CompletedAt = s.CompletedAt.UTC().Format(time.RFC3339)
	}
	for _, p := range s.Parts {
		dto.Parts = append(dto.Parts, PartDTO{
			PartNumber:   p.PartNumber,
			PresignedURL: p.PresignedURL,
			ETag:         p.ETag,
			Size:         p.Size,
		})
	}
	return dto
}
