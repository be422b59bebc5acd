package httpdto

import (
	"time"

	"fileflow/internal/domain/download"
)

// RequestDownloadRequest is used for POST /downloads
type RequestDownloadRequest struct {
	TenantID   string `json:"tenant_id" binding:"required"`
	SourceURL  string `json:"source_url" binding:"required"`
	FileName   string `json:"file_name" binding:"required"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// DownloadDTO represents an external download in API responses
type DownloadDTO struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	SourceURL    string `json:"source_url"`
	FileName     string `json:"file_name"`
	StorageKey   string `json:"storage_key"`
	WebhookURL   string `json:"webhook_url,omitempty"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

func NewDownloadDTO(d download.ExternalDownload) DownloadDTO {
	dto := DownloadDTO{
		ID:           d.ID.String(),
		TenantID:     d.TenantID.String(),
		SourceURL:    d.SourceURL,
		FileName:     d.FileName,
		StorageKey:   d.StorageKey,
		WebhookURL:   d.WebhookURL,
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.CompletedAt != nil {
		dto.CompletedAt = d.CompletedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
