package services

import "time"

// PipelinePayload is the outbox payload emitted when a session completes.
// The pipeline worker hands it to the processing collaborator.
type PipelinePayload struct {
	SessionID     string `json:"session_id"`
	TenantID      string `json:"tenant_id"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	StorageBucket string `json:"storage_bucket"`
	StorageKey    string `json:"storage_key"`
}

// WebhookPayload is the JSON body delivered to a download's webhook target.
type WebhookPayload struct {
	DownloadID   string    `json:"downloadId"`
	Status       string    `json:"status"`
	FileURL      string    `json:"fileUrl,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
