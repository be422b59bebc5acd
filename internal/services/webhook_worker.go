package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	"fileflow/internal/repository"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

// WebhookWorker consumes WEBHOOK outbox entries: it POSTs the download's
// terminal status to its registered webhook URL. A non-2xx response is an
// error so the dispatcher retries delivery.
type WebhookWorker struct {
	downloads repository.DownloadRepository
	store     ObjectStorage
	client    *http.Client
	clock     func() time.Time
	logger    *logger.Logger
}

func NewWebhookWorker(downloads repository.DownloadRepository, store ObjectStorage, timeout time.Duration, l *logger.Logger) *WebhookWorker {
	return &WebhookWorker{
		downloads: downloads,
		store:     store,
		client:    &http.Client{Timeout: timeout},
		clock:     time.Now,
		logger:    l,
	}
}

func (w *WebhookWorker) Kind() outbox.Kind {
	return outbox.KindWebhook
}

func (w *WebhookWorker) Process(ctx context.Context, entry outbox.Entry) error {
	downloadID, err := uuid.Parse(entry.PayloadRef)
	if err != nil {
		return err
	}

	d, err := w.downloads.GetByID(ctx, downloadID)
	if err != nil {
		if errors.Is(err, fileflow_errors.ErrNotFound) {
			w.logger.Warnf("webhook entry references missing download, skipping: entry=%s download=%s", entry.ID, entry.PayloadRef)
			return nil
		}
		return err
	}
	if d.WebhookURL == "" {
		return nil
	}

	payload := WebhookPayload{
		DownloadID:   d.ID.String(),
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		Timestamp:    w.clock().UTC(),
	}
	if d.Status == download.StatusCompleted {
		payload.FileURL = w.store.FileURL(d.StorageKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	w.logger.Infof("webhook delivered: download=%s status=%s url=%s", d.ID, d.Status, d.WebhookURL)
	return nil
}
