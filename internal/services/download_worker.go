package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"time"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	"fileflow/internal/repository"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

// DownloadWorker consumes EXTERNAL_DOWNLOAD outbox entries: it fetches the
// source URL and streams the body into the object store. Terminal downloads
// are skipped so a redelivered entry stays idempotent.
type DownloadWorker struct {
	downloads repository.DownloadRepository
	store     ObjectStorage
	client    *http.Client
	clock     func() time.Time
	logger    *logger.Logger
}

func NewDownloadWorker(downloads repository.DownloadRepository, store ObjectStorage, fetchTimeout time.Duration, l *logger.Logger) *DownloadWorker {
	return &DownloadWorker{
		downloads: downloads,
		store:     store,
		client:    &http.Client{Timeout: fetchTimeout},
		clock:     time.Now,
		logger:    l,
	}
}

func (w *DownloadWorker) Kind() outbox.Kind {
	return outbox.KindExternalDownload
}

func (w *DownloadWorker) Process(ctx context.Context, entry outbox.Entry) error {
	downloadID, err := uuid.Parse(entry.PayloadRef)
	if err != nil {
		return err
	}

	d, err := w.downloads.GetByID(ctx, downloadID)
	if err != nil {
		if errors.Is(err, fileflow_errors.ErrNotFound) {
			w.logger.Warnf("download entry references missing row, skipping: entry=%s download=%s", entry.ID, entry.PayloadRef)
			return nil
		}
		return err
	}
	if d.IsTerminal() {
		return nil
	}

	contentType, err := w.fetchToStore(ctx, &d)
	if err != nil {
		return err
	}

	d.MarkCompleted(w.clock())
	if err := w.downloads.UpdateWithOutbox(ctx, d, newWebhookEntry(d)); err != nil {
		return err
	}

	w.logger.Infof("external download stored: download=%s key=%s type=%s", d.ID, d.StorageKey, contentType)
	return nil
}

// OnPermanentFailure marks the download FAILED once the retry budget is
// spent, and emits the webhook entry announcing the failure.
func (w *DownloadWorker) OnPermanentFailure(ctx context.Context, entry outbox.Entry, errMsg string) {
	downloadID, err := uuid.Parse(entry.PayloadRef)
	if err != nil {
		return
	}
	d, err := w.downloads.GetByID(ctx, downloadID)
	if err != nil || d.IsTerminal() {
		return
	}
	d.MarkFailed(errMsg)
	if err := w.downloads.UpdateWithOutbox(ctx, d, newWebhookEntry(d)); err != nil {
		w.logger.Errorf("failed to mark download failed: download=%s err=%v", d.ID, err)
	}
}

func (w *DownloadWorker) fetchToStore(ctx context.Context, d *download.ExternalDownload) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.SourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(d.FileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := w.store.PutObject(ctx, d.StorageKey, contentType, resp.Body); err != nil {
		return "", err
	}
	return contentType, nil
}

func newWebhookEntry(d download.ExternalDownload) *outbox.Entry {
	return outbox.New(outbox.KindWebhook, d.ID.String(), nil)
}
