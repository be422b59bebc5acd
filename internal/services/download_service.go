package services

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	"fileflow/internal/repository"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

// DownloadService accepts external-download requests. The fetch itself runs
// asynchronously through the outbox; this service only records the request
// and the entry that will drive it.
type DownloadService struct {
	repo   repository.DownloadRepository
	logger *logger.Logger
}

type RequestDownloadInput struct {
	TenantID   uuid.UUID
	SourceURL  string
	FileName   string
	WebhookURL string
}

func NewDownloadService(repo repository.DownloadRepository, l *logger.Logger) *DownloadService {
	return &DownloadService{repo: repo, logger: l}
}

// RequestDownload registers a PENDING download and its outbox entry in one
// transaction, then returns immediately.
func (s *DownloadService) RequestDownload(ctx context.Context, input RequestDownloadInput) (download.ExternalDownload, error) {
	if input.TenantID == uuid.Nil || input.FileName == "" {
		return download.ExternalDownload{}, fileflow_errors.ErrInvalidRequest
	}
	if err := validateHTTPURL(input.SourceURL); err != nil {
		return download.ExternalDownload{}, fmt.Errorf("%w: source url: %v", fileflow_errors.ErrInvalidRequest, err)
	}
	if input.WebhookURL != "" {
		if err := validateHTTPURL(input.WebhookURL); err != nil {
			return download.ExternalDownload{}, fmt.Errorf("%w: webhook url: %v", fileflow_errors.ErrInvalidRequest, err)
		}
	}

	d := download.ExternalDownload{
		ID:         uuid.New(),
		TenantID:   input.TenantID,
		SourceURL:  input.SourceURL,
		FileName:   input.FileName,
		StorageKey: fmt.Sprintf("downloads/%s/%s/%s", input.TenantID, uuid.New(), path.Base(input.FileName)),
		WebhookURL: input.WebhookURL,
		Status:     download.StatusPending,
	}

	entry := outbox.New(outbox.KindExternalDownload, d.ID.String(), nil)
	if err := s.repo.CreateWithOutbox(ctx, &d, entry); err != nil {
		return download.ExternalDownload{}, err
	}

	s.logger.Infof("external download accepted: download=%s source=%s", d.ID, d.SourceURL)
	return d, nil
}

func (s *DownloadService) GetByID(ctx context.Context, id uuid.UUID) (download.ExternalDownload, error) {
	return s.repo.GetByID(ctx, id)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
