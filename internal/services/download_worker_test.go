package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	"fileflow/internal/repository"
	"fileflow/internal/services"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDownloadWorker(repo *repository.MockDownloadRepository, store *services.MockObjectStorage) *services.DownloadWorker {
	return services.NewDownloadWorker(repo, store, 5*time.Second, logger.NewNop())
}

func TestDownloadWorker_Process_Success(t *testing.T) {
	// Arrange: a stub source serving the file body.
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("zip-bytes"))
	}))
	defer source.Close()

	ctx := context.Background()
	repo := repository.NewMockDownloadRepository()
	store := services.NewMockObjectStorage()
	worker := newDownloadWorker(repo, store)

	downloadID := uuid.New()
	d := download.ExternalDownload{
		ID:         downloadID,
		TenantID:   uuid.New(),
		SourceURL:  source.URL,
		FileName:   "archive.zip",
		StorageKey: "downloads/t/x/archive.zip",
		WebhookURL: "https://hooks.example.com/done",
		Status:     download.StatusPending,
	}
	repo.On("GetByID", ctx, downloadID).Return(d, nil)
	store.On("PutObject", ctx, d.StorageKey, "application/zip", mock.Anything).Return(nil)
	repo.On("UpdateWithOutbox", ctx,
		mock.MatchedBy(func(got download.ExternalDownload) bool {
			return got.Status == download.StatusCompleted && got.CompletedAt != nil
		}),
		mock.MatchedBy(func(entries []*outbox.Entry) bool {
			return len(entries) == 1 && entries[0].Kind == outbox.KindWebhook && entries[0].PayloadRef == downloadID.String()
		}),
	).Return(nil)

	// Act
	err := worker.Process(ctx, outbox.Entry{ID: uuid.New(), Kind: outbox.KindExternalDownload, PayloadRef: downloadID.String()})

	// Assert
	require.NoError(t, err)
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestDownloadWorker_Process_TerminalIsSkipped(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockDownloadRepository()
	store := services.NewMockObjectStorage()
	worker := newDownloadWorker(repo, store)

	downloadID := uuid.New()
	repo.On("GetByID", ctx, downloadID).Return(download.ExternalDownload{
		ID:     downloadID,
		Status: download.StatusCompleted,
	}, nil)

	err := worker.Process(ctx, outbox.Entry{ID: uuid.New(), PayloadRef: downloadID.String()})

	require.NoError(t, err)
	store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateWithOutbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestDownloadWorker_Process_SourceErrorIsRetryable(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer source.Close()

	ctx := context.Background()
	repo := repository.NewMockDownloadRepository()
	store := services.NewMockObjectStorage()
	worker := newDownloadWorker(repo, store)

	downloadID := uuid.New()
	repo.On("GetByID", ctx, downloadID).Return(download.ExternalDownload{
		ID:        downloadID,
		SourceURL: source.URL,
		Status:    download.StatusPending,
	}, nil)

	err := worker.Process(ctx, outbox.Entry{ID: uuid.New(), PayloadRef: downloadID.String()})

	// The error bubbles up so the dispatcher schedules a retry; the row must
	// stay PENDING.
	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateWithOutbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestDownloadWorker_OnPermanentFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockDownloadRepository()
	store := services.NewMockObjectStorage()
	worker := newDownloadWorker(repo, store)

	downloadID := uuid.New()
	repo.On("GetByID", ctx, downloadID).Return(download.ExternalDownload{
		ID:         downloadID,
		WebhookURL: "https://hooks.example.com/done",
		Status:     download.StatusPending,
	}, nil)
	repo.On("UpdateWithOutbox", ctx,
		mock.MatchedBy(func(got download.ExternalDownload) bool {
			return got.Status == download.StatusFailed && got.ErrorMessage == "source returned status 503"
		}),
		mock.MatchedBy(func(entries []*outbox.Entry) bool {
			return len(entries) == 1 && entries[0].Kind == outbox.KindWebhook
		}),
	).Return(nil)

	worker.OnPermanentFailure(ctx, outbox.Entry{ID: uuid.New(), PayloadRef: downloadID.String()}, "source returned status 503")

	repo.AssertExpectations(t)
}

func TestDownloadWorker_OnPermanentFailure_TerminalUntouched(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockDownloadRepository()
	worker := newDownloadWorker(repo, services.NewMockObjectStorage())

	downloadID := uuid.New()
	repo.On("GetByID", ctx, downloadID).Return(download.ExternalDownload{
		ID:     downloadID,
		Status: download.StatusCompleted,
	}, nil)

	worker.OnPermanentFailure(ctx, outbox.Entry{ID: uuid.New(), PayloadRef: downloadID.String()}, "late failure")

	repo.AssertNotCalled(t, "UpdateWithOutbox", mock.Anything, mock.Anything, mock.Anything)
}
