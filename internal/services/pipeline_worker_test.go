package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	"fileflow/internal/repository"
	"fileflow/internal/services"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineEntry(t *testing.T, sessionID uuid.UUID) outbox.Entry {
	t.Helper()
	payload, err := json.Marshal(services.PipelinePayload{
		SessionID:  sessionID.String(),
		TenantID:   uuid.NewString(),
		FileName:   "report.pdf",
		StorageKey: "uploads/t/s/report.pdf",
	})
	require.NoError(t, err)
	return outbox.Entry{ID: uuid.New(), Kind: outbox.KindPipeline, PayloadRef: sessionID.String(), Payload: payload}
}

func TestPipelineWorker_Process_RunsForCompletedSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()

	var ran bool
	worker := services.NewPipelineWorker(repo, services.PipelineRunnerFunc(func(ctx context.Context, p services.PipelinePayload) error {
		ran = true
		assert.Equal(t, "report.pdf", p.FileName)
		return nil
	}), logger.NewNop())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Status: session.StatusCompleted,
	}, nil)

	err := worker.Process(ctx, pipelineEntry(t, sessionID))

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestPipelineWorker_Process_SkipsMissingSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	worker := services.NewPipelineWorker(repo, services.PipelineRunnerFunc(func(context.Context, services.PipelinePayload) error {
		t.Fatal("runner must not be called")
		return nil
	}), logger.NewNop())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{}, fileflow_errors.ErrNotFound)

	// A vanished session is treated as processed, not retried forever.
	require.NoError(t, worker.Process(ctx, pipelineEntry(t, sessionID)))
}

func TestPipelineWorker_Process_SkipsNonCompletedSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	worker := services.NewPipelineWorker(repo, services.PipelineRunnerFunc(func(context.Context, services.PipelinePayload) error {
		t.Fatal("runner must not be called")
		return nil
	}), logger.NewNop())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Status: session.StatusFailed,
	}, nil)

	require.NoError(t, worker.Process(ctx, pipelineEntry(t, sessionID)))
}
