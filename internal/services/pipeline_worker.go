package services

import (
	"context"
	"encoding/json"
	"errors"

	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	"fileflow/internal/repository"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

// PipelineRunner hands a completed upload to the downstream processing
// collaborator. A returned error marks the entry for retry.
type PipelineRunner interface {
	Run(ctx context.Context, payload PipelinePayload) error
}

// PipelineRunnerFunc adapts a function to PipelineRunner.
type PipelineRunnerFunc func(ctx context.Context, payload PipelinePayload) error

func (f PipelineRunnerFunc) Run(ctx context.Context, payload PipelinePayload) error {
	return f(ctx, payload)
}

// PipelineWorker consumes PIPELINE outbox entries. Entries whose session has
// vanished or is no longer COMPLETED are treated as processed, not failed:
// the trigger condition no longer holds and retrying cannot restore it.
type PipelineWorker struct {
	sessions repository.SessionRepository
	runner   PipelineRunner
	logger   *logger.Logger
}

func NewPipelineWorker(sessions repository.SessionRepository, runner PipelineRunner, l *logger.Logger) *PipelineWorker {
	return &PipelineWorker{sessions: sessions, runner: runner, logger: l}
}

func (w *PipelineWorker) Kind() outbox.Kind {
	return outbox.KindPipeline
}

func (w *PipelineWorker) Process(ctx context.Context, entry outbox.Entry) error {
	var payload PipelinePayload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return err
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return err
	}

	sess, err := w.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, fileflow_errors.ErrNotFound) {
			w.logger.Warnf("pipeline entry references missing session, skipping: entry=%s session=%s", entry.ID, payload.SessionID)
			return nil
		}
		return err
	}
	if sess.Status != session.StatusCompleted {
		w.logger.Warnf("pipeline entry references non-completed session, skipping: entry=%s session=%s status=%s", entry.ID, sess.ID, sess.Status)
		return nil
	}

	return w.runner.Run(ctx, payload)
}
