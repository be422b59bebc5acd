package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	"fileflow/internal/repository"
	"fileflow/internal/storage"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

// SessionService owns the upload session state machine for the single-upload
// variant and the shared lifecycle operations (fail, cancel, lookup).
type SessionService struct {
	repo    repository.SessionRepository
	store   ObjectStorage
	tracker SessionTracker
	ttl     time.Duration
	clock   func() time.Time
	logger  *logger.Logger
}

type InitSingleInput struct {
	TenantID       uuid.UUID
	IdempotencyKey string
	FileName       string
	FileSize       int64
	ContentType    string
}

type InitSingleResult struct {
	Session session.UploadSession
	Headers map[string]string
}

func NewSessionService(repo repository.SessionRepository, store ObjectStorage, tracker SessionTracker, ttl time.Duration, l *logger.Logger) *SessionService {
	return &SessionService{
		repo:    repo,
		store:   store,
		tracker: tracker,
		ttl:     ttl,
		clock:   time.Now,
		logger:  l,
	}
}

// InitSingle creates a single-upload session with a presigned PUT URL, or
// replays the existing session when the idempotency key already has a live
// one.
func (s *SessionService) InitSingle(ctx context.Context, input InitSingleInput) (InitSingleResult, error) {
	if input.TenantID == uuid.Nil || input.IdempotencyKey == "" || input.FileName == "" || input.ContentType == "" {
		return InitSingleResult{}, fileflow_errors.ErrInvalidRequest
	}
	if input.FileSize <= 0 {
		return InitSingleResult{}, fmt.Errorf("%w: file size must be positive", fileflow_errors.ErrInvalidRequest)
	}

	now := s.clock()

	existing, err := s.repo.GetByIdempotencyKey(ctx, input.TenantID, input.IdempotencyKey)
	if err == nil {
		// Terminal sessions are durable records; only the retention batch
		// may remove them. Replay them as-is regardless of expiry.
		if existing.IsTerminal() || existing.ExpiresAt.After(now) {
			return InitSingleResult{Session: existing}, nil
		}
		// The key points at an expired session that never finished. Release
		// the idempotency slot so the retry can allocate a fresh one.
		if err := s.repo.Delete(ctx, existing.ID); err != nil && !errors.Is(err, fileflow_errors.ErrNotFound) {
			return InitSingleResult{}, err
		}
	} else if !errors.Is(err, fileflow_errors.ErrNotFound) {
		return InitSingleResult{}, err
	}

	sessionID := uuid.New()
	storageKey := buildStorageKey("uploads", input.TenantID, sessionID, input.FileName)

	uploadURL, headers, err := s.store.PresignPut(ctx, storageKey, input.ContentType, input.FileSize)
	if err != nil {
		return InitSingleResult{}, err
	}

	sess := session.UploadSession{
		ID:             sessionID,
		TenantID:       input.TenantID,
		IdempotencyKey: input.IdempotencyKey,
		Kind:           session.KindSingle,
		FileName:       input.FileName,
		FileSize:       input.FileSize,
		ContentType:    input.ContentType,
		StorageBucket:  s.store.Bucket(),
		StorageKey:     storageKey,
		Status:         session.StatusPreparing,
		PresignedURL:   uploadURL,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := sess.Activate(); err != nil {
		return InitSingleResult{}, err
	}

	if err := s.repo.Create(ctx, &sess); err != nil {
		if errors.Is(err, fileflow_errors.ErrAlreadyExists) {
			// Lost the race against a concurrent identical request.
			replay, rerr := s.repo.GetByIdempotencyKey(ctx, input.TenantID, input.IdempotencyKey)
			if rerr != nil {
				return InitSingleResult{}, rerr
			}
			return InitSingleResult{Session: replay}, nil
		}
		return InitSingleResult{}, err
	}

	if err := s.tracker.Track(ctx, sess.ID, s.ttl); err != nil {
		s.logger.Warnf("failed to track session ttl: session=%s err=%v", sess.ID, err)
	}

	return InitSingleResult{Session: sess, Headers: headers}, nil
}

// CompleteSingle verifies the stored object against the client-reported ETag
// and finalizes the session, emitting the pipeline outbox entry in the same
// transaction. Session expiry is deliberately not rejected here.
func (s *SessionService) CompleteSingle(ctx context.Context, sessionID uuid.UUID, clientETag string) (session.UploadSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return session.UploadSession{}, err
	}
	if sess.Kind != session.KindSingle {
		return session.UploadSession{}, fileflow_errors.ErrInvalidRequest
	}
	// Reject before the store round-trip; a finished session must not
	// trigger another object lookup.
	if sess.Status != session.StatusActive {
		return session.UploadSession{}, fileflow_errors.ErrInvalidTransition
	}

	info, err := s.store.HeadObject(ctx, sess.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return session.UploadSession{}, fmt.Errorf("%w: object absent", fileflow_errors.ErrETagMismatch)
		}
		return session.UploadSession{}, err
	}
	if trimETag(info.ETag) != trimETag(clientETag) {
		return session.UploadSession{}, fileflow_errors.ErrETagMismatch
	}

	if err := sess.Complete(info.ETag, s.clock()); err != nil {
		return session.UploadSession{}, err
	}

	entry, err := newPipelineEntry(sess)
	if err != nil {
		return session.UploadSession{}, err
	}
	if err := s.repo.UpdateWithOutbox(ctx, sess, entry); err != nil {
		return session.UploadSession{}, err
	}

	if err := s.tracker.Untrack(ctx, sess.ID); err != nil {
		s.logger.Warnf("failed to untrack session ttl: session=%s err=%v", sess.ID, err)
	}

	return sess, nil
}

// Fail transitions a non-terminal session to FAILED with the given reason.
func (s *SessionService) Fail(ctx context.Context, sessionID uuid.UUID, reason string) (session.UploadSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return session.UploadSession{}, err
	}
	if err := sess.Fail(reason); err != nil {
		return session.UploadSession{}, err
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return session.UploadSession{}, err
	}
	if err := s.tracker.Untrack(ctx, sess.ID); err != nil {
		s.logger.Warnf("failed to untrack session ttl: session=%s err=%v", sess.ID, err)
	}
	return sess, nil
}

// Cancel is the client-facing cancellation primitive.
func (s *SessionService) Cancel(ctx context.Context, sessionID uuid.UUID) (session.UploadSession, error) {
	return s.Fail(ctx, sessionID, "cancelled")
}

func (s *SessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (session.UploadSession, error) {
	return s.repo.GetByID(ctx, sessionID)
}

func (s *SessionService) ListByTenant(ctx context.Context, tenantID uuid.UUID, status session.Status, page, limit int) ([]session.UploadSession, int64, error) {
	return s.repo.ListByTenant(ctx, tenantID, status, page, limit)
}

// DeleteStale purges FAILED and EXPIRED sessions older than the given age.
// Retention housekeeping only; live and completed sessions are never touched.
func (s *SessionService) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fileflow_errors.ErrInvalidRequest
	}
	return s.repo.DeleteStaleSessions(ctx, olderThan)
}

func newPipelineEntry(sess session.UploadSession) (*outbox.Entry, error) {
	payload, err := json.Marshal(PipelinePayload{
		SessionID:     sess.ID.String(),
		TenantID:      sess.TenantID.String(),
		FileName:      sess.FileName,
		ContentType:   sess.ContentType,
		StorageBucket: sess.StorageBucket,
		StorageKey:    sess.StorageKey,
	})
	if err != nil {
		return nil, err
	}
	return outbox.New(outbox.KindPipeline, sess.ID.String(), payload), nil
}

func buildStorageKey(prefix string, tenantID, sessionID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s/%s", prefix, tenantID, sessionID, path.Base(fileName))
}

func trimETag(etag string) string {
	return strings.Trim(etag, "\"")
}
