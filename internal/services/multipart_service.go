package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fileflow/internal/domain/session"
	"fileflow/internal/repository"
	"fileflow/internal/storage"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

// MultipartService coordinates the part-URL fan-out and the final merge
// call. Parts are independently retryable by the client; the only ordering
// guarantee is the ascending sort applied immediately before the merge.
type MultipartService struct {
	repo     repository.SessionRepository
	store    ObjectStorage
	tracker  SessionTracker
	ttl      time.Duration
	maxParts int
	clock    func() time.Time
	logger   *logger.Logger
}

type InitMultipartInput struct {
	TenantID    uuid.UUID
	FileName    string
	FileSize    int64
	ContentType string
	PartSize    int64
}

func NewMultipartService(repo repository.SessionRepository, store ObjectStorage, tracker SessionTracker, ttl time.Duration, maxParts int, l *logger.Logger) *MultipartService {
	return &MultipartService{
		repo:     repo,
		store:    store,
		tracker:  tracker,
		ttl:      ttl,
		maxParts: maxParts,
		clock:    time.Now,
		logger:   l,
	}
}

// InitMultipart registers a multipart session: asks the store for an upload
// id, then eagerly presigns one PUT URL per part and records them as part
// shells with the etag unset.
func (s *MultipartService) InitMultipart(ctx context.Context, input InitMultipartInput) (session.UploadSession, error) {
	if input.TenantID == uuid.Nil || input.FileName == "" || input.ContentType == "" {
		return session.UploadSession{}, fileflow_errors.ErrInvalidRequest
	}
	if input.FileSize <= 0 || input.PartSize <= 0 {
		return session.UploadSession{}, fmt.Errorf("%w: file size and part size must be positive", fileflow_errors.ErrInvalidRequest)
	}

	totalParts := int((input.FileSize + input.PartSize - 1) / input.PartSize)
	if totalParts > s.maxParts {
		return session.UploadSession{}, fmt.Errorf("%w: part count %d exceeds limit %d", fileflow_errors.ErrInvalidRequest, totalParts, s.maxParts)
	}

	now := s.clock()
	sessionID := uuid.New()
	storageKey := buildStorageKey("uploads", input.TenantID, sessionID, input.FileName)

	uploadID, err := s.store.InitiateMultipartUpload(ctx, storageKey, input.ContentType)
	if err != nil {
		return session.UploadSession{}, err
	}

	sess := session.UploadSession{
		ID:             sessionID,
		TenantID:       input.TenantID,
		IdempotencyKey: uuid.NewString(),
		Kind:           session.KindMultipart,
		FileName:       input.FileName,
		FileSize:       input.FileSize,
		ContentType:    input.ContentType,
		StorageBucket:  s.store.Bucket(),
		StorageKey:     storageKey,
		Status:         session.StatusPreparing,
		UploadID:       uploadID,
		TotalParts:     totalParts,
		PartSize:       input.PartSize,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}

	for partNumber := 1; partNumber <= totalParts; partNumber++ {
		partURL, err := s.store.PresignUploadPart(ctx, storageKey, uploadID, partNumber)
		if err != nil {
			return session.UploadSession{}, err
		}
		sess.Parts = append(sess.Parts, session.CompletedPart{
			ID:           uuid.New(),
			SessionID:    sessionID,
			PartNumber:   partNumber,
			PresignedURL: partURL,
			CreatedAt:    now,
		})
	}

	if err := sess.Activate(); err != nil {
		return session.UploadSession{}, err
	}
	if err := s.repo.Create(ctx, &sess); err != nil {
		return session.UploadSession{}, err
	}

	if err := s.tracker.Track(ctx, sess.ID, s.ttl); err != nil {
		s.logger.Warnf("failed to track session ttl: session=%s err=%v", sess.ID, err)
	}

	return sess, nil
}

// MarkPartUploaded records the client-reported etag and size on a part
// shell. A duplicate report is a no-op. Aggregate progress is deliberately
// not computed here: it is racy under concurrent part uploads and the client
// can derive it from the parts it has sent itself.
func (s *MultipartService) MarkPartUploaded(ctx context.Context, sessionID uuid.UUID, partNumber int, eTag string, size int64) error {
	part, err := s.repo.GetPart(ctx, sessionID, partNumber)
	if err != nil {
		return err
	}
	if !part.Report(trimETag(eTag), size, s.clock()) {
		return nil
	}
	return s.repo.UpdatePart(ctx, part)
}

// CompleteMultipart verifies that every part reported an etag and issues the
// store's merge call with the parts in strictly ascending order.
func (s *MultipartService) CompleteMultipart(ctx context.Context, sessionID uuid.UUID) (session.UploadSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return session.UploadSession{}, err
	}
	if sess.Kind != session.KindMultipart {
		return session.UploadSession{}, fileflow_errors.ErrInvalidRequest
	}
	// Reject before touching the store; re-issuing the merge call against
	// a finished upload is not safe.
	if sess.Status != session.StatusActive {
		return session.UploadSession{}, fileflow_errors.ErrInvalidTransition
	}

	parts, err := s.repo.GetParts(ctx, sessionID)
	if err != nil {
		return session.UploadSession{}, err
	}
	if len(parts) != sess.TotalParts {
		return session.UploadSession{}, fmt.Errorf("%w: have %d of %d parts", fileflow_errors.ErrIncompleteUpload, len(parts), sess.TotalParts)
	}
	for _, p := range parts {
		if !p.IsUploaded() {
			return session.UploadSession{}, fmt.Errorf("%w: part %d has no etag", fileflow_errors.ErrIncompleteUpload, p.PartNumber)
		}
	}

	// The store rejects merge requests whose parts are not strictly
	// ascending; sort here rather than trusting insertion order.
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })

	merge := make([]storage.Part, 0, len(parts))
	for _, p := range parts {
		merge = append(merge, storage.Part{PartNumber: p.PartNumber, ETag: p.ETag})
	}

	mergedETag, err := s.store.CompleteMultipartUpload(ctx, sess.StorageKey, sess.UploadID, merge)
	if err != nil {
		return session.UploadSession{}, err
	}

	if err := sess.Complete(mergedETag, s.clock()); err != nil {
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
