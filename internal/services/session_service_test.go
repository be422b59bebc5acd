package services_test

import (
	"context"
	"testing"
	"time"

	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	"fileflow/internal/repository"
	"fileflow/internal/services"
	"fileflow/internal/storage"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSessionService(repo *repository.MockSessionRepository, store *services.MockObjectStorage, tracker *services.MockSessionTracker) *services.SessionService {
	return services.NewSessionService(repo, store, tracker, 15*time.Minute, logger.NewNop())
}

func validInitSingleInput() services.InitSingleInput {
	return services.InitSingleInput{
		TenantID:       uuid.New(),
		IdempotencyKey: "client-key-1",
		FileName:       "report.pdf",
		FileSize:       2048,
		ContentType:    "application/pdf",
	}
}

func TestSessionService_InitSingle_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	tracker := services.NewMockSessionTracker()
	svc := newSessionService(repo, store, tracker)
	input := validInitSingleInput()

	repo.On("GetByIdempotencyKey", ctx, input.TenantID, input.IdempotencyKey).
		Return(session.UploadSession{}, fileflow_errors.ErrNotFound)
	store.On("PresignPut", ctx, mock.Anything, input.ContentType, input.FileSize).
		Return("https://store.example/put", map[string]string{"Content-Type": input.ContentType}, nil)
	store.On("Bucket").Return("fileflow-uploads")
	repo.On("Create", ctx, mock.AnythingOfType("*session.UploadSession")).Return(nil)
	tracker.On("Track", ctx, mock.Anything, 15*time.Minute).Return(nil)

	// Act
	result, err := svc.InitSingle(ctx, input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, result.Session.Status)
	assert.Equal(t, session.KindSingle, result.Session.Kind)
	assert.Equal(t, "https://store.example/put", result.Session.PresignedURL)
	assert.Equal(t, input.ContentType, result.Headers["Content-Type"])
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), result.Session.ExpiresAt, time.Minute)
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
	tracker.AssertExpectations(t)
}

func TestSessionService_InitSingle_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService(repository.NewMockSessionRepository(), services.NewMockObjectStorage(), services.NewMockSessionTracker())

	cases := map[string]func(*services.InitSingleInput){
		"missing tenant":          func(i *services.InitSingleInput) { i.TenantID = uuid.Nil },
		"missing idempotency key": func(i *services.InitSingleInput) { i.IdempotencyKey = "" },
		"missing file name":       func(i *services.InitSingleInput) { i.FileName = "" },
		"missing content type":    func(i *services.InitSingleInput) { i.ContentType = "" },
		"zero file size":          func(i *services.InitSingleInput) { i.FileSize = 0 },
		"negative file size":      func(i *services.InitSingleInput) { i.FileSize = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInitSingleInput()
			mutate(&input)
			_, err := svc.InitSingle(ctx, input)
			assert.ErrorIs(t, err, fileflow_errors.ErrInvalidRequest)
		})
	}
}

func TestSessionService_InitSingle_ReplaysLiveSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	tracker := services.NewMockSessionTracker()
	svc := newSessionService(repo, store, tracker)
	input := validInitSingleInput()

	existing := session.UploadSession{
		ID:             uuid.New(),
		TenantID:       input.TenantID,
		IdempotencyKey: input.IdempotencyKey,
		Status:         session.StatusActive,
		PresignedURL:   "https://store.example/existing",
		ExpiresAt:      time.Now().Add(10 * time.Minute),
	}
	repo.On("GetByIdempotencyKey", ctx, input.TenantID, input.IdempotencyKey).Return(existing, nil)

	// Act
	result, err := svc.InitSingle(ctx, input)

	// Assert: the live session comes back untouched, nothing new is allocated.
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.Session.ID)
	assert.Equal(t, "https://store.example/existing", result.Session.PresignedURL)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "PresignPut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_InitSingle_ExpiredKeyAllocatesFresh(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	tracker := services.NewMockSessionTracker()
	svc := newSessionService(repo, store, tracker)
	input := validInitSingleInput()

	existing := session.UploadSession{
		ID:        uuid.New(),
		TenantID:  input.TenantID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	repo.On("GetByIdempotencyKey", ctx, input.TenantID, input.IdempotencyKey).Return(existing, nil)
	repo.On("Delete", ctx, existing.ID).Return(nil)
	store.On("PresignPut", ctx, mock.Anything, input.ContentType, input.FileSize).
		Return("https://store.example/fresh", map[string]string(nil), nil)
	store.On("Bucket").Return("fileflow-uploads")
	repo.On("Create", ctx, mock.AnythingOfType("*session.UploadSession")).Return(nil)
	tracker.On("Track", ctx, mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := svc.InitSingle(ctx, input)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, result.Session.ID)
	repo.AssertCalled(t, "Delete", ctx, existing.ID)
	repo.AssertExpectations(t)
}

func TestSessionService_InitSingle_TerminalSessionSurvivesReplay(t *testing.T) {
	// A finished session is the durable record tying the stored object to
	// its tenant. Replaying its key after the upload window closed must
	// return it untouched, never reclaim the slot.
	ctx := context.Background()

	for _, status := range []session.Status{session.StatusCompleted, session.StatusFailed, session.StatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			// Arrange
			repo := repository.NewMockSessionRepository()
			store := services.NewMockObjectStorage()
			tracker := services.NewMockSessionTracker()
			svc := newSessionService(repo, store, tracker)
			input := validInitSingleInput()

			existing := session.UploadSession{
				ID:             uuid.New(),
				TenantID:       input.TenantID,
				IdempotencyKey: input.IdempotencyKey,
				Kind:           session.KindSingle,
				Status:         status,
				ETag:           `"abc123"`,
				ExpiresAt:      time.Now().Add(-time.Hour),
			}
			repo.On("GetByIdempotencyKey", ctx, input.TenantID, input.IdempotencyKey).Return(existing, nil)

			// Act
			result, err := svc.InitSingle(ctx, input)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, existing.ID, result.Session.ID)
			assert.Equal(t, status, result.Session.Status)
			repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "PresignPut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSessionService_CompleteSingle_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	tracker := services.NewMockSessionTracker()
	svc := newSessionService(repo, store, tracker)

	sessionID := uuid.New()
	sess := session.UploadSession{
		ID:         sessionID,
		TenantID:   uuid.New(),
		Kind:       session.KindSingle,
		Status:     session.StatusActive,
		StorageKey: "uploads/t/s/report.pdf",
	}
	repo.On("GetByID", ctx, sessionID).Return(sess, nil)
	store.On("HeadObject", ctx, sess.StorageKey).
		Return(storage.ObjectInfo{ETag: `"abc123"`, ContentLength: 2048}, nil)
	repo.On("UpdateWithOutbox", ctx, mock.MatchedBy(func(s session.UploadSession) bool {
		return s.Status == session.StatusCompleted && s.ETag == `"abc123"`
	}), mock.MatchedBy(func(entries []*outbox.Entry) bool {
		return len(entries) == 1 && entries[0].Kind == outbox.KindPipeline && entries[0].PayloadRef == sessionID.String()
	})).Return(nil)
	tracker.On("Untrack", ctx, sessionID).Return(nil)

	// Act
	got, err := svc.CompleteSingle(ctx, sessionID, "abc123")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, got.Status)
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSessionService_CompleteSingle_ETagMismatch(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	svc := newSessionService(repo, store, services.NewMockSessionTracker())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Kind:   session.KindSingle,
		Status: session.StatusActive,
	}, nil)
	store.On("HeadObject", ctx, mock.Anything).Return(storage.ObjectInfo{ETag: `"stored"`}, nil)

	_, err := svc.CompleteSingle(ctx, sessionID, "reported")

	assert.ErrorIs(t, err, fileflow_errors.ErrETagMismatch)
	repo.AssertNotCalled(t, "UpdateWithOutbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_CompleteSingle_ObjectMissing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	svc := newSessionService(repo, store, services.NewMockSessionTracker())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Kind:   session.KindSingle,
		Status: session.StatusActive,
	}, nil)
	store.On("HeadObject", ctx, mock.Anything).Return(storage.ObjectInfo{}, storage.ErrObjectNotFound)

	_, err := svc.CompleteSingle(ctx, sessionID, "abc")

	assert.ErrorIs(t, err, fileflow_errors.ErrETagMismatch)
}

func TestSessionService_CompleteSingle_IgnoresExpiry(t *testing.T) {
	// A session past its logical deadline still completes when the object is
	// already in the store; failing it here would orphan the bytes.
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	tracker := services.NewMockSessionTracker()
	svc := newSessionService(repo, store, tracker)

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:        sessionID,
		Kind:      session.KindSingle,
		Status:    session.StatusActive,
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)
	store.On("HeadObject", ctx, mock.Anything).Return(storage.ObjectInfo{ETag: "abc"}, nil)
	repo.On("UpdateWithOutbox", ctx, mock.Anything, mock.Anything).Return(nil)
	tracker.On("Untrack", ctx, sessionID).Return(nil)

	got, err := svc.CompleteSingle(ctx, sessionID, "abc")

	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, got.Status)
}

func TestSessionService_CompleteSingle_RejectsMultipartSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	svc := newSessionService(repo, services.NewMockObjectStorage(), services.NewMockSessionTracker())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:   sessionID,
		Kind: session.KindMultipart,
	}, nil)

	_, err := svc.CompleteSingle(ctx, sessionID, "abc")

	assert.ErrorIs(t, err, fileflow_errors.ErrInvalidRequest)
}

func TestSessionService_CompleteSingle_AlreadyCompleted(t *testing.T) {
	// A second completion must be rejected before any store round-trip.
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	store := services.NewMockObjectStorage()
	svc := newSessionService(repo, store, services.NewMockSessionTracker())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Kind:   session.KindSingle,
		Status: session.StatusCompleted,
		ETag:   `"abc123"`,
	}, nil)

	_, err := svc.CompleteSingle(ctx, sessionID, "abc123")

	assert.ErrorIs(t, err, fileflow_errors.ErrInvalidTransition)
	store.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateWithOutbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_Fail_TerminalSessionRejected(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	svc := newSessionService(repo, services.NewMockObjectStorage(), services.NewMockSessionTracker())

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Status: session.StatusCompleted,
	}, nil)

	_, err := svc.Fail(ctx, sessionID, "whatever")

	assert.ErrorIs(t, err, fileflow_errors.ErrInvalidTransition)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSessionService_Cancel(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSessionRepository()
	tracker := services.NewMockSessionTracker()
	svc := newSessionService(repo, services.NewMockObjectStorage(), tracker)

	sessionID := uuid.New()
	repo.On("GetByID", ctx, sessionID).Return(session.UploadSession{
		ID:     sessionID,
		Status: session.StatusActive,
	}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(s session.UploadSession) bool {
		return s.Status == session.StatusFailed && s.FailureReason == "cancelled"
	})).Return(nil)
	tracker.On("Untrack", ctx, sessionID).Return(nil)

	got, err := svc.Cancel(ctx, sessionID)

	require.NoError(t, err)
	assert.Equal(t, session.StatusFailed, got.Status)
	repo.AssertExpectations(t)
}
