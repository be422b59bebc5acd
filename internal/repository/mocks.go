package repository

import (
	"context"
	"time"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a testify mock of SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

func (m *MockSessionRepository) Create(ctx context.Context, s *session.UploadSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (session.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(session.UploadSession), args.Error(1)
}

func (m *MockSessionRepository) GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (session.UploadSession, error) {
	args := m.Called(ctx, tenantID, key)
	return args.Get(0).(session.UploadSession), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, s session.UploadSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, status session.Status, page, limit int) ([]session.UploadSession, int64, error) {
	args := m.Called(ctx, tenantID, status, page, limit)
	return args.Get(0).([]session.UploadSession), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) UpdateWithOutbox(ctx context.Context, s session.UploadSession, entries ...*outbox.Entry) error {
	args := m.Called(ctx, s, entries)
	return args.Error(0)
}

func (m *MockSessionRepository) GetPart(ctx context.Context, sessionID uuid.UUID, partNumber int) (session.CompletedPart, error) {
	args := m.Called(ctx, sessionID, partNumber)
	return args.Get(0).(session.CompletedPart), args.Error(1)
}

func (m *MockSessionRepository) GetParts(ctx context.Context, sessionID uuid.UUID) ([]session.CompletedPart, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]session.CompletedPart), args.Error(1)
}

func (m *MockSessionRepository) UpdatePart(ctx context.Context, p session.CompletedPart) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockOutboxRepository is a testify mock of OutboxRepository.
type MockOutboxRepository struct {
	mock.Mock
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, e *outbox.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (outbox.Entry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(outbox.Entry), args.Error(1)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, kind outbox.Kind, limit int) ([]outbox.Entry, error) {
	args := m.Called(ctx, kind, limit)
	return args.Get(0).([]outbox.Entry), args.Error(1)
}

func (m *MockOutboxRepository) GetRetryableFailed(ctx context.Context, kind outbox.Kind, maxRetries int, updatedBefore time.Time, limit int) ([]outbox.Entry, error) {
	args := m.Called(ctx, kind, maxRetries, updatedBefore, limit)
	return args.Get(0).([]outbox.Entry), args.Error(1)
}

func (m *MockOutboxRepository) GetStaleProcessing(ctx context.Context, kind outbox.Kind, updatedBefore time.Time, limit int) ([]outbox.Entry, error) {
	args := m.Called(ctx, kind, updatedBefore, limit)
	return args.Get(0).([]outbox.Entry), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkPermanentlyFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

// MockDownloadRepository is a testify mock of DownloadRepository.
type MockDownloadRepository struct {
	mock.Mock
}

func NewMockDownloadRepository() *MockDownloadRepository {
	return &MockDownloadRepository{}
}

func (m *MockDownloadRepository) CreateWithOutbox(ctx context.Context, d *download.ExternalDownload, e *outbox.Entry) error {
	args := m.Called(ctx, d, e)
	return args.Error(0)
}

func (m *MockDownloadRepository) GetByID(ctx context.Context, id uuid.UUID) (download.ExternalDownload, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(download.ExternalDownload), args.Error(1)
}

func (m *MockDownloadRepository) Update(ctx context.Context, d download.ExternalDownload) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDownloadRepository) UpdateWithOutbox(ctx context.Context, d download.ExternalDownload, entries ...*outbox.Entry) error {
	args := m.Called(ctx, d, entries)
	return args.Error(0)
}
