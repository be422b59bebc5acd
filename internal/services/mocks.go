package services

import (
	"context"
	"io"
	"time"

	"fileflow/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockObjectStorage is a testify mock of ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func NewMockObjectStorage() *MockObjectStorage {
	return &MockObjectStorage{}
}

func (m *MockObjectStorage) Bucket() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockObjectStorage) PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (string, map[string]string, error) {
	args := m.Called(ctx, key, contentType, sizeBytes)
	headers, _ := args.Get(1).(map[string]string)
	return args.String(0), headers, args.Error(2)
}

func (m *MockObjectStorage) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int) (string, error) {
	args := m.Called(ctx, key, uploadID, partNumber)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []storage.Part) (string, error) {
	args := m.Called(ctx, key, uploadID, parts)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) HeadObject(ctx context.Context, key string) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockObjectStorage) PutObject(ctx context.Context, key, contentType string, body io.Reader) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockObjectStorage) FileURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// MockSessionTracker is a testify mock of SessionTracker.
type MockSessionTracker struct {
	mock.Mock
}

func NewMockSessionTracker() *MockSessionTracker {
	return &MockSessionTracker{}
}

func (m *MockSessionTracker) Track(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, ttl)
	return args.Error(0)
}

func (m *MockSessionTracker) Untrack(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
