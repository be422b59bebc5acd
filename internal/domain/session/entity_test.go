package session_test

import (
	"testing"
	"time"

	"fileflow/internal/domain/session"
	fileflow_errors "fileflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSession_Activate(t *testing.T) {
	s := session.UploadSession{Status: session.StatusPreparing}

	require.NoError(t, s.Activate())
	assert.Equal(t, session.StatusActive, s.Status)

	assert.ErrorIs(t, s.Activate(), fileflow_errors.ErrInvalidTransition)
}

func TestUploadSession_Complete_Single(t *testing.T) {
	now := time.Now()
	s := session.UploadSession{Kind: session.KindSingle, Status: session.StatusActive}

	require.NoError(t, s.Complete("abc123", now))
	assert.Equal(t, session.StatusCompleted, s.Status)
	assert.Equal(t, "abc123", s.ETag)
	assert.Empty(t, s.MergedETag)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, now, *s.CompletedAt)
}

func TestUploadSession_Complete_Multipart(t *testing.T) {
	s := session.UploadSession{Kind: session.KindMultipart, Status: session.StatusActive}

	require.NoError(t, s.Complete("merged-etag", time.Now()))
	assert.Equal(t, "merged-etag", s.MergedETag)
	assert.Empty(t, s.ETag)
}

func TestUploadSession_Complete_RequiresActive(t *testing.T) {
	for _, status := range []session.Status{
		session.StatusPreparing,
		session.StatusCompleted,
		session.StatusFailed,
		session.StatusExpired,
	} {
		s := session.UploadSession{Status: status}
		assert.ErrorIs(t, s.Complete("etag", time.Now()), fileflow_errors.ErrInvalidTransition, "status %s", status)
	}
}

func TestUploadSession_Fail(t *testing.T) {
	s := session.UploadSession{Status: session.StatusActive}

	require.NoError(t, s.Fail("cancelled"))
	assert.Equal(t, session.StatusFailed, s.Status)
	assert.Equal(t, "cancelled", s.FailureReason)

	assert.ErrorIs(t, s.Fail("again"), fileflow_errors.ErrInvalidTransition)
	assert.Equal(t, "cancelled", s.FailureReason)
}

func TestUploadSession_Expire(t *testing.T) {
	s := session.UploadSession{Status: session.StatusPreparing}
	require.NoError(t, s.Expire())
	assert.Equal(t, session.StatusExpired, s.Status)

	done := session.UploadSession{Status: session.StatusCompleted}
	assert.ErrorIs(t, done.Expire(), fileflow_errors.ErrInvalidTransition)
}

func TestUploadSession_IsTerminal(t *testing.T) {
	assert.False(t, (&session.UploadSession{Status: session.StatusPreparing}).IsTerminal())
	assert.False(t, (&session.UploadSession{Status: session.StatusActive}).IsTerminal())
	assert.True(t, (&session.UploadSession{Status: session.StatusCompleted}).IsTerminal())
	assert.True(t, (&session.UploadSession{Status: session.StatusFailed}).IsTerminal())
	assert.True(t, (&session.UploadSession{Status: session.StatusExpired}).IsTerminal())
}

func TestCompletedPart_Report(t *testing.T) {
	now := time.Now()
	p := session.CompletedPart{PartNumber: 1}

	require.True(t, p.Report("etag-1", 1024, now))
	assert.Equal(t, "etag-1", p.ETag)
	assert.Equal(t, int64(1024), p.Size)
	require.NotNil(t, p.UploadedAt)
	assert.True(t, p.IsUploaded())

	// Second report of the same part must not overwrite anything.
	assert.False(t, p.Report("etag-2", 2048, now.Add(time.Minute)))
	assert.Equal(t, "etag-1", p.ETag)
	assert.Equal(t, int64(1024), p.Size)
}
