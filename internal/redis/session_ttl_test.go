package redis_test

import (
	"testing"

	fileflowredis "fileflow/internal/redis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDFromExpiredKey(t *testing.T) {
	id := uuid.New()

	got, ok := fileflowredis.SessionIDFromExpiredKey("upload:session:" + id.String())
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = fileflowredis.SessionIDFromExpiredKey("upload:session:garbage")
	assert.False(t, ok)

	_, ok = fileflowredis.SessionIDFromExpiredKey("lock:session:expire:" + id.String())
	assert.False(t, ok)

	_, ok = fileflowredis.SessionIDFromExpiredKey("")
	assert.False(t, ok)
}
