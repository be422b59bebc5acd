package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Lock key patterns:
// - lock:session:expire:{session_id} - expiry reaper mutual exclusion

// unlockScript deletes the key only when it still holds our token, so a
// lease that expired and was re-acquired by another holder is never released
// by the previous one.
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

const lockPollInterval = 50 * time.Millisecond

// LockProvider acquires named, lease-bounded mutual-exclusion locks
// cluster-wide. A lease auto-expires even if the holder crashes before
// releasing it.
type LockProvider struct {
	client *goredis.Client
}

// NewLockProvider creates a new lock provider
func NewLockProvider(client *goredis.Client) *LockProvider {
	return &LockProvider{client: client}
}

// TryLock attempts to acquire key within waitTimeout, polling while another
// holder keeps it. On success it returns the release function; acquired is
// false without error when the wait window elapsed.
func (p *LockProvider) TryLock(ctx context.Context, key string, waitTimeout, lease time.Duration) (unlock func(context.Context) error, acquired bool, err error) {
	token := uuid.NewString()
	deadline := time.Now().Add(waitTimeout)

	for {
		ok, err := p.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, false, err
		}
		if ok {
			release := func(ctx context.Context) error {
				return unlockScript.Run(ctx, p.client, []string{key}, token).Err()
			}
			return release, true, nil
		}
		if time.Now().Add(lockPollInterval).After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
