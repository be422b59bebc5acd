package reaper

import (
	"context"
	"errors"
	"time"

	fileflowredis "fileflow/internal/redis"
	"fileflow/internal/repository"
	fileflow_errors "fileflow/pkg/errors"
	"fileflow/pkg/logger"

	"github.com/google/uuid"
)

const lockKeyPrefix = "lock:session:expire:"

// LockProvider is the distributed-lock surface the reaper needs.
type LockProvider interface {
	TryLock(ctx context.Context, key string, waitTimeout, lease time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

// Subscriber delivers expired shadow-key names.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(key string)) error
}

// Reaper fails sessions whose TTL shadow key expired without the session
// reaching a terminal state. Expiry notifications fan out to every instance,
// so each expiry is guarded by a per-session lock: the holder transitions
// the session and everyone else walks away.
type Reaper struct {
	sessions    repository.SessionRepository
	locks       LockProvider
	subscriber  Subscriber
	waitTimeout time.Duration
	lease       time.Duration
	logger      *logger.Logger
}

func NewReaper(sessions repository.SessionRepository, locks LockProvider, subscriber Subscriber, waitTimeout, lease time.Duration, l *logger.Logger) *Reaper {
	return &Reaper{
		sessions:    sessions,
		locks:       locks,
		subscriber:  subscriber,
		waitTimeout: waitTimeout,
		lease:       lease,
		logger:      l,
	}
}

// Run subscribes for expiry notifications and reconnects on failure until
// the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	for {
		err := r.subscriber.Subscribe(ctx, func(key string) {
			r.HandleExpiredKey(ctx, key)
		})
		if ctx.Err() != nil {
			return
		}
		r.logger.Errorf("expiry subscription dropped, reconnecting: err=%v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// HandleExpiredKey filters raw expiry notifications down to session shadow
// keys. Other expired keys in the same database are ignored.
func (r *Reaper) HandleExpiredKey(ctx context.Context, key string) {
	sessionID, ok := fileflowredis.SessionIDFromExpiredKey(key)
	if !ok {
		return
	}
	r.HandleExpiry(ctx, sessionID)
}

// HandleExpiry transitions one expired session to FAILED under the
// per-session lock. Losing the lock race means another instance owns this
// expiry, so giving up silently is the correct outcome, not an error.
func (r *Reaper) HandleExpiry(ctx context.Context, sessionID uuid.UUID) {
	unlock, acquired, err := r.locks.TryLock(ctx, lockKeyPrefix+sessionID.String(), r.waitTimeout, r.lease)
	if err != nil {
		r.logger.Errorf("expiry lock acquisition failed: session=%s err=%v", sessionID, err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			r.logger.Warnf("expiry lock release failed: session=%s err=%v", sessionID, err)
		}
	}()

	sess, err := r.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, fileflow_errors.ErrNotFound) {
			return
		}
		r.logger.Errorf("expiry lookup failed: session=%s err=%v", sessionID, err)
		return
	}
	if sess.IsTerminal() {
		return
	}

	if err := sess.Fail("expired"); err != nil {
		r.logger.Errorf("expiry transition rejected: session=%s status=%s err=%v", sessionID, sess.Status, err)
		return
	}
	if err := r.sessions.Update(ctx, sess); err != nil {
		r.logger.Errorf("expiry persist failed: session=%s err=%v", sessionID, err)
		return
	}

	r.logger.Infof("session expired: session=%s kind=%s", sessionID, sess.Kind)
}
