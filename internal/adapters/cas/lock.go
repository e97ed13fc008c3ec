package cas

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// lockTimeout bounds how long a publisher waits for the per-key lock.
	lockTimeout = 30 * time.Second
	// lockRetryDelay is the poll interval while waiting for the lock.
	lockRetryDelay = 25 * time.Millisecond
)

// keyLock is an exclusive advisory lock scoped to one cache key. It is held
// only for the duration of staging finalization and publish; lookups never
// need it because published entries are immutable.
type keyLock struct {
	fl *flock.Flock
}

func (s *Store) lockFor(key domain.Key) *keyLock {
	return &keyLock{
		fl: flock.New(filepath.Join(s.locksDir(), key.String()+".lock")),
	}
}

// acquire takes the lock, polling with a bounded backoff. A timeout or a
// cancelled context surfaces as domain.ErrLockTimeout.
func (l *keyLock) acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	ok, err := l.fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return zerr.With(domain.ErrLockTimeout, "lock", l.fl.Path())
		}
		return zerr.With(zerr.Wrap(err, domain.ErrLockTimeout.Error()), "lock", l.fl.Path())
	}
	if !ok {
		return zerr.With(domain.ErrLockTimeout, "lock", l.fl.Path())
	}
	return nil
}

// release drops the lock. Safe to call on all exit paths.
func (l *keyLock) release() {
	_ = l.fl.Unlock()
}
