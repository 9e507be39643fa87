package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/mossrise/packmule/internal/logger"
	"github.com/mossrise/packmule/pkg/store"
)

// lockFileName is the marker file used for the cross-process exclusive lock
// over a store's base directory.
const lockFileName = ".packmule.lock"

// lockRetryInterval is how often acquisition re-attempts the flock while
// waiting out the timeout.
const lockRetryInterval = 250 * time.Millisecond

// storeLock is the exclusive advisory lock protecting a store directory
// from concurrent use by another process. One storeLock instance guards one
// session; acquisition waits a bounded time and fails fast with
// store.ErrStoreInUse rather than blocking indefinitely.
//
// Thread safety: all methods are safe for concurrent use. Release is
// idempotent and a no-op when the lock was never held.
type storeLock struct {
	fl *flock.Flock

	mu   sync.Mutex
	held bool
}

// newStoreLock creates a lock over basePath. Nothing is acquired yet.
func newStoreLock(basePath string) *storeLock {
	return &storeLock{fl: flock.New(filepath.Join(basePath, lockFileName))}
}

// Acquire takes the exclusive lock, waiting up to timeout. Any failure to
// acquire - contention, timeout, or an underlying I/O error - is reported as
// store.ErrStoreInUse so the caller can show an actionable "store in use"
// message instead of a generic I/O error.
func (l *storeLock) Acquire(ctx context.Context, timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := l.fl.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", l.fl.Path(), store.ErrStoreInUse)
		}
		return fmt.Errorf("%s: %v: %w", l.fl.Path(), err, store.ErrStoreInUse)
	}
	if !locked {
		return fmt.Errorf("%s: %w", l.fl.Path(), store.ErrStoreInUse)
	}

	l.held = true
	logger.Debug("acquired store lock at %s", l.fl.Path())
	return nil
}

// Release drops the lock and removes the marker file. Safe to call multiple
// times and after a failed acquisition.
func (l *storeLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}

	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release store lock: %w", err)
	}
	l.held = false

	// Best effort: a leftover marker does not block future sessions, but
	// keeping the directory clean avoids confusing its owner.
	_ = os.Remove(l.fl.Path())

	logger.Debug("released store lock at %s", l.fl.Path())
	return nil
}
