package index

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// buildLock serializes index builds across processes. A zero path disables it.
type buildLock struct {
	fl *flock.Flock
}

func newBuildLock(path string) *buildLock {
	if path == "" {
		return &buildLock{}
	}
	return &buildLock{fl: flock.New(path)}
}

// acquire blocks until the lock is held or ctx is done.
func (l *buildLock) acquire(ctx context.Context) error {
	if l.fl == nil {
		return nil
	}
	locked, err := l.fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquiring build lock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		return fmt.Errorf("acquiring build lock %s: %w", l.fl.Path(), ctx.Err())
	}
	return nil
}

func (l *buildLock) release() error {
	if l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
