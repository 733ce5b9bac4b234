package locker

import (
	"context"

	"github.com/go-redsync/redsync/v4"
)

type Locker struct {
	rs *redsync.Redsync
}

func NewLocker(rs *redsync.Redsync) *Locker {
	return &Locker{rs}
}

// TryLock fails at once when key is held elsewhere.
func (l *Locker) TryLock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(key)
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, err
	}

	return func() {
		// nolint:errcheck
		mutex.Unlock()
	}, nil
}
