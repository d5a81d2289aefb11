package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the key is held by someone else for
// longer than the caller was willing to wait.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serialises work on a single key across callers.
type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned
	// release func is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const (
	DefaultTTL       = 10 * time.Second
	DefaultWait      = 3 * time.Second
	defaultRetryStep = 50 * time.Millisecond
)
