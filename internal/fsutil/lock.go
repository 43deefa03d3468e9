package fsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned by AcquireFileLock when the lock could not be
// obtained within the configured timeout and fail_open was not requested.
var ErrLockTimeout = errors.New("fsutil: lock timeout")

// LockGuard is held while a caller has exclusive access to a path. Release
// must be called exactly once, typically via defer.
type LockGuard struct {
	flock      *flock.Flock
	bypassed   bool
	pollPeriod time.Duration
}

// Bypassed reports whether this guard represents a best-effort, fail-open
// acquisition rather than a real lock. Callers that care (e.g. to set
// lockBypassed=true in an audit record) should check this.
func (g *LockGuard) Bypassed() bool {
	return g != nil && g.bypassed
}

// Release drops the lock. Safe to call on a nil or bypassed guard.
func (g *LockGuard) Release() error {
	if g == nil || g.flock == nil {
		return nil
	}
	return g.flock.Unlock()
}

// LockOptions configures AcquireFileLock.
type LockOptions struct {
	// Timeout bounds how long to wait for the lock.
	Timeout time.Duration
	// PollInterval is how often to retry acquisition while waiting.
	// Defaults to 50ms.
	PollInterval time.Duration
	// FailOpen, when the timeout elapses, causes AcquireFileLock to return
	// a bypass guard that still lets the caller proceed (best-effort mode,
	// used for telemetry-heavy paths like heartbeats) instead of an error.
	FailOpen bool
}

// AcquireFileLock opens a per-path advisory lock file at "{path}.lock" and
// polls until it is acquired, the timeout elapses, or the context is
// cancelled. On timeout with FailOpen set, it returns a guard whose
// Bypassed() is true rather than an error.
func AcquireFileLock(ctx context.Context, path string, opts LockOptions) (*LockGuard, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}

	lockPath := path + ".lock"
	fl := flock.New(lockPath)

	deadline := time.Now().Add(opts.Timeout)
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("fsutil: lock %s: %w", lockPath, err)
		}
		if locked {
			return &LockGuard{flock: fl, pollPeriod: opts.PollInterval}, nil
		}

		if opts.Timeout > 0 && time.Now().After(deadline) {
			if opts.FailOpen {
				return &LockGuard{bypassed: true}, nil
			}
			return nil, fmt.Errorf("%w: %s after %s", ErrLockTimeout, lockPath, opts.Timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

// WriteTextLocked acquires the per-path lock and atomically writes content
// inside it. It does not read the existing file; BaseRepository does not
// call it and calls AtomicWrite directly.
func WriteTextLocked(ctx context.Context, path string, content []byte, opts LockOptions) error {
	guard, err := AcquireFileLock(ctx, path, opts)
	if err != nil {
		return err
	}
	defer func() { _ = guard.Release() }()

	return AtomicWrite(path, content)
}
