// Package transaction implements the Validation Transaction: a staged-write scope that commits a bundle of validator
// artifacts atomically or not at all, with crash recovery and a
// cross-session concurrency guard.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/edison-run/edison/internal/fsutil"
)

// TransactionInProgressError is returned when a second transaction is
// attempted for a session that already has one uncommitted.
type TransactionInProgressError struct {
	SessionID string
}

func (e *TransactionInProgressError) Error() string {
	return fmt.Sprintf("transaction: a validation transaction is already in progress for session %q", e.SessionID)
}

// OutOfSpaceError is returned when the pre-check finds less free space
// than MinFreeBytes on the staging filesystem.
type OutOfSpaceError struct {
	Available, Required int64
}

func (e *OutOfSpaceError) Error() string {
	return fmt.Sprintf("transaction: insufficient disk space: %d bytes available, %d required", e.Available, e.Required)
}

// Record is one line of a session's validation-transactions.log.
type Record struct {
	TxID        string    `json:"tx_id"`
	StartedAt   time.Time `json:"started_at"`
	CommittedAt time.Time `json:"committed_at,omitempty"`
	Status      string    `json:"status"` // commit | abort | recovered
	Reason      string    `json:"reason,omitempty"`
}

// Manager scopes transactions to one session's working directory:
// sessions/wip/{session_id}/.
type Manager struct {
	SessionDir   string
	LockOpts     fsutil.LockOptions
	MinFreeBytes int64
}

// NewManager returns a Manager for sessionID rooted at sessionsWipDir.
func NewManager(sessionsWipDir, sessionID string, lockOpts fsutil.LockOptions, minFreeBytes int64) *Manager {
	return &Manager{
		SessionDir:   filepath.Join(sessionsWipDir, sessionID),
		LockOpts:     lockOpts,
		MinFreeBytes: minFreeBytes,
	}
}

func (m *Manager) lockPath() string {
	return filepath.Join(m.SessionDir, ".tx.lock")
}

func (m *Manager) logPath() string {
	return filepath.Join(m.SessionDir, "validation-transactions.log")
}

func (m *Manager) txRoot() string {
	return filepath.Join(m.SessionDir, ".tx")
}

// Tx is a staged-write scope. Callers write any number of files beneath
// StagingRoot, then call Commit or Abort exactly once.
type Tx struct {
	manager     *Manager
	id          string
	startedAt   time.Time
	StagingRoot string

	guard    *fsutil.LockGuard
	mu       sync.Mutex
	resolved bool
}

// Begin pre-checks disk space, acquires the session's .tx.lock, and
// creates a fresh staging directory under sessions/wip/{session_id}/.tx/{nonce}/.
func (m *Manager) Begin(ctx context.Context) (*Tx, error) {
	if err := checkFreeSpace(m.SessionDir, m.MinFreeBytes); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.SessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("transaction: create session directory: %w", err)
	}

	guard, err := fsutil.AcquireFileLock(ctx, m.lockPath(), m.LockOpts)
	if err != nil {
		if errors.Is(err, fsutil.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &TransactionInProgressError{SessionID: filepath.Base(m.SessionDir)}
		}
		return nil, err
	}

	nonce := uuid.NewString()
	staging := filepath.Join(m.txRoot(), nonce)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		_ = guard.Release()
		return nil, fmt.Errorf("transaction: create staging directory: %w", err)
	}

	return &Tx{
		manager:     m,
		id:          nonce,
		startedAt:   time.Now().UTC(),
		StagingRoot: staging,
		guard:       guard,
	}, nil
}

// Commit moves every file under StagingRoot into destRoot (the real
// evidence tree), preferring an atomic rename and falling back to
// copy-then-fsync-then-remove when staging and destination don't share a
// filesystem. Appends a commit record to the session's log.
func (tx *Tx) Commit(destRoot string) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.resolved {
		return fmt.Errorf("transaction: already resolved")
	}
	defer tx.guard.Release()
	defer os.RemoveAll(tx.StagingRoot)

	if err := moveTree(tx.StagingRoot, destRoot); err != nil {
		return fmt.Errorf("transaction: commit failed: %w", err)
	}

	tx.resolved = true
	return appendRecord(tx.manager.logPath(), Record{
		TxID:        tx.id,
		StartedAt:   tx.startedAt,
		CommittedAt: time.Now().UTC(),
		Status:      "commit",
	})
}

// Abort deletes the staging tree and logs an abort record.
func (tx *Tx) Abort(reason string) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.resolved {
		return nil
	}
	defer tx.guard.Release()

	if err := os.RemoveAll(tx.StagingRoot); err != nil {
		return fmt.Errorf("transaction: abort cleanup failed: %w", err)
	}
	tx.resolved = true
	return appendRecord(tx.manager.logPath(), Record{
		TxID:      tx.id,
		StartedAt: tx.startedAt,
		Status:    "abort",
		Reason:    reason,
	})
}

// Close implicitly aborts an unresolved transaction, for use with defer
// as a scope guard: defer tx.Close().
func (tx *Tx) Close() {
	tx.mu.Lock()
	resolved := tx.resolved
	tx.mu.Unlock()
	if !resolved {
		_ = tx.Abort("scope exited without commit")
	}
}

func moveTree(srcRoot, destRoot string) error {
	return filepath.Walk(srcRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dest := filepath.Join(destRoot, rel)
		if info.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return renameOrCopy(path, dest)
	})
}

func renameOrCopy(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	} else if !strings.Contains(err.Error(), "cross-device") && !isCrossDeviceErr(err) {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("copy fallback read: %w", err)
	}
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("copy fallback create: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("copy fallback write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("copy fallback fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("copy fallback close: %w", err)
	}
	return os.Remove(src)
}

func isCrossDeviceErr(err error) bool {
	return err != nil && (err == syscall.EXDEV || strings.Contains(err.Error(), "invalid cross-device link"))
}

func checkFreeSpace(dir string, minFreeBytes int64) error {
	if minFreeBytes <= 0 {
		return nil
	}
	probe := dir
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(probe, &stat); err != nil {
		return nil
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < minFreeBytes {
		return &OutOfSpaceError{Available: available, Required: minFreeBytes}
	}
	return nil
}
