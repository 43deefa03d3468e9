package transaction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edison-run/edison/internal/fsutil"
)

func appendRecord(path string, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("transaction: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("transaction: open log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("transaction: marshal log record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("transaction: write log record: %w", err)
	}
	return f.Sync()
}

// RecoverIncompleteTransactions scans sessions/wip/{session_id}/.tx for
// staging directories left behind by a crash (no active lock, no
// committed_at logged for that tx_id), deletes them, and logs a
// "recovered" record for each. Idempotent: a clean tree reports zero.
func (m *Manager) RecoverIncompleteTransactions() (int, error) {
	committed, err := committedTxIDs(m.logPath())
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(m.txRoot())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("transaction: list staging root: %w", err)
	}

	recovered := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		txID := e.Name()
		if committed[txID] {
			continue
		}
		if m.lockHeld() {
			continue
		}
		stagingDir := filepath.Join(m.txRoot(), txID)
		if err := os.RemoveAll(stagingDir); err != nil {
			return recovered, fmt.Errorf("transaction: remove stale staging dir: %w", err)
		}
		if err := appendRecord(m.logPath(), Record{TxID: txID, Status: "recovered", Reason: "stale staging directory found with no commit record"}); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

func committedTxIDs(logPath string) (map[string]bool, error) {
	ids := map[string]bool{}
	f, err := os.Open(logPath)
	if os.IsNotExist(err) {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transaction: open log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Status == "commit" {
			ids[rec.TxID] = true
		}
	}
	return ids, scanner.Err()
}

// lockHeld reports whether another process currently holds the
// session's .tx.lock, without blocking for long: a short-timeout
// acquire attempt that's released immediately on success.
func (m *Manager) lockHeld() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	guard, err := fsutil.AcquireFileLock(ctx, m.lockPath(), fsutil.LockOptions{Timeout: 50 * time.Millisecond})
	if err != nil {
		return true
	}
	_ = guard.Release()
	return false
}
