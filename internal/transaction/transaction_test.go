package transaction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edison-run/edison/internal/fsutil"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), "session-1", fsutil.LockOptions{Timeout: time.Second}, 0)
}

func TestBeginCommit_MovesStagedFilesIntoDestRoot(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tx.StagingRoot, "report.json"), []byte(`{"ok":true}`), 0o644))

	dest := t.TempDir()
	require.NoError(t, tx.Commit(dest))

	data, err := os.ReadFile(filepath.Join(dest, "report.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	_, err = os.Stat(tx.StagingRoot)
	assert.True(t, os.IsNotExist(err))

	log, err := os.ReadFile(m.logPath())
	require.NoError(t, err)
	assert.Contains(t, string(log), `"status":"commit"`)
}

func TestAbort_RemovesStagingAndLogsReason(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tx.StagingRoot, "scratch.txt"), []byte("x"), 0o644))

	require.NoError(t, tx.Abort("validator failed"))

	_, err = os.Stat(tx.StagingRoot)
	assert.True(t, os.IsNotExist(err))

	log, err := os.ReadFile(m.logPath())
	require.NoError(t, err)
	assert.Contains(t, string(log), `"status":"abort"`)
	assert.Contains(t, string(log), "validator failed")
}

func TestClose_ImplicitlyAbortsUnresolvedTransaction(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	tx.Close()

	_, err = os.Stat(tx.StagingRoot)
	assert.True(t, os.IsNotExist(err))
}

func TestClose_NoOpAfterCommit(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	dest := t.TempDir()
	require.NoError(t, tx.Commit(dest))

	tx.Close()

	log, err := os.ReadFile(m.logPath())
	require.NoError(t, err)
	assert.Equal(t, 1, countLines(string(log)))
}

func TestBegin_SecondConcurrentTransactionIsRejected(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	first, err := m.Begin(ctx)
	require.NoError(t, err)
	defer first.Close()

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.Begin(shortCtx)
	var inProgress *TransactionInProgressError
	require.ErrorAs(t, err, &inProgress)
}

func TestBegin_OutOfSpaceRejectsUpfront(t *testing.T) {
	m := testManager(t)
	m.MinFreeBytes = 1 << 62 // absurdly large, always exceeds available space

	_, err := m.Begin(context.Background())
	var outOfSpace *OutOfSpaceError
	require.ErrorAs(t, err, &outOfSpace)
}

func TestRecoverIncompleteTransactions_RemovesStaleStagingDir(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tx.StagingRoot, "orphan.txt"), []byte("x"), 0o644))
	// Simulate a crash: release the lock without calling Commit/Abort.
	require.NoError(t, tx.guard.Release())

	n, err := m.RecoverIncompleteTransactions()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(tx.StagingRoot)
	assert.True(t, os.IsNotExist(err))

	log, err := os.ReadFile(m.logPath())
	require.NoError(t, err)
	assert.Contains(t, string(log), `"status":"recovered"`)
}

func TestRecoverIncompleteTransactions_IsIdempotentOnCleanTree(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(t.TempDir()))

	n, err := m.RecoverIncompleteTransactions()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = m.RecoverIncompleteTransactions()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecoverIncompleteTransactions_SkipsDirWhoseLockIsHeld(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tx.StagingRoot, "orphan.txt"), []byte("x"), 0o644))
	// Lock is still held (no Commit/Abort/Close), so recovery must skip it.

	n, err := m.RecoverIncompleteTransactions()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = os.Stat(tx.StagingRoot)
	require.NoError(t, err)

	require.NoError(t, tx.Abort("test cleanup"))
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
