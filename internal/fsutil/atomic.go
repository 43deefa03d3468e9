// Package fsutil provides durable, non-corrupting file writes and advisory
// per-path locking for the on-disk state Edison manages.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite writes content to path without ever leaving a partial file
// observable at path. It creates "{path}.tmp-{nonce}" in the same
// directory, writes all bytes, fsyncs, then renames into place. Parent
// directories are created on demand.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsutil: create parent dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("fsutil: create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	// Any early return past this point must clean up the temp file: a
	// failure here must never leave content visible at path, and must
	// never leave an orphaned temp file if we can help it.
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsutil: write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsutil: fsync temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsutil: close temp file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsutil: rename %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

// ReadText reads the full contents of path. It exists mainly so callers
// have a single place to reason about the read side of the atomic-write
// contract: every successful call returns either the pre-write or the
// post-write bytes of some completed write, never a partial write.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fsutil: read %s: %w", path, err)
	}
	return string(data), nil
}
