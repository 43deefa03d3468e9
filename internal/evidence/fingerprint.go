// Package evidence persists and queries command/implementation/validator
// evidence for a Task's validation rounds, and snapshot evidence keyed by
// repo state.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/edison-run/edison/internal/gitsafe"
)

// Fingerprint identifies a repo's exact working-tree state: the commit it
// is based on, a hash of its staged index, and whether it has
// uncommitted changes.
type Fingerprint struct {
	HeadSHA  string // "unknown-head" when repoRoot has no commits / isn't git
	IndexSHA string // hex sha256 of the raw index file bytes ("" index -> sha256 of empty)
	DirtyBit string // "clean" or "dirty"
}

// SnapshotKey is the directory path segment derived from a Fingerprint:
// qa/snapshots/{HeadSHA}/{IndexSHA}/{DirtyBit}/.
func (f Fingerprint) SnapshotKey() string {
	return filepath.Join(f.HeadSHA, f.IndexSHA, f.DirtyBit)
}

// ComputeFingerprint derives a Fingerprint for repoRoot using a Git
// client. Any git failure (not a repository, no commits yet) degrades
// gracefully to "unknown-head" plus a sha256 of zero index bytes, so
// callers always get a usable, if coarse, key.
func ComputeFingerprint(ctx context.Context, g *gitsafe.Git, repoRoot string) Fingerprint {
	head := g.HeadSHA(ctx, repoRoot)
	if head == "" {
		head = "unknown-head"
	}

	var indexBytes []byte
	if idxPath := g.IndexPath(ctx, repoRoot); idxPath != "" {
		if data, err := os.ReadFile(idxPath); err == nil {
			indexBytes = data
		}
	}
	sum := sha256.Sum256(indexBytes)

	// A repo-validation failure (not a git repository) has no notion of
	// dirtiness, so it resolves to "clean" — matching a non-git temp
	// project's deterministic unknown-head/sha256(empty)/clean key.
	dirty := "clean"
	if status, err := g.Status(ctx, repoRoot); err == nil && status != "" {
		dirty = "dirty"
	}

	return Fingerprint{
		HeadSHA:  head,
		IndexSHA: hex.EncodeToString(sum[:]),
		DirtyBit: dirty,
	}
}
