package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// PurityFinding is one problem CheckPurity surfaces. It is read-only
// tooling output, not a state-machine gate.
type PurityFinding struct {
	Kind    string // "core-modified" or "unreachable-guideline"
	ID      string
	Path    string
	Message string
}

// CoreBaseline maps a core-layer entry id to the sha256 hex digest
// recorded when the core content was last known-good.
type CoreBaseline map[string]string

// CheckPurity verifies two things about idx, generalized from
// audit/purity.py and audit/guideline_discovery.py:
//   - no entry sourced from the Core layer has drifted from baseline (a
//     core file edited in place rather than overlaid);
//   - every entry in idx is reachable (present in the reachable set a
//     caller derives from the documents it actually generated).
//
// reachable may be nil to skip the reachability check (e.g. when called
// before any generation has run).
func CheckPurity(idx *Index, baseline CoreBaseline, reachable map[string]bool) ([]PurityFinding, error) {
	var findings []PurityFinding

	for _, e := range idx.Entries {
		if e.Layer.Role != RoleCore {
			continue
		}
		want, known := baseline[e.ID]
		if !known {
			continue
		}
		got, err := fileChecksum(e.Path)
		if err != nil {
			return nil, err
		}
		if got != want {
			findings = append(findings, PurityFinding{
				Kind:    "core-modified",
				ID:      e.ID,
				Path:    e.Path,
				Message: fmt.Sprintf("core content %q was edited in place (checksum %s, expected %s)", e.ID, got, want),
			})
		}
	}

	if reachable != nil {
		for _, e := range idx.Entries {
			if !reachable[e.ID] {
				findings = append(findings, PurityFinding{
					Kind:    "unreachable-guideline",
					ID:      e.ID,
					Path:    e.Path,
					Message: fmt.Sprintf("%q is discovered but not referenced by any generated document", e.ID),
				})
			}
		}
	}

	return findings, nil
}

func fileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("discovery: checksum %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Checksum computes the same digest CheckPurity compares against, so
// callers can record a new baseline after an intentional core update.
func Checksum(path string) (string, error) {
	return fileChecksum(path)
}
