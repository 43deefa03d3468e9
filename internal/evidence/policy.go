package evidence

import "path/filepath"

// RequiredEvidence names the evidence files policy requires to exist,
// each matched against round and snapshot file lists with filepath.Match
// globs (e.g. "validator-*-report.json").
type RequiredEvidence []string

// MissingEvidenceBlockers returns the subset of required patterns that
// resolve to no file in taskID's latest round or in fp's snapshot.
// A pattern matched by either location is satisfied.
func MissingEvidenceBlockers(store *Store, taskID string, fp Fingerprint, required RequiredEvidence) ([]string, error) {
	latest, hasRound := store.GetLatestRound(taskID)
	var roundFiles []string
	if hasRound {
		var err error
		roundFiles, err = store.ListRoundFiles(taskID, latest)
		if err != nil {
			return nil, err
		}
	}
	snapshotFiles, err := store.ListSnapshotFiles(fp)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, pattern := range required {
		if matchesAny(pattern, roundFiles) || matchesAny(pattern, snapshotFiles) {
			continue
		}
		missing = append(missing, pattern)
	}
	return missing, nil
}

func matchesAny(pattern string, names []string) bool {
	for _, name := range names {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
