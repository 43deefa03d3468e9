package evidence

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/edison-run/edison/internal/fsutil"
)

// schemaVersion is bumped whenever a written record's shape changes in a
// way older readers can't tolerate.
const schemaVersion = 1

// CommandEvidence is one captured command's structured record.
type CommandEvidence struct {
	SchemaVersion int         `json:"schemaVersion"`
	TaskID        string      `json:"taskId"`
	Round         int         `json:"round"`
	CommandName   string      `json:"commandName"`
	Command       string      `json:"command"`
	Cwd           string      `json:"cwd"`
	ExitCode      int         `json:"exitCode"`
	Output        string      `json:"output"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	HMAC          string      `json:"hmac,omitempty"`
}

// WriteCommandEvidence writes rec as JSON to path. If hmacKey is
// non-empty, an HMAC-SHA256 over the canonicalized (hmac-field-stripped)
// payload is computed and attached, letting a later reader detect
// tampering by recomputing it.
func WriteCommandEvidence(path string, rec CommandEvidence, hmacKey string) error {
	rec.SchemaVersion = schemaVersion
	rec.HMAC = ""

	canonical, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("evidence: marshal command evidence: %w", err)
	}

	if hmacKey != "" {
		rec.HMAC = computeHMAC(canonical, hmacKey)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("evidence: marshal command evidence: %w", err)
	}
	return fsutil.AtomicWrite(path, data)
}

// VerifyCommandEvidenceHMAC recomputes the HMAC over rec's canonical
// (hmac-stripped) payload and compares it against rec.HMAC.
func VerifyCommandEvidenceHMAC(rec CommandEvidence, hmacKey string) (bool, error) {
	want := rec.HMAC
	rec.HMAC = ""
	canonical, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("evidence: marshal command evidence: %w", err)
	}
	return hmac.Equal([]byte(computeHMAC(canonical, hmacKey)), []byte(want)), nil
}

func computeHMAC(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// MissingRequiredFieldError is returned by WriteImplementationReport and
// WriteValidatorReport when a policy-required field is absent.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("evidence: missing required field %q", e.Field)
}

// WriteImplementationReport writes payload as implementation-report.json
// into taskID's round n directory, enforcing taskId and round are
// present and consistent.
func WriteImplementationReport(store *Store, taskID string, round int, payload map[string]any) error {
	payload = withRequiredFields(payload, taskID, round)
	if err := requireFields(payload, "taskId", "round"); err != nil {
		return err
	}
	dir, err := store.EnsureRound(taskID, round)
	if err != nil {
		return err
	}
	return writeJSONReport(dir, "implementation-report.json", payload)
}

// WriteValidatorReport writes payload as validator-{id}-report.json into
// taskID's round n directory, enforcing taskId, round, validatorId and
// verdict are present.
func WriteValidatorReport(store *Store, taskID string, round int, validatorID string, payload map[string]any) error {
	payload = withRequiredFields(payload, taskID, round)
	payload["validatorId"] = validatorID
	if err := requireFields(payload, "taskId", "round", "validatorId", "verdict"); err != nil {
		return err
	}
	dir, err := store.EnsureRound(taskID, round)
	if err != nil {
		return err
	}
	return writeJSONReport(dir, fmt.Sprintf("validator-%s-report.json", validatorID), payload)
}

func withRequiredFields(payload map[string]any, taskID string, round int) map[string]any {
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	if _, ok := out["taskId"]; !ok {
		out["taskId"] = taskID
	}
	if _, ok := out["round"]; !ok {
		out["round"] = round
	}
	return out
}

func requireFields(payload map[string]any, fields ...string) error {
	for _, f := range fields {
		v, ok := payload[f]
		if !ok {
			return &MissingRequiredFieldError{Field: f}
		}
		if s, isStr := v.(string); isStr && s == "" {
			return &MissingRequiredFieldError{Field: f}
		}
	}
	return nil
}

func writeJSONReport(dir, filename string, payload map[string]any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("evidence: marshal report: %w", err)
	}
	return fsutil.AtomicWrite(filepath.Join(dir, filename), data)
}
