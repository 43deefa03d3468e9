package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/edison-run/edison/internal/entity"
)

// AuditRecord is one line of logs/state-transitions.jsonl.
type AuditRecord struct {
	Timestamp  time.Time  `json:"timestamp"`
	SessionID  string     `json:"sessionId,omitempty"`
	EntityKind entity.Kind `json:"entityKind"`
	EntityID   string     `json:"entityId"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Reason     string     `json:"reason,omitempty"`
	Actor      string     `json:"actor,omitempty"`
}

// AuditWriter appends AuditRecord lines to a single JSON Lines file. A
// plain append-mode os.OpenFile is enough here: the payload is one JSON
// object per write, POSIX append is atomic for writes under PIPE_BUF, and
// nothing in the pack's dependency set offers a JSONL appender that beats
// encoding/json + os.OpenFile(O_APPEND) for this narrow a job.
type AuditWriter struct {
	mu   sync.Mutex
	path string
}

// NewAuditWriter prepares an AuditWriter at path, creating parent
// directories as needed.
func NewAuditWriter(path string) (*AuditWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &IOFailureError{Op: "mkdir " + filepath.Dir(path), Err: err}
	}
	return &AuditWriter{path: path}, nil
}

// Append writes one record as a single JSON line.
func (w *AuditWriter) Append(rec AuditRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return &IOFailureError{Op: "marshal audit record", Err: err}
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &IOFailureError{Op: "open audit log " + w.path, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return &IOFailureError{Op: "append audit log " + w.path, Err: err}
	}
	return f.Sync()
}
