package repository

import (
	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/fsutil"
	"github.com/edison-run/edison/internal/statemachine"
)

// SessionRepository is BaseRepository[*entity.Session]; sessions use the
// same generic pipeline as tasks and QA records, just with a
// directory-per-id layout instead of one file per id.
type SessionRepository struct {
	*BaseRepository[*entity.Session]
}

// NewSessionRepository builds a SessionRepository rooted at root.
func NewSessionRepository(root string, runtime *statemachine.Runtime, audit *AuditWriter, lockOpts fsutil.LockOptions) *SessionRepository {
	base := NewBaseRepository(Config[*entity.Session]{
		Kind:     entity.KindSession,
		Root:     root,
		IO:       newSessionIO(root),
		Runtime:  runtime,
		Audit:    audit,
		LockOpts: lockOpts,
	})
	return &SessionRepository{BaseRepository: base}
}
