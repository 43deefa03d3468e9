package repository

import (
	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/fsutil"
	"github.com/edison-run/edison/internal/statemachine"
)

// QARepository is BaseRepository[*entity.QARecord] with one addition:
// GetByTaskID, since a QA record's id is always derivable from its task.
type QARepository struct {
	*BaseRepository[*entity.QARecord]
}

// NewQARepository builds a QARepository rooted at root.
func NewQARepository(root string, runtime *statemachine.Runtime, audit *AuditWriter, lockOpts fsutil.LockOptions) *QARepository {
	base := NewBaseRepository(Config[*entity.QARecord]{
		Kind:     entity.KindQA,
		Root:     root,
		IO:       newQAIO(root),
		Runtime:  runtime,
		Audit:    audit,
		LockOpts: lockOpts,
	})
	return &QARepository{BaseRepository: base}
}

// GetByTaskID fetches the QA record for taskID, if present.
func (r *QARepository) GetByTaskID(taskID string) (*entity.QARecord, bool, error) {
	return r.Get(entity.QAID(taskID))
}
